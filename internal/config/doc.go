// Package config loads the oauthrelay configuration.
//
// Configuration is read from config.yaml in a single directory. The default directory
// is ~/.config/oauthrelay; commands accept --config-path to point elsewhere. A missing
// file means "defaults only". Values from the file are applied on top of
// GetDefaultConfig, then validated; every validation problem is reported at once in a
// ConfigurationErrorCollection.
//
// Example:
//
//	server:
//	  port: 8090
//	  chatPaths: ["/", "/dev-ui/"]
//	  cleanup: replaceState
//	upstream:
//	  url: http://localhost:8000
//	adk:
//	  appName: tool_agent
//	delivery:
//	  timeout: 10s
//	  settleDelay: 500ms
//
// Watcher reloads the file on change (fsnotify, debounced) so delivery timings, the
// message template and the duplicate guard TTL can be tuned without a restart.
package config
