package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oauthrelay/internal/callback"
	"oauthrelay/internal/config"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/relay"
	"oauthrelay/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// ErrUpstreamRequired is returned when no upstream chat UI is configured.
var ErrUpstreamRequired = errors.New("upstream chat UI URL is required")

// SurfaceFunc returns the delivery surface for a chat request. It must not block;
// surfaces are only queried once a callback has been detected.
type SurfaceFunc func(r *http.Request) deliver.Surface

// Server fronts the chat UI.
type Server struct {
	cfg      config.ServerConfig
	relay    *relay.Relay
	surface  SurfaceFunc
	upstream *url.URL
	proxy    *httputil.ReverseProxy

	// notify is daemon.SdNotify, replaced in tests.
	notify func(unsetEnvironment bool, state string) (bool, error)
}

// New creates a Server proxying to upstreamURL.
func New(cfg config.ServerConfig, upstreamURL string, r *relay.Relay, surface SurfaceFunc) (*Server, error) {
	if upstreamURL == "" {
		return nil, ErrUpstreamRequired
	}
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", upstreamURL, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme must be http or https", upstreamURL)
	}
	if len(cfg.ChatPaths) == 0 {
		cfg.ChatPaths = []string{"/"}
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = config.DefaultCallbackPath
	}
	if cfg.Cleanup == "" {
		cfg.Cleanup = config.CleanupReplaceState
	}

	s := &Server{
		cfg:      cfg,
		relay:    r,
		surface:  surface,
		upstream: target,
		notify:   daemon.SdNotify,
	}
	s.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if _, ok := cleanupFrom(pr.In.Context()); ok {
				// Injection needs an uncompressed body. Deleting the header is not
				// enough: the transport would ask for gzip on its own.
				pr.Out.Header.Set("Accept-Encoding", "identity")
			}
		},
		ModifyResponse: modifyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Error("Server", err, "Upstream request for %s failed", r.URL.Path)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
	return s, nil
}

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET "+s.cfg.CallbackPath, s.handleProviderCallback)
	mux.HandleFunc("/", s.handleChat)

	return mux
}

// handleProviderCallback forwards a provider redirect to the chat landing path.
func (s *Server) handleProviderCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		logging.Warn("Server", "Provider returned error %q: %s", providerErr, q.Get("error_description"))
		callbackRequests.WithLabelValues("provider_error").Inc()
		http.Error(w, "authorization was not granted", http.StatusBadRequest)
		return
	}

	values, ok := callback.BridgeQuery(q.Get("code"), q.Get("state"))
	if !ok {
		callbackRequests.WithLabelValues("rejected").Inc()
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	callbackRequests.WithLabelValues("bridged").Inc()
	target := url.URL{Path: s.cfg.ChatPaths[0], RawQuery: values.Encode()}
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// handleChat runs callback detection on chat paths and proxies everything else.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !slices.Contains(s.cfg.ChatPaths, r.URL.Path) {
		s.proxy.ServeHTTP(w, r)
		return
	}

	loc := newRequestLocation(r)
	p, dispatched := s.relay.Check(r.Context(), loc, s.surface(r))
	cleanPath, detected := loc.Replaced()
	if !detected {
		s.proxy.ServeHTTP(w, r)
		return
	}

	if dispatched {
		callbackRequests.WithLabelValues("dispatched").Inc()
	} else {
		callbackRequests.WithLabelValues("duplicate").Inc()
		logging.Debug("Server", "Callback for %s already handled", p.Identity())
	}

	if s.cfg.Cleanup == config.CleanupRedirect {
		http.Redirect(w, r, cleanPath, http.StatusSeeOther)
		return
	}

	out := r.Clone(withCleanup(r.Context(), cleanPath))
	out.URL.RawQuery = ""
	out.RequestURI = ""
	s.proxy.ServeHTTP(w, out)
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	logging.Info("Server", "Listening on %s, proxying %s", ln.Addr(), s.upstream.Redacted())
	s.sdNotify(daemon.SdNotifyReady)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.sdNotify(daemon.SdNotifyStopping)
	logging.Info("Server", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) sdNotify(state string) {
	sent, err := s.notify(false, state)
	if err != nil {
		logging.Warn("Server", "systemd notification %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Server", "Notified systemd: %s", state)
	}
}
