package adk

// Session is an agent conversation.
type Session struct {
	ID      string         `json:"id"`
	AppName string         `json:"appName"`
	UserID  string         `json:"userId"`
	State   map[string]any `json:"state,omitempty"`
	// LastUpdateTime is in seconds since the epoch.
	LastUpdateTime float64 `json:"lastUpdateTime"`
}

// Part is one piece of message content.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is a message from a role.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// RunRequest sends a new message into a session.
type RunRequest struct {
	AppName    string  `json:"appName"`
	UserID     string  `json:"userId"`
	SessionID  string  `json:"sessionId"`
	NewMessage Content `json:"newMessage"`
	Streaming  bool    `json:"streaming"`
}

// Event is an entry of the agent's reply stream. Only the fields the relay logs are decoded.
type Event struct {
	ID      string   `json:"id"`
	Author  string   `json:"author"`
	Content *Content `json:"content,omitempty"`
}

// UserMessage wraps text as a user Content.
func UserMessage(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}
