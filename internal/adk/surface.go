package adk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"oauthrelay/internal/deliver"
	"oauthrelay/pkg/logging"
)

// SessionSurface presents the latest chat session of a user as a delivery surface.
// The text entry is a draft held by the surface; submitting sends the draft to the
// session through /run.
type SessionSurface struct {
	client        *Client
	app           string
	user          string
	createSession bool

	mu        sync.Mutex
	sessionID string
	draft     string
}

// NewSessionSurface creates a surface for user in app. When createSession is true and
// the user has no session, one is created on the first lookup.
func NewSessionSurface(client *Client, app, user string, createSession bool) *SessionSurface {
	return &SessionSurface{
		client:        client,
		app:           app,
		user:          user,
		createSession: createSession,
	}
}

// SessionID returns the session the surface is bound to, if any.
func (s *SessionSurface) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Draft returns the text that the next submission sends.
func (s *SessionSurface) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// TextEntry binds the surface to the most recently updated session of the user.
// It returns nil while the user has no session.
func (s *SessionSurface) TextEntry(ctx context.Context) (deliver.TextEntry, error) {
	id, err := s.resolveSession(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return sessionEntry{s: s}, nil
}

// SubmitControl returns the /run submitter. It is always available; whether there is a
// session to send to is decided by TextEntry.
func (s *SessionSurface) SubmitControl(ctx context.Context) (deliver.SubmitControl, error) {
	return sessionSubmit{s: s}, nil
}

func (s *SessionSurface) resolveSession(ctx context.Context) (string, error) {
	if id := s.SessionID(); id != "" {
		return id, nil
	}

	sessions, err := s.client.ListSessions(ctx, s.app, s.user)
	if err != nil {
		return "", err
	}

	var latest *Session
	for i := range sessions {
		if latest == nil || sessions[i].LastUpdateTime > latest.LastUpdateTime {
			latest = &sessions[i]
		}
	}

	var id string
	switch {
	case latest != nil:
		id = latest.ID
	case s.createSession:
		created, err := s.client.CreateSession(ctx, s.app, s.user, uuid.NewString())
		if err != nil {
			return "", fmt.Errorf("failed to create session: %w", err)
		}
		id = created.ID
		logging.Info("ADK", "Created session %s for user %s", id, s.user)
	default:
		return "", nil
	}

	s.mu.Lock()
	if s.sessionID == "" {
		s.sessionID = id
	}
	id = s.sessionID
	s.mu.Unlock()
	return id, nil
}

type sessionEntry struct {
	s *SessionSurface
}

func (e sessionEntry) SetText(text string) {
	e.s.mu.Lock()
	e.s.draft = text
	e.s.mu.Unlock()
}

func (e sessionEntry) DispatchInput() {
	logging.Debug("ADK", "Draft updated for session %s", e.s.SessionID())
}

type sessionSubmit struct {
	s *SessionSurface
}

func (b sessionSubmit) Activate(ctx context.Context) error {
	b.s.mu.Lock()
	sessionID, draft := b.s.sessionID, b.s.draft
	b.s.mu.Unlock()

	if sessionID == "" {
		return errors.New("no session to submit to")
	}
	if draft == "" {
		return errors.New("nothing to submit")
	}

	events, err := b.s.client.Run(ctx, RunRequest{
		AppName:    b.s.app,
		UserID:     b.s.user,
		SessionID:  sessionID,
		NewMessage: UserMessage(draft),
	})
	if err != nil {
		return err
	}

	b.s.mu.Lock()
	b.s.draft = ""
	b.s.mu.Unlock()

	logging.Debug("ADK", "Session %s answered with %d events", sessionID, len(events))
	return nil
}
