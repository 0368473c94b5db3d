package adk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeAgent is an in-memory agent server.
type fakeAgent struct {
	mu        sync.Mutex
	sessions  map[string][]Session
	runs      []RunRequest
	listCalls int
	runCalls  int
	failLists int
	runStatus int
}

func newFakeAgent(t *testing.T) (*fakeAgent, *httptest.Server) {
	t.Helper()
	f := &fakeAgent{sessions: make(map[string][]Session)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apps/{app}/users/{user}/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++
		if f.failLists > 0 {
			f.failLists--
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		list := f.sessions[r.PathValue("app")+"/"+r.PathValue("user")]
		if list == nil {
			list = []Session{}
		}
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("POST /apps/{app}/users/{user}/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		s := Session{ID: r.PathValue("id"), AppName: r.PathValue("app"), UserID: r.PathValue("user"), LastUpdateTime: 1}
		key := s.AppName + "/" + s.UserID
		f.sessions[key] = append(f.sessions[key], s)
		_ = json.NewEncoder(w).Encode(s)
	})
	mux.HandleFunc("POST /run", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.runCalls++
		if f.runStatus != 0 {
			http.Error(w, "session not found", f.runStatus)
			return
		}
		var req RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.runs = append(f.runs, req)
		_ = json.NewEncoder(w).Encode([]Event{{ID: "e1", Author: "tool_agent", Content: &Content{Role: "model", Parts: []Part{{Text: "ok"}}}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAgent) addSession(app, user string, s Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[app+"/"+user] = append(f.sessions[app+"/"+user], s)
}

func (f *fakeAgent) runRequests() []RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RunRequest(nil), f.runs...)
}
