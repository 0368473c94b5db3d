package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

type cleanupKey struct{}

// withCleanup marks a request whose proxied response must clean the address to path.
func withCleanup(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, cleanupKey{}, path)
}

func cleanupFrom(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(cleanupKey{}).(string)
	return path, ok
}

// replaceStateScript returns an inline script replacing the current history entry
// with path. json.Marshal escapes <, > and & so the path cannot close the tag.
func replaceStateScript(path string) []byte {
	quoted, _ := json.Marshal(path)
	return fmt.Appendf(nil, "<script>history.replaceState(null, \"\", %s);</script>", quoted)
}

// injectBeforeBodyEnd inserts snippet before the last </body>, or appends it.
func injectBeforeBodyEnd(doc, snippet []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(doc), []byte("</body>"))
	if idx < 0 {
		return append(doc, snippet...)
	}
	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:idx]...)
	out = append(out, snippet...)
	return append(out, doc[idx:]...)
}

func isHTML(h http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// modifyResponse injects the cleanup script into HTML responses of marked requests.
func modifyResponse(resp *http.Response) error {
	path, ok := cleanupFrom(resp.Request.Context())
	if !ok || !isHTML(resp.Header) || resp.Header.Get("Content-Encoding") != "" {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream page: %w", err)
	}
	_ = resp.Body.Close()

	body = injectBeforeBodyEnd(body, replaceStateScript(path))
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	// The page differs per request now.
	resp.Header.Del("ETag")
	resp.Header.Set("Cache-Control", "no-store")
	return nil
}
