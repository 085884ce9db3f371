package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// JSON writes payload as-is. Success bodies keep the shape each endpoint
// documents, so there is no envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.WarnContext(r.Context(), "response encode failed", "component", "http", "path", r.URL.Path, "error", err.Error())
	}
}

// Error writes {"ok":false,"code":code,"error":message} merged with extra.
// Keys in extra never override ok, code or error.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["ok"] = false
	body["error"] = message
	if code != "" {
		body["code"] = code
	}
	JSON(w, r, status, body)
}

// RetryAfter sets the Retry-After header in whole seconds, at least 1.
func RetryAfter(w http.ResponseWriter, d time.Duration) {
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}
