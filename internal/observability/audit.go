package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const auditEventVersion = 1

type AuditInput struct {
	EventName      string
	ActorAccountID string
	TargetType     string
	TargetID       string
	Action         string
	Outcome        string
	Reason         string
}

type AuditEvent struct {
	EventVersion   int    `json:"event_version"`
	EventName      string `json:"event_name"`
	ActorAccountID string `json:"actor_account_id"`
	ActorIP        string `json:"actor_ip"`
	TargetType     string `json:"target_type"`
	TargetID       string `json:"target_id"`
	Action         string `json:"action"`
	Outcome        string `json:"outcome"`
	Reason         string `json:"reason"`
	RequestID      string `json:"request_id"`
	TS             string `json:"ts"`
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	return AuditEvent{
		EventVersion:   auditEventVersion,
		EventName:      in.EventName,
		ActorAccountID: in.ActorAccountID,
		ActorIP:        requestIP(r),
		TargetType:     in.TargetType,
		TargetID:       in.TargetID,
		Action:         in.Action,
		Outcome:        in.Outcome,
		Reason:         in.Reason,
		RequestID:      r.Header.Get("X-Request-Id"),
		TS:             time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	var missing []string
	if e.EventVersion <= 0 {
		missing = append(missing, "event_version")
	}
	if e.EventName == "" {
		missing = append(missing, "event_name")
	}
	if e.Action == "" {
		missing = append(missing, "action")
	}
	if e.Outcome == "" {
		missing = append(missing, "outcome")
	}
	if e.TS == "" {
		missing = append(missing, "ts")
	}
	if len(missing) > 0 {
		return errors.New("audit event missing " + strings.Join(missing, ", "))
	}
	return nil
}

// EmitAudit logs a structured audit event. Invalid events are logged at warn level.
func EmitAudit(r *http.Request, in AuditInput) {
	ev := BuildAuditEvent(r, in)
	level := slog.LevelInfo
	if err := ev.Validate(); err != nil {
		level = slog.LevelWarn
	}
	slog.Log(r.Context(), level, "audit",
		"event_version", ev.EventVersion,
		"event_name", ev.EventName,
		"actor_account_id", ev.ActorAccountID,
		"actor_ip", ev.ActorIP,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	)
}

func Audit(r *http.Request, event string, attrs ...any) {
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}

func requestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
