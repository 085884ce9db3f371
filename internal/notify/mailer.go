package notify

import (
	"context"
	"log/slog"
)

// Kind labels a message for metrics and logs.
type Kind string

const (
	KindRegistration    Kind = "registration"
	KindResend          Kind = "resend"
	KindPasswordReset   Kind = "password_reset"
	KindPasswordChanged Kind = "password_changed"
	KindLoginAlert      Kind = "login_alert"
)

type Message struct {
	Kind    Kind
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the logger instead of delivering them. The
// body is omitted because it carries single-use links.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email delivery skipped (log mailer)",
		"component", "notify",
		"kind", string(msg.Kind),
		"to", msg.To,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return nil
}
