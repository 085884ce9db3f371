package service

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
)

type EmailDomainValidator interface {
	Validate(ctx context.Context, email string) error
}

// MXResolver is satisfied by *net.Resolver.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// MXDomainValidator rejects addresses whose domain publishes no MX records.
// Lookup errors are treated the same as an empty answer.
type MXDomainValidator struct {
	resolver MXResolver
	timeout  time.Duration
	logger   *slog.Logger
}

func NewMXDomainValidator(resolver MXResolver, timeout time.Duration, logger *slog.Logger) *MXDomainValidator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MXDomainValidator{resolver: resolver, timeout: timeout, logger: logger}
}

func (v *MXDomainValidator) Validate(ctx context.Context, email string) error {
	_, domain, ok := strings.Cut(email, "@")
	domain = strings.TrimSpace(domain)
	if !ok || domain == "" {
		observability.RecordMXLookup(ctx, "malformed")
		return ErrEmailDomainInvalid
	}
	lookupCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	records, err := v.resolver.LookupMX(lookupCtx, domain)
	if err != nil {
		v.logger.InfoContext(ctx, "mx lookup failed", "component", "registration", "domain", domain, "error", err.Error())
		observability.RecordMXLookup(ctx, "error")
		return ErrEmailDomainInvalid
	}
	if len(records) == 0 {
		observability.RecordMXLookup(ctx, "empty")
		return ErrEmailDomainInvalid
	}
	observability.RecordMXLookup(ctx, "found")
	return nil
}

type NoopEmailDomainValidator struct{}

func NewNoopEmailDomainValidator() *NoopEmailDomainValidator {
	return &NoopEmailDomainValidator{}
}

func (NoopEmailDomainValidator) Validate(context.Context, string) error { return nil }
