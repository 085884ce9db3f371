package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type stubMXResolver struct {
	records map[string][]*net.MX
	err     error
	calls   []string
}

func (s *stubMXResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return nil, s.err
	}
	return s.records[name], nil
}

func TestMXDomainValidator(t *testing.T) {
	resolver := &stubMXResolver{records: map[string][]*net.MX{
		"x.com": {{Host: "mx.x.com.", Pref: 10}},
	}}
	v := NewMXDomainValidator(resolver, time.Second, nil)
	ctx := context.Background()

	if err := v.Validate(ctx, "a@x.com"); err != nil {
		t.Fatalf("expected x.com accepted, got %v", err)
	}
	if err := v.Validate(ctx, "a@nomx.test"); !errors.Is(err, ErrEmailDomainInvalid) {
		t.Fatalf("expected empty answer rejected, got %v", err)
	}
	if err := v.Validate(ctx, "no-at-sign"); !errors.Is(err, ErrEmailDomainInvalid) {
		t.Fatalf("expected malformed rejected, got %v", err)
	}
	if len(resolver.calls) != 2 {
		t.Fatalf("expected malformed address to skip lookup, calls=%v", resolver.calls)
	}
}

func TestMXDomainValidatorTreatsLookupErrorAsInvalid(t *testing.T) {
	v := NewMXDomainValidator(&stubMXResolver{err: &net.DNSError{Err: "no such host", IsNotFound: true}}, time.Second, nil)
	if err := v.Validate(context.Background(), "a@gone.test"); !errors.Is(err, ErrEmailDomainInvalid) {
		t.Fatalf("expected ErrEmailDomainInvalid, got %v", err)
	}
}
