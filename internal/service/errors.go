package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAccountKind = errors.New("invalid kind")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidIdentifier  = errors.New("please provide a valid email or phone")
	ErrPhoneInUse         = errors.New("phone number already in use")
	ErrEmailExists        = errors.New("account with this email already exists")
	ErrEmailUnverified    = errors.New("email registered but password not set")
	ErrEmailDomainInvalid = errors.New("email domain appears invalid or has no MX records")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountSuspended   = errors.New("your account has been suspended")
	ErrAccountTerminated  = errors.New("your account has been terminated")
	ErrPasswordNotSet     = errors.New("password not set for this account")
	ErrSessionRejected    = errors.New("session issuance rejected")
	ErrCooldownActive     = errors.New("too many attempts")
	ErrIDSpaceExhausted   = errors.New("could not allocate a unique account id")
)

// CooldownError reports an active abuse-guard cooldown. It matches
// ErrCooldownActive under errors.Is.
type CooldownError struct {
	Scope      AuthAbuseScope
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrCooldownActive.Error(), e.RetryAfter.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// UnverifiedEmailError carries the address a client should offer to resend
// to. It matches ErrEmailUnverified under errors.Is.
type UnverifiedEmailError struct {
	Email string
}

func (e *UnverifiedEmailError) Error() string { return ErrEmailUnverified.Error() }

func (e *UnverifiedEmailError) Is(target error) bool {
	return target == ErrEmailUnverified
}
