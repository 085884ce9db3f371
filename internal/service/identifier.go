package service

import (
	"regexp"
	"strings"
)

type IdentifierKind string

const (
	IdentifierEmail IdentifierKind = "email"
	IdentifierPhone IdentifierKind = "phone"
)

// EmailPattern is the single email rule shared by registration and the
// identifier classifier, so any address that registers can sign in.
var EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]+$`)

var (
	identifierEmailRe = EmailPattern
	identifierPhoneRe = regexp.MustCompile(`^\d{10,}$`)
)

// ClassifyIdentifier tries the email pattern before the phone pattern.
// Emails are returned lowercased.
func ClassifyIdentifier(raw string) (IdentifierKind, string, error) {
	v := strings.TrimSpace(raw)
	switch {
	case identifierEmailRe.MatchString(v):
		return IdentifierEmail, strings.ToLower(v), nil
	case identifierPhoneRe.MatchString(v):
		return IdentifierPhone, v, nil
	default:
		return "", "", ErrInvalidIdentifier
	}
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
