package service

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Abcd123!", wantErr: false},
		{name: "valid_long", password: "Valid#Pass1234", wantErr: false},
		{name: "too_short", password: "Ab1#xyz", wantErr: true},
		{name: "missing_upper", password: "valid#pass1234", wantErr: true},
		{name: "missing_digit", password: "Valid#Password", wantErr: true},
		{name: "missing_special", password: "ValidPass1234", wantErr: true},
		{name: "too_long", password: "A1#" + strings.Repeat("x", 70), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if tc.wantErr && !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("expected ErrWeakPassword, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
