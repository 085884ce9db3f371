package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

type stubRegistrationService struct {
	registerFn func(ctx context.Context, in service.NewAccount) (*domain.Account, error)
	resendFn   func(ctx context.Context, email string, meta service.RequestMeta) error
	forgotFn   func(ctx context.Context, identifier string, meta service.RequestMeta) error
}

func (s *stubRegistrationService) Register(ctx context.Context, in service.NewAccount) (*domain.Account, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, in)
	}
	return &domain.Account{ID: "IND202600001", Kind: in.Kind, Name: in.Name, Email: in.Email, Phone: in.Phone}, nil
}

func (s *stubRegistrationService) Resend(ctx context.Context, email string, meta service.RequestMeta) error {
	if s.resendFn != nil {
		return s.resendFn(ctx, email, meta)
	}
	return nil
}

func (s *stubRegistrationService) ForgotPassword(ctx context.Context, identifier string, meta service.RequestMeta) error {
	if s.forgotFn != nil {
		return s.forgotFn(ctx, identifier, meta)
	}
	return nil
}

type stubBootstrapService struct {
	verifyFn func(ctx context.Context, raw string) error
	setFn    func(ctx context.Context, in service.SetPasswordInput) (string, error)
}

func (s *stubBootstrapService) Verify(ctx context.Context, raw string) error {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, raw)
	}
	return nil
}

func (s *stubBootstrapService) SetPassword(ctx context.Context, in service.SetPasswordInput) (string, error) {
	if s.setFn != nil {
		return s.setFn(ctx, in)
	}
	return "IND200000001", nil
}

type stubSignInService struct {
	signInFn  func(ctx context.Context, in service.SignInInput) (*service.SignInResult, error)
	sessionFn func(ctx context.Context, token string) (*service.SessionUser, error)
	signedOut []string
}

func (s *stubSignInService) SignIn(ctx context.Context, in service.SignInInput) (*service.SignInResult, error) {
	if s.signInFn != nil {
		return s.signInFn(ctx, in)
	}
	return nil, service.ErrInvalidCredentials
}

func (s *stubSignInService) SignOut(_ context.Context, token string) {
	s.signedOut = append(s.signedOut, token)
}

func (s *stubSignInService) CurrentSession(ctx context.Context, token string) (*service.SessionUser, error) {
	if s.sessionFn != nil {
		return s.sessionFn(ctx, token)
	}
	return nil, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:4000"
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code, message string) map[string]any {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status=%d want %d body=%s", rr.Code, status, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["ok"] != false {
		t.Fatalf("expected ok=false, got %v", body["ok"])
	}
	if code != "" && body["code"] != code {
		t.Fatalf("code=%v want %s", body["code"], code)
	}
	if body["error"] != message {
		t.Fatalf("error=%q want %q", body["error"], message)
	}
	return body
}
