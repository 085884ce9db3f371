package service

import (
	"context"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
)

type RegistrationServiceInterface interface {
	Register(ctx context.Context, in NewAccount) (*domain.Account, error)
	Resend(ctx context.Context, email string, meta RequestMeta) error
	ForgotPassword(ctx context.Context, identifier string, meta RequestMeta) error
}

type BootstrapServiceInterface interface {
	Verify(ctx context.Context, raw string) error
	SetPassword(ctx context.Context, in SetPasswordInput) (string, error)
}

type SignInServiceInterface interface {
	SignIn(ctx context.Context, in SignInInput) (*SignInResult, error)
	SignOut(ctx context.Context, sessionToken string)
	CurrentSession(ctx context.Context, sessionToken string) (*SessionUser, error)
}
