package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sandeepkv93/account-onboarding-service/internal/http/middleware"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/response"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/security"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

type signInRequest struct {
	Identifier string          `json:"identifier"`
	Password   string          `json:"password"`
	DeviceInfo *deviceInfoBody `json:"deviceInfo"`
}

func (r signInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required.Error(msgRequired)),
		validation.Field(&r.Password, validation.Required.Error(msgRequired)),
	)
}

type AuthHandler struct {
	svc       service.SignInServiceInterface
	cookieMgr *security.CookieManager
	logger    *slog.Logger
}

func NewAuthHandler(svc service.SignInServiceInterface, cookieMgr *security.CookieManager, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{svc: svc, cookieMgr: cookieMgr, logger: logger}
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "signin", status, time.Since(start))
	}()

	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeMalformed(w, r)
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		signInFailure(w, r, http.StatusBadRequest, "BAD_REQUEST", "All fields are required")
		return
	}

	result, err := h.svc.SignIn(r.Context(), service.SignInInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		Device:     req.DeviceInfo.toDomain(),
		Meta:       requestMeta(r),
	})
	if err != nil {
		status = "failure"
		h.writeSignInError(w, r, err)
		return
	}

	ttl := time.Until(result.Session.ExpiresAt)
	h.cookieMgr.SetSessionCookie(w, result.Session.Token, ttl)
	observability.EmitAudit(r, observability.AuditInput{
		EventName:      "auth.signin",
		ActorAccountID: result.Account.ID,
		TargetType:     "login_record",
		TargetID:       result.LoginRecordID,
		Action:         "signin",
		Outcome:        "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":       "Login successful",
		"success":       true,
		"loginRecordId": result.LoginRecordID,
		"loginToken":    result.LoginToken,
	})
}

func (h *AuthHandler) writeSignInError(w http.ResponseWriter, r *http.Request, err error) {
	reason := "invalid_credentials"
	defer func() {
		observability.EmitAudit(r, observability.AuditInput{
			EventName:  "auth.signin",
			TargetType: "account",
			Action:     "signin",
			Outcome:    "rejected",
			Reason:     reason,
		})
	}()

	var unverified *service.UnverifiedEmailError
	switch {
	case writeCooldown(w, r, err):
		reason = "throttled"
	case errors.As(err, &unverified):
		reason = "email_unverified"
		response.Error(w, r, http.StatusOK, "EMAIL_UNVERIFIED", "Email registered but password not set", map[string]any{
			"email": unverified.Email,
		})
	case errors.Is(err, service.ErrMissingFields):
		reason = "missing_fields"
		signInFailure(w, r, http.StatusBadRequest, "BAD_REQUEST", "All fields are required")
	case errors.Is(err, service.ErrAccountSuspended):
		reason = "suspended"
		signInFailure(w, r, http.StatusForbidden, "ACCOUNT_SUSPENDED", "Your account has been suspended")
	case errors.Is(err, service.ErrAccountTerminated):
		reason = "terminated"
		signInFailure(w, r, http.StatusForbidden, "ACCOUNT_TERMINATED", "Your account has been terminated")
	case errors.Is(err, service.ErrPasswordNotSet):
		reason = "password_not_set"
		signInFailure(w, r, http.StatusUnauthorized, "PASSWORD_NOT_SET", "Password not set for this account")
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionRejected):
		signInFailure(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	default:
		reason = "error"
		h.logger.ErrorContext(r.Context(), "sign in failed", "component", "auth_handler", "error", err.Error())
		signInFailure(w, r, http.StatusInternalServerError, "INTERNAL", "Authentication failed")
	}
}

// signInFailure keeps the message/success fields that sign-in clients read
// alongside the standard error envelope.
func signInFailure(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response.Error(w, r, status, code, message, map[string]any{"message": message, "success": false})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "signout", "success", time.Since(start))
	}()

	if raw := middleware.SessionTokenFromContext(r.Context()); raw != "" {
		h.svc.SignOut(r.Context(), raw)
	}
	h.cookieMgr.ClearSessionCookie(w)
	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "auth.signout",
		TargetType: "session",
		Action:     "signout",
		Outcome:    "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CurrentSession(r.Context(), middleware.SessionTokenFromContext(r.Context()))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "session lookup failed", "component", "auth_handler", "error", err.Error())
		response.JSON(w, r, http.StatusOK, map[string]any{"success": false, "user": nil, "error": "Failed to fetch session"})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"success": true, "user": user})
}
