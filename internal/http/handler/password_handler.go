package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sandeepkv93/account-onboarding-service/internal/http/response"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (r verifyTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error(msgRequired)),
	)
}

type setPasswordRequest struct {
	Token      string          `json:"token"`
	Password   string          `json:"password"`
	DeviceInfo *deviceInfoBody `json:"deviceInfo"`
}

func (r setPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error(msgRequired)),
		validation.Field(&r.Password, validation.Required.Error(msgRequired)),
	)
}

// PasswordHandler serves the bootstrap endpoints that redeem set-password
// links.
type PasswordHandler struct {
	svc    service.BootstrapServiceInterface
	logger *slog.Logger
}

func NewPasswordHandler(svc service.BootstrapServiceInterface, logger *slog.Logger) *PasswordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordHandler{svc: svc, logger: logger}
}

func (h *PasswordHandler) Verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "set_password_verify", status, time.Since(start))
	}()

	var req verifyTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		response.JSON(w, r, http.StatusBadRequest, map[string]any{"valid": false, "error": "Missing token"})
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.JSON(w, r, http.StatusBadRequest, map[string]any{"valid": false, "error": "Missing token"})
		return
	}
	if err := h.svc.Verify(r.Context(), req.Token); err != nil {
		status = "failure"
		if !errors.Is(err, service.ErrInvalidToken) && !errors.Is(err, service.ErrMissingFields) {
			h.logger.ErrorContext(r.Context(), "verify token failed", "component", "password_handler", "error", err.Error())
			response.JSON(w, r, http.StatusInternalServerError, map[string]any{"valid": false, "error": "Something went wrong"})
			return
		}
		response.JSON(w, r, http.StatusBadRequest, map[string]any{"valid": false, "error": "Invalid or expired token"})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"valid": true})
}

func (h *PasswordHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "set_password", status, time.Since(start))
	}()

	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeMalformed(w, r)
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing", map[string]any{"fields": fieldErrors(err)})
		return
	}

	accountID, err := h.svc.SetPassword(r.Context(), service.SetPasswordInput{
		Token:    req.Token,
		Password: req.Password,
		Device:   req.DeviceInfo.toDomain(),
		Meta:     requestMeta(r),
	})
	if err != nil {
		status = "failure"
		switch {
		case writeCooldown(w, r, err):
		case errors.Is(err, service.ErrMissingFields):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing", nil)
		case errors.Is(err, service.ErrInvalidToken):
			observability.EmitAudit(r, observability.AuditInput{
				EventName:  "account.password.set",
				TargetType: "credential_token",
				Action:     "set_password",
				Outcome:    "rejected",
				Reason:     "invalid_token",
			})
			response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired token", nil)
		case errors.Is(err, service.ErrWeakPassword):
			response.Error(w, r, http.StatusBadRequest, "WEAK_PASSWORD",
				"Password must be at least 8 characters and include an uppercase letter, a number and a special character", nil)
		default:
			h.logger.ErrorContext(r.Context(), "set password failed", "component", "password_handler", "error", err.Error())
			writeInternal(w, r)
		}
		return
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:      "account.password.set",
		ActorAccountID: accountID,
		TargetType:     "account",
		TargetID:       accountID,
		Action:         "set_password",
		Outcome:        "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
