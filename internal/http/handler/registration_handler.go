package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/response"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

const msgInvalidEmail = "must be a valid email address"

type registerRequest struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"businessName"`
	TaxID        string `json:"taxId"`
	GSTIN        string `json:"gstin"`
}

func (r registerRequest) ValidateKind() error {
	return validation.Validate(strings.TrimSpace(r.Kind),
		validation.Required.Error("Invalid kind"),
		validation.In(string(domain.AccountKindIndividual), string(domain.AccountKindBusiness)).Error("Invalid kind"),
	)
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error(msgRequired)),
		validation.Field(&r.Email,
			validation.Required.Error(msgRequired),
			is.Email.Error(msgInvalidEmail),
			validation.Match(service.EmailPattern).Error(msgInvalidEmail),
		),
		validation.Field(&r.Phone, validation.Required.Error(msgRequired)),
	)
}

func (r registerRequest) toNewAccount() service.NewAccount {
	taxID := r.TaxID
	if taxID == "" {
		taxID = r.GSTIN
	}
	return service.NewAccount{
		Kind:         domain.AccountKind(strings.TrimSpace(r.Kind)),
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		BusinessName: r.BusinessName,
		TaxID:        taxID,
	}
}

type resendRequest struct {
	Email string `json:"email"`
}

func (r resendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(msgRequired)),
	)
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

func (r forgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required.Error(msgRequired)),
	)
}

type RegistrationHandler struct {
	svc    service.RegistrationServiceInterface
	logger *slog.Logger
}

func NewRegistrationHandler(svc service.RegistrationServiceInterface, logger *slog.Logger) *RegistrationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationHandler{svc: svc, logger: logger}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeMalformed(w, r)
		return
	}
	if err := req.ValidateKind(); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid kind", nil)
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		fields := fieldErrors(err)
		msg := "Invalid registration details"
		if onlyMissing(fields) {
			msg = "Missing fields for " + strings.ToLower(strings.TrimSpace(req.Kind))
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msg, map[string]any{"fields": fields})
		return
	}

	account, err := h.svc.Register(r.Context(), req.toNewAccount())
	if err != nil {
		status = "failure"
		h.writeRegisterError(w, r, req, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:      "account.registered",
		ActorAccountID: account.ID,
		TargetType:     "account",
		TargetID:       account.ID,
		Action:         "register",
		Outcome:        "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "user": account})
}

func (h *RegistrationHandler) writeRegisterError(w http.ResponseWriter, r *http.Request, req registerRequest, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAccountKind):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid kind", nil)
	case errors.Is(err, service.ErrMissingFields):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing fields for "+strings.ToLower(strings.TrimSpace(req.Kind)), nil)
	case errors.Is(err, service.ErrPhoneInUse):
		response.Error(w, r, http.StatusConflict, "PHONE_IN_USE", "Phone number already in use", nil)
	case errors.Is(err, service.ErrEmailExists):
		response.Error(w, r, http.StatusConflict, "EMAIL_EXISTS", "Account with this email already exists", nil)
	case errors.Is(err, service.ErrEmailUnverified):
		response.Error(w, r, http.StatusOK, "EMAIL_UNVERIFIED", "Email registered but password not set", nil)
	case errors.Is(err, service.ErrEmailDomainInvalid):
		response.Error(w, r, http.StatusBadRequest, "EMAIL_DOMAIN_INVALID", "Email domain appears invalid or has no MX records", nil)
	default:
		h.logger.ErrorContext(r.Context(), "registration failed", "component", "registration_handler", "error", err.Error())
		writeInternal(w, r)
	}
}

func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register_resend", status, time.Since(start))
	}()

	var req resendRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeMalformed(w, r)
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing email", nil)
		return
	}
	if err := h.svc.Resend(r.Context(), req.Email, requestMeta(r)); err != nil {
		status = "failure"
		if writeCooldown(w, r, err) {
			return
		}
		if errors.Is(err, service.ErrMissingFields) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing email", nil)
			return
		}
		h.logger.ErrorContext(r.Context(), "resend failed", "component", "registration_handler", "error", err.Error())
		writeInternal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (h *RegistrationHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", status, time.Since(start))
	}()

	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "failure"
		writeMalformed(w, r)
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Identifier is required", nil)
		return
	}
	err := h.svc.ForgotPassword(r.Context(), req.Identifier, requestMeta(r))
	switch {
	case err == nil:
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": true})
	case writeCooldown(w, r, err):
		status = "failure"
	case errors.Is(err, service.ErrMissingFields):
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Identifier is required", nil)
	case errors.Is(err, service.ErrInvalidIdentifier):
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Please provide a valid email or phone", nil)
	default:
		status = "failure"
		h.logger.ErrorContext(r.Context(), "forgot password failed", "component", "registration_handler", "error", err.Error())
		writeInternal(w, r)
	}
}
