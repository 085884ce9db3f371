package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/http/response"
	"github.com/sandeepkv93/account-onboarding-service/internal/service"
)

const msgRequired = "required"

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads a single JSON object into dst. An empty body decodes to
// the zero value so that required-field rules report the problem.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errMalformedBody
	}
	return nil
}

func writeMalformed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body", nil)
}

// fieldErrors flattens ozzo validation errors into field -> message.
func fieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}

// onlyMissing reports whether every field error is a required-rule failure.
func onlyMissing(fields map[string]string) bool {
	for _, msg := range fields {
		if msg != msgRequired {
			return false
		}
	}
	return len(fields) > 0
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMetaFromHTTP(r)
}

// deviceInfoBody is the optional client-supplied device descriptor. Every
// field may be null.
type deviceInfoBody struct {
	DeviceName  *string       `json:"deviceName"`
	BrowserName *string       `json:"browserName"`
	IP          *string       `json:"ip"`
	Location    *locationBody `json:"location"`
	UserAgent   *string       `json:"userAgent"`
}

type locationBody struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
	Region  string   `json:"region"`
	Country string   `json:"country"`
}

func (b *deviceInfoBody) toDomain() *domain.DeviceInfo {
	if b == nil {
		return nil
	}
	d := &domain.DeviceInfo{
		DeviceName:  deref(b.DeviceName),
		BrowserName: deref(b.BrowserName),
		IP:          deref(b.IP),
		UserAgent:   deref(b.UserAgent),
	}
	if b.Location != nil {
		d.Location = &domain.Location{
			Lat:     b.Location.Lat,
			Lon:     b.Location.Lon,
			City:    strings.TrimSpace(b.Location.City),
			Region:  strings.TrimSpace(b.Location.Region),
			Country: strings.TrimSpace(b.Location.Country),
		}
	}
	return d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// writeCooldown answers a throttled request. It reports false when err is not
// a cooldown.
func writeCooldown(w http.ResponseWriter, r *http.Request, err error) bool {
	retry, ok := service.RetryAfter(err)
	if !ok {
		return false
	}
	response.RetryAfter(w, retry)
	response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, please try again later", map[string]any{
		"retryAfterSeconds": max(int(retry.Round(time.Second).Seconds()), 1),
	})
	return true
}

func writeInternal(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong", nil)
}
