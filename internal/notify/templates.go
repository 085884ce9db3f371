package notify

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// TokenExpiryText is rendered into set-password links. Config validation
// pins AUTH_TOKEN_TTL to the same hour.
const TokenExpiryText = "1 hour"

const (
	SubjectRegistration    = "Complete your registration"
	SubjectResend          = "Your password set link (resend)"
	SubjectPasswordReset   = "Password reset request"
	SubjectPasswordChanged = "New password set for your account"
	SubjectLoginAlert      = "New sign-in to your account"
)

type embedLoader struct{}

func (embedLoader) Abs(_, name string) string {
	return path.Join("templates", path.Base(name))
}

func (embedLoader) Get(p string) (io.Reader, error) {
	b, err := templateFS.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

type Templates struct {
	appName         string
	setPassword     *pongo2.Template
	passwordChanged *pongo2.Template
	loginAlert      *pongo2.Template
}

func NewTemplates(appName string) (*Templates, error) {
	set := pongo2.NewSet("notify", embedLoader{})
	t := &Templates{appName: appName}
	for name, dst := range map[string]**pongo2.Template{
		"set_password.html":     &t.setPassword,
		"password_changed.html": &t.passwordChanged,
		"login_alert.html":      &t.loginAlert,
	} {
		tpl, err := set.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		*dst = tpl
	}
	return t, nil
}

func (t *Templates) SetPasswordLink(name, url string) (string, error) {
	return t.setPassword.Execute(pongo2.Context{
		"app_name":   t.appName,
		"name":       name,
		"url":        url,
		"expires_in": TokenExpiryText,
	})
}

func (t *Templates) PasswordChanged(email string, device *domain.DeviceInfo) (string, error) {
	return t.passwordChanged.Execute(pongo2.Context{
		"app_name":    t.appName,
		"email":       email,
		"device_rows": DeviceRows(device),
	})
}

func (t *Templates) LoginAlert(email string, when time.Time, device *domain.DeviceInfo) (string, error) {
	return t.loginAlert.Execute(pongo2.Context{
		"app_name":    t.appName,
		"email":       email,
		"when":        FormatOrdinalDate(when),
		"device_rows": DeviceRows(device),
	})
}

type DeviceRow struct {
	Label string
	Value string
}

// DeviceRows lists the populated device fields. Values are escaped by the
// template engine.
func DeviceRows(d *domain.DeviceInfo) []DeviceRow {
	if d == nil {
		return nil
	}
	var rows []DeviceRow
	if d.DeviceName != "" {
		rows = append(rows, DeviceRow{Label: "Device", Value: d.DeviceName})
	}
	if d.BrowserName != "" {
		rows = append(rows, DeviceRow{Label: "Browser", Value: d.BrowserName})
	}
	if d.IP != "" {
		rows = append(rows, DeviceRow{Label: "IP", Value: d.IP})
	}
	if d.Location != nil {
		rows = append(rows, DeviceRow{Label: "Location", Value: FormatLocation(d.Location)})
	}
	if d.UserAgent != "" {
		rows = append(rows, DeviceRow{Label: "User Agent", Value: d.UserAgent})
	}
	return rows
}

// FormatLocation prefers a place name, then coordinates, then "Unknown".
func FormatLocation(l *domain.Location) string {
	if l == nil {
		return "Unknown"
	}
	var parts []string
	for _, p := range []string{l.City, l.Region, l.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if l.Lat != nil && l.Lon != nil {
		return "(" + strconv.FormatFloat(*l.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(*l.Lon, 'f', -1, 64) + ")"
	}
	return "Unknown"
}

// FormatOrdinalDate renders t in UTC as "1st March, 2025".
func FormatOrdinalDate(t time.Time) string {
	t = t.UTC()
	day := t.Day()
	return fmt.Sprintf("%d%s %s, %d", day, ordinalSuffix(day), t.Month().String(), t.Year())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
