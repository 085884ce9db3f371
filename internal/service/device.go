package service

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
)

var (
	edgeRe      = regexp.MustCompile(`(?i)edg/`)
	operaRe     = regexp.MustCompile(`(?i)opr/|opera`)
	chromeRe    = regexp.MustCompile(`(?i)chrome|crios`)
	safariRe    = regexp.MustCompile(`(?i)safari`)
	notSafariRe = regexp.MustCompile(`(?i)chrome|crios|opr|edg`)
	firefoxRe   = regexp.MustCompile(`(?i)firefox|fxios`)
	ieRe        = regexp.MustCompile(`(?i)msie|trident`)
	mobileRe    = regexp.MustCompile(`(?i)mobi|android|iphone|ipad`)
	iphoneRe    = regexp.MustCompile(`(?i)iphone`)
	ipadRe      = regexp.MustCompile(`(?i)ipad`)
	androidRe   = regexp.MustCompile(`(?i)android`)
)

func DetectBrowser(ua string) string {
	switch {
	case edgeRe.MatchString(ua):
		return "Edge"
	case operaRe.MatchString(ua):
		return "Opera"
	case chromeRe.MatchString(ua):
		return "Chrome"
	case safariRe.MatchString(ua) && !notSafariRe.MatchString(ua):
		return "Safari"
	case firefoxRe.MatchString(ua):
		return "Firefox"
	case ieRe.MatchString(ua):
		return "Internet Explorer"
	default:
		return "Unknown"
	}
}

func DetectDevice(ua string) string {
	if !mobileRe.MatchString(ua) {
		return "Desktop"
	}
	switch {
	case iphoneRe.MatchString(ua):
		return "iPhone"
	case ipadRe.MatchString(ua):
		return "iPad"
	case androidRe.MatchString(ua):
		return "Android device"
	default:
		return "Mobile device"
	}
}

// RequestMeta is what the server itself observed about the client. IP is
// the descriptive address shown in the device descriptor. PeerIP is the
// connection address after the RealIP middleware and is the only address
// used for throttling.
type RequestMeta struct {
	IP        string
	PeerIP    string
	UserAgent string
}

// ThrottleIP is the address abuse guards key on.
func (m RequestMeta) ThrottleIP() string {
	if m.PeerIP != "" {
		return m.PeerIP
	}
	return m.IP
}

// RequestMetaFromHTTP reads the client IP from x-forwarded-for (first hop),
// x-real-ip or x-client-ip, in that order, falling back to the peer address.
func RequestMetaFromHTTP(r *http.Request) RequestMeta {
	meta := RequestMeta{UserAgent: r.UserAgent(), PeerIP: peerIP(r.RemoteAddr)}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		meta.IP = strings.TrimSpace(first)
	} else if v := strings.TrimSpace(r.Header.Get("X-Real-Ip")); v != "" {
		meta.IP = v
	} else if v := strings.TrimSpace(r.Header.Get("X-Client-Ip")); v != "" {
		meta.IP = v
	} else {
		meta.IP = meta.PeerIP
	}
	return meta
}

// peerIP accepts both host:port and the bare address RealIP writes.
func peerIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	if ip := net.ParseIP(strings.TrimSpace(remoteAddr)); ip != nil {
		return ip.String()
	}
	return ""
}

// DeviceResolver merges a client supplied descriptor with server
// observations, and enriches the location from the IP when absent.
type DeviceResolver struct {
	geo GeoLocator
}

func NewDeviceResolver(geo GeoLocator) *DeviceResolver {
	if geo == nil {
		geo = NewNoopGeoLocator()
	}
	return &DeviceResolver{geo: geo}
}

func (r *DeviceResolver) Resolve(ctx context.Context, client *domain.DeviceInfo, meta RequestMeta) *domain.DeviceInfo {
	out := domain.DeviceInfo{}
	if client != nil {
		out = *client
		out.DeviceName = strings.TrimSpace(out.DeviceName)
		out.BrowserName = strings.TrimSpace(out.BrowserName)
		out.IP = strings.TrimSpace(out.IP)
		out.UserAgent = strings.TrimSpace(out.UserAgent)
	}
	if out.UserAgent == "" {
		out.UserAgent = meta.UserAgent
	}
	if out.IP == "" {
		out.IP = meta.IP
	}
	if out.BrowserName == "" && out.UserAgent != "" {
		out.BrowserName = DetectBrowser(out.UserAgent)
	}
	if out.DeviceName == "" && out.UserAgent != "" {
		out.DeviceName = DetectDevice(out.UserAgent)
	}
	if out.Location.Empty() {
		out.Location = nil
		if out.IP != "" {
			out.Location = r.geo.Locate(ctx, out.IP)
		}
	}
	return &out
}
