package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// GeoLocator resolves an IP to a coarse location. It never fails; a nil
// location means unknown.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) *domain.Location
}

type NoopGeoLocator struct{}

func NewNoopGeoLocator() *NoopGeoLocator {
	return &NoopGeoLocator{}
}

func (NoopGeoLocator) Locate(context.Context, string) *domain.Location { return nil }

type HTTPGeoLocatorConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// HTTPGeoLocator queries an ipapi.co compatible endpoint. Concurrent lookups
// for one IP share a single upstream request.
type HTTPGeoLocator struct {
	client   *http.Client
	baseURL  string
	timeout  time.Duration
	cache    GeoCacheStore
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

func NewHTTPGeoLocator(cfg HTTPGeoLocatorConfig, cache GeoCacheStore, logger *slog.Logger) *HTTPGeoLocator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cache == nil {
		cache = NewNoopGeoCacheStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGeoLocator{
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

type ipapiResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

func (g *HTTPGeoLocator) Locate(ctx context.Context, ip string) *domain.Location {
	ip = strings.TrimSpace(ip)
	if !publicIP(ip) {
		observability.RecordGeoLookupEvent(ctx, "skip", "non_public")
		return nil
	}
	if payload, ok, err := g.cache.Get(ctx, ip); err != nil {
		g.logger.WarnContext(ctx, "geo cache read failed", "component", "geo", "error", err.Error())
	} else if ok {
		var loc domain.Location
		if json.Unmarshal(payload, &loc) == nil {
			observability.RecordGeoLookupEvent(ctx, "cache", "hit")
			return &loc
		}
	}

	v, _, _ := g.group.Do(ip, func() (any, error) {
		return g.fetch(ctx, ip), nil
	})
	loc, _ := v.(*domain.Location)
	if loc == nil {
		return nil
	}
	cp := *loc
	return &cp
}

func (g *HTTPGeoLocator) fetch(ctx context.Context, ip string) *domain.Location {
	start := time.Now()
	outcome := "success"
	defer func() {
		observability.RecordGeoLookupEvent(ctx, "upstream", outcome)
		observability.RecordGeoLookupDuration(ctx, outcome, time.Since(start))
	}()

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	endpoint := fmt.Sprintf("%s/%s/json/", g.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		outcome = "error"
		return nil
	}
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		outcome = "error"
		g.logger.InfoContext(ctx, "geo lookup failed", "component", "geo", "error", err.Error())
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		outcome = "http_" + fmt.Sprint(resp.StatusCode)
		return nil
	}
	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error {
		outcome = "invalid"
		return nil
	}
	loc := &domain.Location{
		Lat:     body.Latitude,
		Lon:     body.Longitude,
		City:    body.City,
		Region:  body.Region,
		Country: body.CountryName,
	}
	if loc.Empty() {
		outcome = "empty"
		return nil
	}
	if payload, err := json.Marshal(loc); err == nil {
		if err := g.cache.Set(ctx, ip, payload, g.cacheTTL); err != nil {
			g.logger.WarnContext(ctx, "geo cache write failed", "component", "geo", "error", err.Error())
		}
	}
	return loc
}

func publicIP(v string) bool {
	ip := net.ParseIP(v)
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}
