package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"commerce-hub/domain"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LocaleContextKey is the echo context key holding the resolved locale.
const LocaleContextKey = "locale_context"

// GeoLocator resolves a caller address to a lowercase country code.
type GeoLocator interface {
	CountryCode(ctx context.Context, ip string) (string, error)
}

// RegionResolverConfig configures the region resolution middleware.
type RegionResolverConfig struct {
	// DefaultRegion is used when no other resolution source matches.
	DefaultRegion string
	// CookieTTL is the max-age for the region and cache-identity cookies.
	CookieTTL time.Duration
	// Geo performs the IP lookup. Lookup failures fall through to the
	// default region and are never surfaced to the caller.
	Geo GeoLocator
	// GeoTimeout bounds the lookup so a slow service cannot stall pages.
	GeoTimeout time.Duration
}

// RegionResolver determines the country context for every page request and
// redirects to the locale-prefixed path when missing. Static assets, API
// routes and checkout routes pass through untouched.
func RegionResolver(cfg RegionResolverConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			if isExemptPath(path) {
				return next(c)
			}

			_, regionErr := c.Cookie(domain.RegionCookieName)
			cacheCookie, cacheErr := c.Cookie(domain.CacheIDCookieName)

			cacheID := ""
			if cacheErr == nil {
				cacheID = cacheCookie.Value
			}
			if cacheID == "" {
				cacheID = uuid.NewString()
			}

			locale := resolveLocale(c, cfg)
			c.Set(LocaleContextKey, locale)

			if strings.EqualFold(firstSegment(path), locale.CountryCode) {
				// Path already localized; just make sure cookies exist.
				if regionErr != nil || cacheErr != nil {
					setRegionCookies(c, locale.CountryCode, cacheID, cfg.CookieTTL)
				}
				return next(c)
			}

			redirectPath := path
			if redirectPath == "/" {
				redirectPath = ""
			}
			query := c.Request().URL.RawQuery
			if query != "" {
				query = "?" + query
			}

			setRegionCookies(c, locale.CountryCode, cacheID, cfg.CookieTTL)
			target := c.Scheme() + "://" + c.Request().Host + "/" + locale.CountryCode + redirectPath + query
			return c.Redirect(http.StatusTemporaryRedirect, target)
		}
	}
}

// LocaleFromContext returns the locale resolved for this request, if any.
func LocaleFromContext(c echo.Context) (domain.LocaleContext, bool) {
	locale, ok := c.Get(LocaleContextKey).(domain.LocaleContext)
	return locale, ok
}

// resolveLocale applies the resolution priority: path segment, cookie,
// geo-IP, default. First match wins.
func resolveLocale(c echo.Context, cfg RegionResolverConfig) domain.LocaleContext {
	if code := firstSegment(c.Request().URL.Path); domain.IsSupportedCountry(code) {
		return domain.LocaleContext{CountryCode: strings.ToLower(code), Source: domain.SourcePath}
	}

	if cookie, err := c.Cookie(domain.RegionCookieName); err == nil && domain.IsSupportedCountry(cookie.Value) {
		return domain.LocaleContext{CountryCode: strings.ToLower(cookie.Value), Source: domain.SourceCookie}
	}

	if cfg.Geo != nil {
		ctx := c.Request().Context()
		if cfg.GeoTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.GeoTimeout)
			defer cancel()
		}

		code, err := cfg.Geo.CountryCode(ctx, c.RealIP())
		if err != nil {
			slog.DebugContext(c.Request().Context(), "geo-ip lookup failed", "error", err)
		} else if domain.IsSupportedCountry(code) {
			return domain.LocaleContext{CountryCode: code, Source: domain.SourceGeoIP}
		}
	}

	return domain.LocaleContext{CountryCode: cfg.DefaultRegion, Source: domain.SourceDefault}
}

// isExemptPath reports whether region resolution must be skipped: static
// assets, API routes, checkout routes and the health probe are never
// locale-prefixed.
func isExemptPath(path string) bool {
	if strings.Contains(path, ".") {
		return true
	}
	for _, prefix := range []string{"/images", "/assets", "/api", "/checkout", "/health"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func firstSegment(path string) string {
	segment := strings.TrimPrefix(path, "/")
	if i := strings.Index(segment, "/"); i >= 0 {
		segment = segment[:i]
	}
	return strings.ToLower(segment)
}

func setRegionCookies(c echo.Context, countryCode, cacheID string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	c.SetCookie(&http.Cookie{
		Name:   domain.RegionCookieName,
		Value:  countryCode,
		Path:   "/",
		MaxAge: maxAge,
	})
	c.SetCookie(&http.Cookie{
		Name:   domain.CacheIDCookieName,
		Value:  cacheID,
		Path:   "/",
		MaxAge: maxAge,
	})
}
