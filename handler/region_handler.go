package handler

import (
	"net/http"

	"commerce-hub/domain"
	"commerce-hub/middleware"

	"github.com/labstack/echo/v4"
)

// RegionHandler reports the region resolved for the current request, used by
// the storefront shell to label prices and shipping.
type RegionHandler struct{}

// NewRegionHandler creates a new region handler.
func NewRegionHandler() *RegionHandler {
	return &RegionHandler{}
}

// Handle processes GET /:countryCode.
func (h *RegionHandler) Handle(c echo.Context) error {
	locale, ok := middleware.LocaleFromContext(c)
	if !ok {
		locale = domain.LocaleContext{CountryCode: domain.DefaultCountryCode, Source: domain.SourceDefault}
	}

	region, found := domain.LookupRegion(locale.CountryCode)
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown region")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"countryCode": region.Code,
		"region":      region.Name,
		"source":      string(locale.Source),
	})
}
