package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/models"
)

type LocationHandler struct {
	dir      location.Directory
	resolver *location.Resolver
	detector Detector
}

func NewLocationHandler(dir location.Directory, r *location.Resolver, d Detector) *LocationHandler {
	return &LocationHandler{dir: dir, resolver: r, detector: d}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *LocationHandler) GetRegions(c *gin.Context) {
	regions, err := h.dir.Regions(c.Request.Context())
	if err != nil {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(regions))
}

func (h *LocationHandler) GetCities(c *gin.Context) {
	var q struct {
		RegionID int `form:"region_id" binding:"required,min=1"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput("region_id is required"))
		return
	}
	cities, err := h.dir.Cities(c.Request.Context(), q.RegionID)
	if err != nil {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(cities))
}

func (h *LocationHandler) GetDistricts(c *gin.Context) {
	var q struct {
		CityID int `form:"city_id" binding:"required,min=1"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput("city_id is required"))
		return
	}
	districts, err := h.dir.Districts(c.Request.Context(), q.CityID)
	if err != nil {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(districts))
}

func (h *LocationHandler) GetBarangays(c *gin.Context) {
	var q struct {
		CityID     int `form:"city_id" binding:"required,min=1"`
		DistrictID int `form:"district_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput("city_id is required"))
		return
	}
	barangays, err := h.dir.Barangays(c.Request.Context(), q.CityID, q.DistrictID)
	if err != nil {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(barangays))
}

type resolveResponse struct {
	Hints     location.Hints           `json:"hints"`
	Selection models.LocationSelection `json:"selection"`
	Depth     string                   `json:"depth"`
}

// Resolve maps free-text hints to the deepest consistent selection. A
// partial answer is still a 200.
func (h *LocationHandler) Resolve(c *gin.Context) {
	var hints location.Hints
	if err := c.ShouldBindQuery(&hints); err != nil || hints.Empty() {
		apperr.Respond(c, apperr.NewInvalidInput("at least one of region, city or barangay is required"))
		return
	}
	h.respondResolved(c, hints)
}

type detectRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// Detect reverse-geocodes the caller's coordinate, falling back to its IP
// address, and resolves the result.
func (h *LocationHandler) Detect(c *gin.Context) {
	if h.detector == nil {
		apperr.Respond(c, apperr.New(apperr.Upstream, "Location detection is not configured", nil))
		return
	}
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	hints, err := h.detector.Detect(c.Request.Context(), req.Latitude, req.Longitude, c.ClientIP())
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Upstream, "Could not detect your location. Please select manually.", err))
		return
	}
	h.respondResolved(c, hints)
}

func (h *LocationHandler) respondResolved(c *gin.Context, hints location.Hints) {
	sel, err := h.resolver.Resolve(c.Request.Context(), hints)
	if err != nil && sel.IsZero() {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, resolveResponse{Hints: hints, Selection: sel, Depth: sel.Depth()})
}
