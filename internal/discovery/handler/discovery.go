package handler

import (
	"math"
	"net/http"

	"bizqueue/internal/discovery/service"
	"bizqueue/internal/geoindex"
	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"
	"bizqueue/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type RadiusLimits struct {
	DefaultKm float64
	MaxKm     float64
}

type DiscoveryHandler struct {
	service service.DiscoveryService
	radius  RadiusLimits
	log     *logger.Logger
}

func NewDiscoveryHandler(service service.DiscoveryService, radius RadiusLimits, log *logger.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		service: service,
		radius:  radius,
		log:     log,
	}
}

func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items, total, err := h.service.Discover(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WritePaginated(w, items, total, q.Limit, q.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Discover", "operation", "WritePaginated", "error", err)
	}
}

func (h *DiscoveryHandler) parseQuery(r *http.Request) (geoindex.Query, error) {
	var q geoindex.Query

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return q, err
	}
	q.Limit, q.Offset = limit, offset

	lat, err := httputil.ExtractOptionalFloat(r, "lat")
	if err != nil {
		return q, err
	}
	lon, err := httputil.ExtractOptionalFloat(r, "lon")
	if err != nil {
		return q, err
	}
	if (lat == nil) != (lon == nil) {
		return q, apperrors.InvalidInput("lat and lon must be given together")
	}
	if lat != nil {
		if !finite(*lat) || *lat < -90 || *lat > 90 {
			return q, apperrors.InvalidInput("lat must be between -90 and 90")
		}
		if !finite(*lon) || *lon < -180 || *lon > 180 {
			return q, apperrors.InvalidInput("lon must be between -180 and 180")
		}
		q.Center = &model.Point{Lat: *lat, Lon: *lon}
	}

	radius, err := httputil.ExtractOptionalFloat(r, "radius_km")
	if err != nil {
		return q, err
	}
	q.RadiusKm = h.radius.DefaultKm
	if radius != nil {
		if !finite(*radius) {
			return q, apperrors.InvalidInput("radius_km must be a finite number")
		}
		q.RadiusKm = min(*radius, h.radius.MaxKm)
	}

	query := r.URL.Query()
	if s := query.Get("type"); s != "" {
		t, ok := model.ParseBusinessType(s)
		if !ok {
			return q, apperrors.InvalidInput("unknown business type: " + s)
		}
		q.Filter.Type = &t
	}
	q.Filter.Text = sanitizer.NormalizeSearch(query.Get("search"))

	order, ok := geoindex.ParseOrder(query.Get("order"))
	if !ok {
		return q, apperrors.InvalidInput("order must be one of: distance, name")
	}
	q.Order = order

	return q, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (h *DiscoveryHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Discover", "operation", "WriteError", "error", writeErr)
	}
}

func (h *DiscoveryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/discover", h.Discover)
}
