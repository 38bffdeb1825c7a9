package handler

import (
	"net/http"

	"bizqueue/internal/catalog/service"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type BusinessHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewBusinessHandler(service service.CatalogService, log *logger.Logger) *BusinessHandler {
	return &BusinessHandler{
		service: service,
		log:     log,
	}
}

func (h *BusinessHandler) GetDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	details, err := h.service.GetDetails(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetDetails", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, details); err != nil {
		h.log.Error("failed to write success response", "handler", "GetDetails", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BusinessHandler) ListServices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	services, err := h.service.ListActiveServices(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListServices", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, services); err != nil {
		h.log.Error("failed to write success response", "handler", "ListServices", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BusinessHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/businesses/:id", h.GetDetails)
	router.GET("/api/v1/businesses/:id/services", h.ListServices)
}
