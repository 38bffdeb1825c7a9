package handler

import (
	"encoding/json"
	"net/http"

	"bizqueue/internal/availability/service"
	"bizqueue/pkg/auth"
	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type StatusHandler struct {
	service service.StatusService
	log     *logger.Logger
}

func NewStatusHandler(service service.StatusService, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		log:     log,
	}
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	status, err := h.service.Get(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, model.NewStatusView(status)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) Publish(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var update model.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PublishStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	status, err := h.service.Publish(r.Context(), auth.FromContext(r.Context()), id, &update)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PublishStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "PublishStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/businesses/:id/status", h.Get)
	router.PUT("/api/v1/businesses/:id/status", h.Publish)
}
