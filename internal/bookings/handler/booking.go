package handler

import (
	"encoding/json"
	"net/http"

	"bizqueue/internal/bookings/service"
	"bizqueue/pkg/auth"
	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	principal := auth.FromContext(r.Context())
	booking, created, err := h.service.Create(r.Context(), principal, &req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if !created {
		w.Header().Set(ReplayedHeader, "true")
		if err := httputil.WriteSuccess(w, booking); err != nil {
			h.log.Error("failed to write success response", "handler", "Create", "operation", "WriteSuccess", "error", err)
		}
		return
	}
	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	h.writeTransition(w, "Cancel", booking, err)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Confirm(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	h.writeTransition(w, "Confirm", booking, err)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Complete(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	h.writeTransition(w, "Complete", booking, err)
}

func (h *BookingHandler) writeTransition(w http.ResponseWriter, name string, booking *model.Booking, err error) {
	if err != nil {
		h.writeError(w, name, err)
		return
	}
	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	bookings, total, err := h.service.ListForUser(r.Context(), auth.FromContext(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListForBusiness(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListForBusiness", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{EmployeeID: query.Get("employee_id")}
	if s := query.Get("status"); s != "" {
		status, ok := model.ParseBookingStatus(s)
		if !ok {
			h.writeError(w, "ListForBusiness", apperrors.InvalidInput("invalid status parameter: "+s))
			return
		}
		filter.Status = &status
	}

	bookings, total, err := h.service.ListForBusiness(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), filter, limit, offset)
	if err != nil {
		h.writeError(w, "ListForBusiness", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListForBusiness", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/my", h.ListMine)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.PATCH("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.PATCH("/api/v1/bookings/id/:id/complete", h.Complete)
	router.GET("/api/v1/businesses/:id/bookings", h.ListForBusiness)
}
