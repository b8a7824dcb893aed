// Package http is the chi-based transport for the tracker application.
// Handlers decode and validate request DTOs, call the application, and map
// domain errors onto status codes; no business rules live here.
package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/upntrack/upn-server/internal/tracker_service/app"
)

// Handler serves the tracker HTTP API.
type Handler struct {
	app      *app.Application
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a Handler.
func NewHandler(application *app.Application, logger *slog.Logger, validate *validator.Validate) *Handler {
	return &Handler{
		app:      application,
		logger:   logger,
		validate: validate,
	}
}

// RegisterRoutes mounts all tracker routes on r. Callers mount this under
// /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/operators", h.CreateOperator)
	r.Get("/operators", h.ListOperators)
	r.Get("/operators/{operatorID}", h.GetOperator)
	r.Put("/operators/{operatorID}", h.UpdateOperator)
	r.Delete("/operators/{operatorID}", h.DeleteOperator)

	r.Post("/services", h.CreateService)
	r.Get("/services", h.ListServices)
	r.Get("/services/{serviceID}", h.GetService)
	r.Put("/services/{serviceID}", h.UpdateService)
	r.Delete("/services/{serviceID}", h.DeleteService)
	r.Get("/services/{serviceID}/phones", h.ServicePhoneBreakdown)

	r.Post("/phones", h.CreatePhone)
	r.Get("/phones", h.ListPhones)
	r.Get("/phones/{phoneID}", h.GetPhone)
	r.Put("/phones/{phoneID}", h.UpdatePhone)
	r.Delete("/phones/{phoneID}", h.DeletePhone)
	r.Get("/phones/{phoneID}/services", h.PhoneServiceBreakdown)

	r.Post("/usage", h.CreateUsage)
	r.Get("/usage", h.ListUsage)
	r.Delete("/usage", h.DeleteUsageByPair)
	r.Delete("/usage/{usageID}", h.DeleteUsage)

	r.Get("/search", h.Search)
	r.Post("/normalize-phone", h.NormalizePhone)

	r.Get("/snapshot", h.ExportSnapshot)
	r.Post("/snapshot", h.ImportSnapshot)
}
