package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// Logos travel as base64 strings and are opaque to the core; size limits and
// encoding checks belong to the transport in front of this service.

// CreateOperatorRequestDTO creates a new operator.
type CreateOperatorRequestDTO struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	LogoBase64 string `json:"logo_base64,omitempty"`
}

// UpdateOperatorRequestDTO replaces an operator's fields.
type UpdateOperatorRequestDTO struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	LogoBase64 string `json:"logo_base64,omitempty"`
}

// CreateServiceRequestDTO creates a new service. Duplicate names are
// permitted.
type CreateServiceRequestDTO struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	LogoBase64 string `json:"logo_base64,omitempty"`
}

// UpdateServiceRequestDTO replaces a service's fields.
type UpdateServiceRequestDTO struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	LogoBase64 string `json:"logo_base64,omitempty"`
}

// CreatePhoneRequestDTO creates a new phone. Number is raw input in any
// supported spelling; the core normalizes it.
type CreatePhoneRequestDTO struct {
	Number     string `json:"number" validate:"required"`
	OperatorID string `json:"operator_id" validate:"required,uuid"`
}

// UpdatePhoneRequestDTO updates a phone. Omitted fields stay unchanged.
type UpdatePhoneRequestDTO struct {
	Number     *string `json:"number,omitempty" validate:"omitempty,min=1"`
	OperatorID *string `json:"operator_id,omitempty" validate:"omitempty,uuid"`
}

// CreateUsageRequestDTO marks a phone used with a service.
type CreateUsageRequestDTO struct {
	PhoneID   string `json:"phone_id" validate:"required,uuid"`
	ServiceID string `json:"service_id" validate:"required,uuid"`
}

// NormalizePhoneRequestDTO carries a raw number for validation feedback.
type NormalizePhoneRequestDTO struct {
	Phone string `json:"phone" validate:"required"`
}

// NormalizePhoneResponseDTO echoes the raw input with its canonical form.
type NormalizePhoneResponseDTO struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// ServiceUsageDTO annotates a service with the usage state of one phone.
type ServiceUsageDTO struct {
	Service *domain.Service `json:"service"`
	Used    bool            `json:"used"`
	UsageID *uuid.UUID      `json:"usage_id,omitempty"`
	UsedAt  *time.Time      `json:"used_at,omitempty"`
}

// PhoneUsageDTO annotates a phone with the usage state of one service.
type PhoneUsageDTO struct {
	Phone   *domain.Phone `json:"phone"`
	Used    bool          `json:"used"`
	UsageID *uuid.UUID    `json:"usage_id,omitempty"`
	UsedAt  *time.Time    `json:"used_at,omitempty"`
}
