package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operator represents a telecom carrier that owns phone numbers.
type Operator struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	LogoBase64 string    `json:"logo_base64,omitempty"` // opaque blob, transported as base64 in JSON
	CreatedAt  time.Time `json:"created_at"`
}

// NewOperator creates a new Operator instance. ID is generated here.
func NewOperator(name string, logoBase64 string) *Operator {
	return &Operator{
		ID:         uuid.New(),
		Name:       name,
		LogoBase64: logoBase64,
		CreatedAt:  time.Now().UTC(),
	}
}

// Phone represents a tracked phone number. Number keeps the raw input as
// supplied; NormalizedNumber is the canonical form and is unique across all
// live phones.
type Phone struct {
	ID               uuid.UUID `json:"id"`
	Number           string    `json:"number"`
	NormalizedNumber string    `json:"normalized_number"`
	OperatorID       uuid.UUID `json:"operator_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewPhone creates a new Phone instance. The caller is expected to have run
// NormalizePhoneNumber on the raw number already.
func NewPhone(rawNumber, normalizedNumber string, operatorID uuid.UUID) *Phone {
	return &Phone{
		ID:               uuid.New(),
		Number:           rawNumber,
		NormalizedNumber: normalizedNumber,
		OperatorID:       operatorID,
		CreatedAt:        time.Now().UTC(),
	}
}

// Service represents an external party or bonus program a phone number can
// be registered with. Names are not unique; duplicates are allowed.
type Service struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	LogoBase64 string    `json:"logo_base64,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewService creates a new Service instance.
func NewService(name string, logoBase64 string) *Service {
	return &Service{
		ID:         uuid.New(),
		Name:       name,
		LogoBase64: logoBase64,
		CreatedAt:  time.Now().UTC(),
	}
}

// Usage records that a specific phone was used to register with a specific
// service. At most one live row exists per (phone_id, service_id) pair.
type Usage struct {
	ID        uuid.UUID `json:"id"`
	PhoneID   uuid.UUID `json:"phone_id"`
	ServiceID uuid.UUID `json:"service_id"`
	UsedAt    time.Time `json:"used_at"`
}

// NewUsage creates a new Usage instance stamped with the current time.
func NewUsage(phoneID, serviceID uuid.UUID) *Usage {
	return &Usage{
		ID:        uuid.New(),
		PhoneID:   phoneID,
		ServiceID: serviceID,
		UsedAt:    time.Now().UTC(),
	}
}

// ServiceUsage annotates a Service with whether a given phone has a live
// usage record against it. Used by the per-phone partition view.
type ServiceUsage struct {
	Service *Service   `json:"service"`
	UsageID *uuid.UUID `json:"usage_id,omitempty"`
	UsedAt  *time.Time `json:"used_at,omitempty"`
}

// Used reports whether the phone has a live usage record for this service.
func (su ServiceUsage) Used() bool { return su.UsageID != nil }

// PhoneUsage is the symmetric annotation for the per-service partition view.
type PhoneUsage struct {
	Phone   *Phone     `json:"phone"`
	UsageID *uuid.UUID `json:"usage_id,omitempty"`
	UsedAt  *time.Time `json:"used_at,omitempty"`
}

// Used reports whether this phone has a live usage record for the service.
func (pu PhoneUsage) Used() bool { return pu.UsageID != nil }

// SearchResultKind discriminates search result entries.
type SearchResultKind string

const (
	SearchResultPhone   SearchResultKind = "phone"
	SearchResultService SearchResultKind = "service"
)

// SearchResult is a single free-text search hit.
type SearchResult struct {
	Kind        SearchResultKind `json:"type"`
	ID          uuid.UUID        `json:"id"`
	DisplayText string           `json:"display_text"`
}
