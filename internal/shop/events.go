package shop

import (
	"encoding/json"
	"time"
)

const (
	EventSessionChanged = "SessionChanged"
	EventOrderPlaced    = "OrderPlaced"
)

// Session change kinds, named after the backend's auth-state-change events.
const (
	SessionSignedIn       = "SIGNED_IN"
	SessionSignedOut      = "SIGNED_OUT"
	SessionUserUpdated    = "USER_UPDATED"
	SessionTokenRefreshed = "TOKEN_REFRESHED"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type SessionChangedPayload struct {
	Change    string `json:"change"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

type OrderPlacedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Total         string            `json:"total"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Items         []OrderPlacedItem `json:"items"`
}
