package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer lifecycle statuses. Deactivation is soft, the row stays for
// invoice history.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusInactive  = "inactive"
)

// Connection types offered on the network.
var ConnectionTypes = map[string]bool{
	"fiber":    true,
	"wireless": true,
	"dsl":      true,
	"hotspot":  true,
}

// Customer is a subscriber account.
type Customer struct {
	ID                int64              `json:"id"`
	AccountNo         string             `json:"account_no"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Address           string             `json:"address"`
	Status            string             `json:"status"`
	PortalUsername    string             `json:"portal_username,omitempty"`
	ConnectionType    string             `json:"connection_type"`
	GPSLat            *decimal.Decimal   `json:"gps_lat,omitempty"`
	GPSLng            *decimal.Decimal   `json:"gps_lng,omitempty"`
	ServicePlanID     *int64             `json:"service_plan_id,omitempty"`
	PhoneNumbers      []PhoneNumber      `json:"phone_numbers,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// PhoneNumber is one contact number on a customer account.
type PhoneNumber struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Phone      string `json:"phone"`
	Label      string `json:"label"`
	IsPrimary  bool   `json:"is_primary"`
}

// EmergencyContact is an out-of-band contact for a customer.
type EmergencyContact struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// CreateCustomerInput carries a new subscriber.
type CreateCustomerInput struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Address        string           `json:"address"`
	PortalUsername string           `json:"portal_username"`
	ConnectionType string           `json:"connection_type"`
	GPSLat         *decimal.Decimal `json:"gps_lat"`
	GPSLng         *decimal.Decimal `json:"gps_lng"`
	ServicePlanID  *int64           `json:"service_plan_id"`
	PhoneNumbers   []PhoneNumber    `json:"phone_numbers"`
}

// UpdateCustomerInput carries partial updates, nil means keep.
type UpdateCustomerInput struct {
	Name           *string          `json:"name"`
	Email          *string          `json:"email"`
	Address        *string          `json:"address"`
	Status         *string          `json:"status"`
	PortalUsername *string          `json:"portal_username"`
	ConnectionType *string          `json:"connection_type"`
	GPSLat         *decimal.Decimal `json:"gps_lat"`
	GPSLng         *decimal.Decimal `json:"gps_lng"`
	ServicePlanID  *int64           `json:"service_plan_id"`
}

// CustomerFilter scopes customer listings.
type CustomerFilter struct {
	Status         string
	ConnectionType string
	Search         string
	Limit          int
	Offset         int
}
