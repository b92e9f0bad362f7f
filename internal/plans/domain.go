package plans

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan statuses. Plans are never hard-deleted, invoices reference them.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// configVersion is the envelope version written into every JSONB config.
const configVersion = 1

// SpeedConfig sets the provisioned bandwidth.
type SpeedConfig struct {
	Version      int    `json:"v"`
	DownloadMbps int    `json:"download_mbps"`
	UploadMbps   int    `json:"upload_mbps"`
	BurstMbps    int    `json:"burst_mbps,omitempty"`
	BurstSeconds int    `json:"burst_seconds,omitempty"`
	Technology   string `json:"technology,omitempty"`
}

// FUPConfig sets the fair-use policy applied after the cap.
type FUPConfig struct {
	Version        int    `json:"v"`
	Enabled        bool   `json:"enabled"`
	MonthlyCapGB   int    `json:"monthly_cap_gb,omitempty"`
	ThrottleToMbps int    `json:"throttle_to_mbps,omitempty"`
	ResetDay       int    `json:"reset_day,omitempty"`
	Action         string `json:"action,omitempty"`
}

// QoSConfig sets traffic priority on the shared medium.
type QoSConfig struct {
	Version           int    `json:"v"`
	PriorityClass     string `json:"priority_class,omitempty"`
	MinGuaranteedMbps int    `json:"min_guaranteed_mbps,omitempty"`
	LatencySensitive  bool   `json:"latency_sensitive,omitempty"`
}

// AdvancedFeatures toggles optional add-ons.
type AdvancedFeatures struct {
	Version     int  `json:"v"`
	StaticIP    bool `json:"static_ip,omitempty"`
	PublicIPv6  bool `json:"public_ipv6,omitempty"`
	PortForward bool `json:"port_forward,omitempty"`
	CGNATBypass bool `json:"cgnat_bypass,omitempty"`
}

// Restrictions limits where and when the plan applies.
type Restrictions struct {
	Version        int      `json:"v"`
	MaxDevices     int      `json:"max_devices,omitempty"`
	BlockedPorts   []int    `json:"blocked_ports,omitempty"`
	AllowedRegions []string `json:"allowed_regions,omitempty"`
	TimeWindows    []string `json:"time_windows,omitempty"`
}

// Plan is a sellable service offering with its typed configs.
type Plan struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Status       string           `json:"status"`
	BillingCycle string           `json:"billing_cycle"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price"`
	SetupFee     decimal.Decimal  `json:"setup_fee"`
	PromoPrice   *decimal.Decimal `json:"promo_price,omitempty"`
	TaxRate      decimal.Decimal  `json:"tax_rate"`
	TaxInclusive bool             `json:"tax_inclusive"`

	Speed        SpeedConfig      `json:"speed_config"`
	FUP          FUPConfig        `json:"fup_config"`
	QoS          QoSConfig        `json:"qos_config"`
	Advanced     AdvancedFeatures `json:"advanced_features"`
	Restrictions Restrictions     `json:"restrictions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// stampVersions writes the envelope version into every config before persist.
func (p *Plan) stampVersions() {
	p.Speed.Version = configVersion
	p.FUP.Version = configVersion
	p.QoS.Version = configVersion
	p.Advanced.Version = configVersion
	p.Restrictions.Version = configVersion
}

// PlanInput carries a create or full update.
type PlanInput struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Status       string           `json:"status"`
	BillingCycle string           `json:"billing_cycle"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price"`
	SetupFee     decimal.Decimal  `json:"setup_fee"`
	PromoPrice   *decimal.Decimal `json:"promo_price"`
	TaxRate      decimal.Decimal  `json:"tax_rate"`
	TaxInclusive bool             `json:"tax_inclusive"`

	Speed        SpeedConfig      `json:"speed_config"`
	FUP          FUPConfig        `json:"fup_config"`
	QoS          QoSConfig        `json:"qos_config"`
	Advanced     AdvancedFeatures `json:"advanced_features"`
	Restrictions Restrictions     `json:"restrictions"`
}
