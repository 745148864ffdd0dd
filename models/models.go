package models

import (
	"time"

	"github.com/shopspring/decimal"

	"campaign-dashboard/rowindex"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message,omitempty"`
	Service          string `json:"service,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	ConnectedClients int    `json:"connected_clients,omitempty"`
	DatasetRows      int    `json:"dataset_rows,omitempty"`
}

// CampaignRow is one row of the flat campaign dataset the dashboard filters.
// Categorical fields hold raw display values; normalization happens once,
// inside the index builder.
type CampaignRow struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Partner       string          `json:"partner"`
	Theme         string          `json:"theme"`
	Database      string          `json:"database"`
	Type          string          `json:"type"`
	Geo           string          `json:"geo"`
	DatabaseType  string          `json:"database_type"`
	InvoiceOffice string          `json:"invoice_office"`
	SendDate      string          `json:"send_date"`
	Status        string          `json:"status"`
	Volume        int64           `json:"volume"`
	Spend         decimal.Decimal `json:"spend"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// DimensionValue implements rowindex.Keyed.
func (r CampaignRow) DimensionValue(d rowindex.Dimension) string {
	switch d {
	case rowindex.DimPartner:
		return r.Partner
	case rowindex.DimTheme:
		return r.Theme
	case rowindex.DimDatabase:
		return r.Database
	case rowindex.DimType:
		return r.Type
	case rowindex.DimGeo:
		return r.Geo
	case rowindex.DimDatabaseType:
		return r.DatabaseType
	case rowindex.DimInvoiceOffice:
		return r.InvoiceOffice
	}
	return ""
}

// DateValue implements rowindex.Keyed.
func (r CampaignRow) DateValue() string { return r.SendDate }

// CampaignsResponse is the payload of the filtered campaigns endpoint.
type CampaignsResponse struct {
	Campaigns []CampaignRow `json:"campaigns"`
	Count     int           `json:"count"`
	Total     int           `json:"total"`
}

// DimensionValue is one indexed value of a filter axis plus its row count.
type DimensionValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DimensionsResponse lists the available filter values per dimension.
type DimensionsResponse struct {
	Dimensions map[string][]DimensionValueCount `json:"dimensions"`
}

// Campaign delivery workflow statuses (DoctorSender BAT flow).
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusBatSent   = "bat_sent"
	CampaignStatusApproved  = "approved"
	CampaignStatusScheduled = "scheduled"
)

// BatRequest is the body of the BAT test-send endpoint.
type BatRequest struct {
	Recipients []string `json:"recipients" binding:"required"`
}

// ScheduleRequest is the body of the campaign schedule endpoint.
type ScheduleRequest struct {
	SendAt string   `json:"send_at" binding:"required"`
	Notify []string `json:"notify,omitempty"`
}

// CampaignEvent is published to RabbitMQ on every workflow transition.
type CampaignEvent struct {
	CampaignID int64     `json:"campaign_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EffortReport is one manual-effort line of the CRM reporting view.
type EffortReport struct {
	Partner string          `json:"partner"`
	Month   string          `json:"month"`
	Task    string          `json:"task"`
	Hours   decimal.Decimal `json:"hours"`
	Cost    decimal.Decimal `json:"cost"`
}

// Worklog is a single logged unit of work against a partner account.
type Worklog struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Partner   string `json:"partner"`
	Summary   string `json:"summary"`
	Minutes   int    `json:"minutes"`
	CreatedAt string `json:"created_at"`
}

// StrategyTicket is a CRM strategy ticket with its lifecycle status.
type StrategyTicket struct {
	ID        int64  `json:"id"`
	Partner   string `json:"partner"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
	ClosedAt  string `json:"closed_at,omitempty"`
}

// TicketSummary aggregates strategy tickets by status.
type TicketSummary struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// NewsletterInsight is a per-newsletter engagement line. Rates are computed
// server side so the dashboard never divides by zero.
type NewsletterInsight struct {
	Newsletter string          `json:"newsletter"`
	Month      string          `json:"month"`
	Sends      int64           `json:"sends"`
	Opens      int64           `json:"opens"`
	Clicks     int64           `json:"clicks"`
	OpenRate   decimal.Decimal `json:"open_rate"`
	ClickRate  decimal.Decimal `json:"click_rate"`
}

// BroadcastMessage is pushed to websocket dashboard clients.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
