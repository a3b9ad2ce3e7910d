package domain

import "time"

// WindowMode selects the date range a dashboard aggregation covers.
type WindowMode string

const (
	WindowAll     WindowMode = "all"
	WindowMonth   WindowMode = "month"
	WindowQuarter WindowMode = "quarter"
	WindowRange   WindowMode = "range"
)

// Window is the resolved aggregation window. From/To are only read when
// Mode is WindowRange; both bounds are inclusive.
type Window struct {
	Mode WindowMode
	From time.Time
	To   time.Time
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type VendorTotal struct {
	Vendor string  `json:"vendor"`
	Total  float64 `json:"total"`
}

// DashboardStats aggregates the user's completed invoices inside a window.
type DashboardStats struct {
	InvoiceCount     int             `json:"invoice_count"`
	TotalOutstanding float64         `json:"total_outstanding"`
	ToValidate       int             `json:"to_validate"`
	Paid             int             `json:"paid"`
	AvgCompliance    float64         `json:"avg_compliance"`
	Categories       []CategoryTotal `json:"categories"`
	Vendors          []VendorTotal   `json:"vendors"`
}

// SortField names the invoice list sort keys the API accepts.
type SortField string

const (
	SortByName   SortField = "name"
	SortByVendor SortField = "vendor"
	SortByDate   SortField = "date"
	SortByTotal  SortField = "total"
)

// InvoiceQuery narrows and orders a user's invoice listing.
type InvoiceQuery struct {
	Search        string
	Name          string
	Vendor        string
	PaymentStatus PaymentStatus
	SortBy        SortField
	Descending    bool
}

// VaultFilter selects completed invoices for the vault view. Critical means
// compliance below 60; a summary without a score is treated as fully
// compliant and never critical.
type VaultFilter struct {
	PaymentStatus PaymentStatus
	Critical      bool
}
