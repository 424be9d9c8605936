package handler

import "time"

// LineItemRequest is one line of an order in create and patch requests
type LineItemRequest struct {
	ProductName string  `json:"product_name" binding:"required"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"min=0"`
}

// CreateOrderRequest represents a manually entered order. Either total_amount
// (USD) or original_amount (local currency) is required.
type CreateOrderRequest struct {
	ExternalID      *string           `json:"external_id"`
	Status          string            `json:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED CANCELLED"`
	FinancialStatus string            `json:"financial_status"`
	TotalAmount     *float64          `json:"total_amount" binding:"omitempty,min=0"`
	OriginalAmount  *float64          `json:"original_amount" binding:"omitempty,min=0"`
	ExchangeRate    *float64          `json:"exchange_rate" binding:"omitempty,gt=0"`
	Currency        string            `json:"currency" binding:"omitempty,len=3"`
	ProcessedAt     *time.Time        `json:"processed_at"`
	CustomerName    string            `json:"customer_name"`
	Note            string            `json:"note"`
	LineItems       []LineItemRequest `json:"line_items" binding:"dive"`
}

// PatchOrderRequest carries a partial update. Absent fields are left unchanged;
// line_items, when present, replaces every existing line.
type PatchOrderRequest struct {
	Status          *string            `json:"status"`
	FinancialStatus *string            `json:"financial_status"`
	TotalAmount     *float64           `json:"total_amount"`
	OriginalAmount  *float64           `json:"original_amount"`
	ExchangeRate    *float64           `json:"exchange_rate"`
	Currency        *string            `json:"currency" binding:"omitempty,len=3"`
	ProcessedAt     *time.Time         `json:"processed_at"`
	CustomerName    *string            `json:"customer_name"`
	Note            *string            `json:"note"`
	LineItems       *[]LineItemRequest `json:"line_items"`
}

// BulkDeleteRequest lists the orders to remove from a venue
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,max=500"`
}

// ImportCSVRequest is the JSON form of a CSV import; multipart uploads use the
// "file" and "rate" form fields instead
type ImportCSVRequest struct {
	CSV  string  `json:"csv" binding:"required"`
	Rate float64 `json:"rate" binding:"required,gt=0"`
}

// ShopifySyncRequest asks for a Shopify pull; resource defaults to orders
type ShopifySyncRequest struct {
	StoreID  string     `json:"store_id" binding:"required"`
	Resource string     `json:"resource" binding:"omitempty,oneof=orders products"`
	Since    *time.Time `json:"since"`
}

// MercurySyncRequest narrows a payout pull to one account and a date window
type MercurySyncRequest struct {
	AccountID string     `json:"account_id"`
	Since     *time.Time `json:"since"`
	Until     *time.Time `json:"until"`
}

// RateQuery selects the currency pair; empty sides default to USD and the local currency
type RateQuery struct {
	From string `form:"from" binding:"omitempty,len=3"`
	To   string `form:"to" binding:"omitempty,len=3"`
}

// ConvertQuery prices a local amount
type ConvertQuery struct {
	Amount *float64 `form:"amount"`
	Rate   *float64 `form:"rate" binding:"omitempty,gt=0"`
	Total  float64  `form:"total"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              int64              `json:"id"`
	ExternalID      string             `json:"external_id,omitempty"`
	OrderNumber     string             `json:"order_number"`
	Status          string             `json:"status"`
	FinancialStatus string             `json:"financial_status"`
	TotalAmount     float64            `json:"total_amount"`
	OriginalAmount  *float64           `json:"original_amount,omitempty"`
	ExchangeRate    *float64           `json:"exchange_rate,omitempty"`
	ExpectedPayout  float64            `json:"expected_payout"`
	Currency        string             `json:"currency"`
	ProcessedAt     string             `json:"processed_at"`
	VenueID         string             `json:"venue_id"`
	Source          string             `json:"source"`
	CustomerName    string             `json:"customer_name,omitempty"`
	Note            string             `json:"note,omitempty"`
	LineItems       []LineItemResponse `json:"line_items"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

// PayoutResponse represents a payout in API responses
type PayoutResponse struct {
	ID                   int64   `json:"id"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	Status               string  `json:"status"`
	Description          string  `json:"description,omitempty"`
	PaidAt               string  `json:"paid_at"`
	MercuryTransactionID string  `json:"mercury_transaction_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

// SyncRunResponse represents a sync run in API responses
type SyncRunResponse struct {
	RunID       string      `json:"run_id"`
	Kind        string      `json:"kind"`
	VenueID     string      `json:"venue_id"`
	StoreID     string      `json:"store_id,omitempty"`
	Status      string      `json:"status"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   string      `json:"created_at"`
	StartedAt   string      `json:"started_at,omitempty"`
	CompletedAt string      `json:"completed_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
