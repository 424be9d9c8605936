package shopify

import "time"

// Order is the subset of the Admin REST order resource the importer reads.
type Order struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Currency          string     `json:"currency"`
	TotalPrice        string     `json:"total_price"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus *string    `json:"fulfillment_status"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	ProcessedAt       *time.Time `json:"processed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	Note              string     `json:"note"`
	Customer          *Customer  `json:"customer"`
	LineItems         []LineItem `json:"line_items"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LineItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Product is a catalog entry; SKUs and prices live on its variants.
type Product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	Variants  []Variant `json:"variants"`
}

type Variant struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	SKU   string `json:"sku"`
	Price string `json:"price"`
}

type ordersPage struct {
	Orders []Order `json:"orders"`
}

type productsPage struct {
	Products []Product `json:"products"`
}
