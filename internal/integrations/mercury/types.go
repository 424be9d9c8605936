package mercury

import "time"

// Direction of money movement relative to the account
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction statuses reported by the bank
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

type Account struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Kind           string  `json:"kind"`
	CurrentBalance float64 `json:"currentBalance"`
}

// Transaction carries a signed amount: negative leaves the account.
type Transaction struct {
	ID               string     `json:"id"`
	Amount           float64    `json:"amount"`
	Status           string     `json:"status"`
	Kind             string     `json:"kind"`
	CounterpartyName string     `json:"counterpartyName"`
	BankDescription  *string    `json:"bankDescription"`
	Note             *string    `json:"note"`
	PostedAt         *time.Time `json:"postedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Direction classifies the transaction by the sign of its amount.
func (t *Transaction) Direction() Direction {
	if t.Amount < 0 {
		return DirectionDebit
	}
	return DirectionCredit
}

// Settled is false for transactions that never moved money.
func (t *Transaction) Settled() bool {
	return t.Status != StatusCancelled && t.Status != StatusFailed
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type transactionsResponse struct {
	Total        int           `json:"total"`
	Transactions []Transaction `json:"transactions"`
}
