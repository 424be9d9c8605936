package sources

import (
	"strings"

	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
)

// BankTransaction is a Mercury transaction headed for the payouts table.
type BankTransaction struct {
	Transaction mercury.Transaction
	Currency    string
}

func (b BankTransaction) ExternalRef() string {
	return b.Transaction.ID
}

// Normalize keeps the signed amount; the payout stores its magnitude.
func (b BankTransaction) Normalize(venueID string) (*payout.Draft, error) {
	tx := b.Transaction
	if tx.ID == "" {
		return nil, ErrMissingTransactionID
	}

	paidAt := tx.CreatedAt
	if tx.PostedAt != nil {
		paidAt = *tx.PostedAt
	}
	currency := b.Currency
	if currency == "" {
		currency = "USD"
	}

	return &payout.Draft{
		VenueID:              venueID,
		Amount:               tx.Amount,
		Currency:             currency,
		Status:               payoutStatus(tx.Status),
		Description:          b.description(),
		PaidAt:               paidAt,
		MercuryTransactionID: stringPtr(tx.ID),
	}, nil
}

func (b BankTransaction) description() string {
	var parts []string
	if name := strings.TrimSpace(b.Transaction.CounterpartyName); name != "" {
		parts = append(parts, name)
	}
	if b.Transaction.BankDescription != nil {
		if desc := strings.TrimSpace(*b.Transaction.BankDescription); desc != "" {
			parts = append(parts, desc)
		}
	}
	return strings.Join(parts, " - ")
}

func payoutStatus(status string) payout.Status {
	switch status {
	case mercury.StatusSent:
		return payout.StatusPaid
	case mercury.StatusCancelled, mercury.StatusFailed:
		return payout.StatusFailed
	}
	return payout.StatusPending
}
