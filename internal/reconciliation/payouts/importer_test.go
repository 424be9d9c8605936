package payouts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
)

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPayoutRepository) FindExistingMercuryIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockPayoutRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*payout.Payout, error) {
	args := m.Called(ctx, venueID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payout.Payout), args.Error(1)
}

func (m *MockPayoutRepository) CountByVenue(ctx context.Context, venueID string) (int64, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return m
}

var posted = time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

func debit(id string, amount float64) mercury.Transaction {
	return mercury.Transaction{ID: id, Amount: -amount, Status: mercury.StatusSent, PostedAt: &posted, CounterpartyName: "Venue"}
}

func newTestImporter(repo payout.Repository) *Importer {
	return NewImporter(repo, "USD", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestImport_SameTransactionTwiceRecordsOnce(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)

	repo.On("FindExistingMercuryIDs", ctx, []string{"t1", "t1"}).Return(map[string]struct{}{}, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(p *payout.Payout) bool {
		return *p.MercuryTransactionID == "t1" && p.Amount == 500 && p.Status == payout.StatusPaid && p.PaidAt.Equal(posted)
	})).Run(func(args mock.Arguments) { args.Get(1).(*payout.Payout).ID = 77 }).Return(nil).Once()

	res, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{debit("t1", 500), debit("t1", 500)}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, int64(77), res.Items[0].RecordID)
	assert.Equal(t, reasonDuplicateInBatch, res.Items[1].Reason)
	repo.AssertExpectations(t)
}

func TestImport_SkipsAlreadyRecorded(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)

	repo.On("FindExistingMercuryIDs", ctx, []string{"t1"}).Return(map[string]struct{}{"t1": {}}, nil).Once()

	res, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{debit("t1", 10)}, "")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, shared.OutcomeSkipped, res.Items[0].Outcome)
	assert.Equal(t, reasonAlreadyRecorded, res.Items[0].Reason)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImport_FiltersCreditsAndUnsettled(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)

	credit := mercury.Transaction{ID: "c1", Amount: 250, Status: mercury.StatusSent}
	cancelled := debit("x1", 40)
	cancelled.Status = mercury.StatusCancelled

	repo.On("FindExistingMercuryIDs", ctx, []string{"c1", "x1"}).Return(map[string]struct{}{}, nil).Once()

	res, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{credit, cancelled}, "")
	require.NoError(t, err)

	assert.Equal(t, reasonIncoming, res.Items[0].Reason)
	assert.Equal(t, reasonNotSettled, res.Items[1].Reason)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 0, res.Failed)
}

func TestImport_ConcurrentInsertCountsAsSkipped(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)

	repo.On("FindExistingMercuryIDs", ctx, []string{"t1", "t2"}).Return(map[string]struct{}{}, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(p *payout.Payout) bool { return *p.MercuryTransactionID == "t1" })).
		Return(payout.ErrDuplicateMercuryTransaction{TransactionID: "t1"}).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(p *payout.Payout) bool { return *p.MercuryTransactionID == "t2" })).
		Return(errors.New("disk full")).Once()

	res, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{debit("t1", 1), debit("t2", 2)}, "corr")
	require.NoError(t, err)

	assert.Equal(t, shared.OutcomeSkipped, res.Items[0].Outcome)
	assert.Equal(t, shared.OutcomeFailed, res.Items[1].Outcome)
	assert.Contains(t, res.Items[1].Reason, "disk full")
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Failed)
}

func TestImport_MissingIDFails(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)

	repo.On("FindExistingMercuryIDs", ctx, []string{}).Return(map[string]struct{}{}, nil).Once()

	res, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{{Amount: -5, Status: mercury.StatusSent}}, "")
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeFailed, res.Items[0].Outcome)
}

func TestImport_LookupFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPayoutRepository)
	boom := errors.New("timeout")

	repo.On("FindExistingMercuryIDs", ctx, []string{"t1"}).Return(nil, boom).Once()

	_, err := newTestImporter(repo).Import(ctx, "v1", []mercury.Transaction{debit("t1", 1)}, "")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.ErrorIs(t, err, boom)
}
