package csvimport

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

func TestParse_WithHeaderAndBlankLines(t *testing.T) {
	text := "date,amount\n2024-01-05,1000\n\n01/06/2024,\"1,250.50\"\n2024-01-07T08:00:00Z, 20\n"

	rows, errs := Parse(text)
	require.Empty(t, errs)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, 1000.0, rows[0].Amount)

	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, 1250.5, rows[1].Amount)

	assert.Equal(t, 20.0, rows[2].Amount)
}

func TestParse_WithoutHeader(t *testing.T) {
	rows, errs := Parse("2024-02-01,10\n2024-02-02,11,\n")
	require.Empty(t, errs)
	assert.Len(t, rows, 2)
}

func TestParse_CollectsEveryBadRow(t *testing.T) {
	text := "date,amount\n2024-01-05,abc\n2024-13-40,10\n2024-01-07,5,extra\n2024-01-08,-3\n2024-01-09,7\n"

	rows, errs := Parse(text)
	assert.Len(t, rows, 1)
	require.Len(t, errs, 4)

	assert.Equal(t, 2, errs[0].Line)
	assert.Contains(t, errs[0].Message, `invalid amount "abc"`)
	assert.Equal(t, 3, errs[1].Line)
	assert.Contains(t, errs[1].Message, "invalid date")
	assert.Equal(t, 4, errs[2].Line)
	assert.Contains(t, errs[2].Message, "expected 2 columns")
	assert.Equal(t, 5, errs[3].Line)
	assert.Contains(t, errs[3].Message, "negative")
}

func TestParse_RejectsNonFiniteAmounts(t *testing.T) {
	text := "date,amount\n2024-01-05,NaN\n2024-01-06,Inf\n2024-01-07,-Infinity\n2024-01-08,1e400\n2024-01-09,7\n"

	rows, errs := Parse(text)
	assert.Len(t, rows, 1)
	require.Len(t, errs, 4)
	for i, e := range errs {
		assert.Equal(t, i+2, e.Line)
		assert.Contains(t, e.Message, "invalid amount")
	}
}

func TestParse_MalformedFirstRowIsReported(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"BadDate", "2024/01/15,100\n2024-01-16,200\n"},
		{"BadAmount", "2024-01-15,abc\n2024-01-16,200\n"},
		{"ExtraColumn", "2024-01-15,100,x\n2024-01-16,200\n"},
		{"LabelWithAmount", "total,100\n2024-01-16,200\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows, errs := Parse(tc.text)
			require.Len(t, errs, 1)
			assert.Equal(t, 1, errs[0].Line)
			assert.Len(t, rows, 1)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, errs := Parse("date,amount\n\n")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, ErrEmptyFile.Error())
}

func TestValidationError_Message(t *testing.T) {
	single := &ValidationError{Errors: []RowError{{Line: 3, Message: "bad"}}}
	assert.Equal(t, "csv rejected: line 3: bad", single.Error())

	multi := &ValidationError{Errors: []RowError{{Line: 1}, {Line: 2}}}
	assert.Equal(t, "csv rejected: 2 invalid rows", multi.Error())
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, batch engine.Batch) (*shared.BatchResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

func newTestImporter(r Reconciler) *Importer {
	return NewImporter(r, "AED", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestImporter_MalformedRowWritesNothing(t *testing.T) {
	rec := new(MockReconciler)

	_, err := newTestImporter(rec).Import(context.Background(), "v1", "2024-01-01,10\n2024-01-02,abc\n", 3.6725, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, 2, verr.Errors[0].Line)
	rec.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestImporter_RejectsRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"Zero", 0},
		{"Negative", -3.6725},
		{"NaN", math.NaN()},
		{"PositiveInf", math.Inf(1)},
		{"NegativeInf", math.Inf(-1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := new(MockReconciler)

			_, err := newTestImporter(rec).Import(context.Background(), "v1", "2024-01-01,10\n", tc.rate, "")
			assert.ErrorIs(t, err, ErrInvalidRate)
			rec.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
		})
	}
}

func TestImporter_ReconcilesAtSingleRate(t *testing.T) {
	ctx := context.Background()
	rec := new(MockReconciler)
	want := shared.NewBatchResult([]shared.ItemOutcome{{Outcome: shared.OutcomeCreated}, {Index: 1, Outcome: shared.OutcomeCreated}})

	rec.On("Reconcile", ctx, mock.MatchedBy(func(b engine.Batch) bool {
		if b.VenueID != "v1" || b.Rate == nil || *b.Rate != 3.6725 || len(b.Inputs) != 2 || b.CorrelationID != "corr" {
			return false
		}
		row, ok := b.Inputs[1].(sources.CSVRow)
		return ok && row.Line == 3 && row.Amount == 20 && row.Currency == "AED"
	})).Return(want, nil).Once()

	res, err := newTestImporter(rec).Import(ctx, "v1", "date,amount\n2024-01-01,10\n2024-01-02,20\n", 3.6725, "corr")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	rec.AssertExpectations(t)
}
