package detect

import (
	"testing"
	"time"

	"subtrackr-be/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(merchant string, amount float64, postedAt time.Time) *entity.Transaction {
	return &entity.Transaction{
		ID:           uuid.New(),
		UserID:       uuid.Nil,
		MerchantName: merchant,
		Amount:       decimal.NewFromFloat(amount),
		Currency:     "USD",
		PostedAt:     postedAt,
	}
}

func TestDetectMonthlySubscription(t *testing.T) {
	start := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("NETFLIX.COM 866-579", 15.49, start),
		tx("Netflix", 15.49, start.AddDate(0, 1, 0)),
		tx("NETFLIX.COM", 15.49, start.AddDate(0, 2, 0)),
	}

	candidates := NewDetector(0.5).Detect(transactions)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, entity.BillingIntervalMonthly, c.BillingInterval)
	assert.True(t, c.Amount.Equal(decimal.NewFromFloat(15.49)), "amount = %s", c.Amount)
	assert.GreaterOrEqual(t, c.Confidence, 0.5)
	assert.Len(t, c.Transactions, 3, "fuzzy-matched descriptors must land in one group")
	assert.True(t, c.NextDueDate.After(transactions[2].PostedAt))
}

func TestDetectIgnoresOneOffPurchases(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("Hardware Store", 230.00, base),
		tx("Corner Bakery", 4.50, base.AddDate(0, 0, 3)),
		tx("Gas Station 0441", 52.10, base.AddDate(0, 0, 11)),
	}

	candidates := NewDetector(0.5).Detect(transactions)
	assert.Empty(t, candidates)
}

func TestDetectIgnoresIrregularCadence(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("Ride Share", 18.20, base),
		tx("Ride Share", 23.90, base.AddDate(0, 0, 4)),
		tx("Ride Share", 11.00, base.AddDate(0, 0, 45)),
		tx("Ride Share", 31.75, base.AddDate(0, 0, 52)),
	}

	candidates := NewDetector(0.5).Detect(transactions)
	assert.Empty(t, candidates, "irregular amounts and gaps are not a subscription")
}

func TestDetectYearlySubscription(t *testing.T) {
	start := time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("Domain Registrar", 12.99, start),
		tx("Domain Registrar", 12.99, start.AddDate(1, 0, 0)),
		tx("Domain Registrar", 12.99, start.AddDate(2, 0, 0)),
	}

	candidates := NewDetector(0.5).Detect(transactions)
	require.Len(t, candidates, 1)
	assert.Equal(t, entity.BillingIntervalYearly, candidates[0].BillingInterval)
}

func TestDetectToleratesSmallPriceDrift(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("Spotify", 10.99, start),
		tx("Spotify", 10.99, start.AddDate(0, 1, 0)),
		tx("Spotify", 11.99, start.AddDate(0, 2, 0)), // price bump within tolerance
	}

	candidates := NewDetector(0.5).Detect(transactions)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Amount.Equal(decimal.NewFromFloat(11.99)),
		"latest price wins, got %s", candidates[0].Amount)
}

func TestDetectSeparatesDistinctMerchants(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var transactions []*entity.Transaction
	for i := 0; i < 3; i++ {
		transactions = append(transactions,
			tx("Netflix", 15.49, start.AddDate(0, i, 0)),
			tx("Audible", 14.95, start.AddDate(0, i, 2)),
		)
	}

	candidates := NewDetector(0.5).Detect(transactions)
	require.Len(t, candidates, 2)
}

func TestDetectMergesProcessorReferenceSuffixes(t *testing.T) {
	start := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	transactions := []*entity.Transaction{
		tx("SPOTIFY *P2A4B1", 10.99, start),
		tx("SPOTIFY *K7M3N9", 10.99, start.AddDate(0, 1, 0)),
		tx("SPOTIFY *X1Q5R2", 10.99, start.AddDate(0, 2, 0)),
	}

	candidates := NewDetector(0.5).Detect(transactions)
	require.Len(t, candidates, 1, "per-charge reference codes must not split the group")
	assert.Equal(t, "spotify", NormalizeMerchant(candidates[0].MerchantName))
	assert.Len(t, candidates[0].Transactions, 3)
}

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"NETFLIX.COM 866-579", "netflix.com"},
		{"SPOTIFY *P2A4B1", "spotify"},
		{"  Corner Gym  ", "corner gym"},
		{"4417 1234", "4417 1234"},
	}

	for _, tt := range tests {
		if got := NormalizeMerchant(tt.raw); got != tt.want {
			t.Errorf("NormalizeMerchant(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
