package detect

import (
	"sort"
	"strings"
	"time"

	"subtrackr-be/internal/entity"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
)

const (
	// minOccurrences is how many charges a merchant needs before it can be
	// considered recurring.
	minOccurrences = 2

	// amountTolerance allows small price drift (taxes, currency rounding)
	// between charges of the same subscription, as a fraction of the mean.
	amountTolerance = 0.15

	// intervalTolerance is the allowed deviation in days around a known
	// billing cadence.
	intervalTolerance = 5.0
)

// Candidate is one recurring-payment pattern the detector surfaced from a
// user's transactions.
type Candidate struct {
	MerchantName    string
	Amount          decimal.Decimal
	Currency        string
	BillingInterval entity.BillingInterval
	NextDueDate     time.Time
	Confidence      float64
	Transactions    []*entity.Transaction
}

// Detector finds subscriptions in normalized bank transactions.
type Detector struct {
	minConfidence float64
}

func NewDetector(minConfidence float64) *Detector {
	if minConfidence <= 0 {
		minConfidence = 0.5
	}
	return &Detector{minConfidence: minConfidence}
}

// Detect groups a user's transactions by merchant, checks each group for a
// regular cadence and stable amount, and returns the candidates that clear
// the confidence threshold, strongest first.
func (d *Detector) Detect(transactions []*entity.Transaction) []Candidate {
	groups := groupByMerchant(transactions)

	var candidates []Candidate
	for _, group := range groups {
		if c, ok := d.evaluate(group); ok {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

// groupByMerchant buckets transactions, merging merchants whose normalized
// names fuzzy-match ("NETFLIX.COM 866-579" and "Netflix" end up together).
func groupByMerchant(transactions []*entity.Transaction) [][]*entity.Transaction {
	type bucket struct {
		key string
		txs []*entity.Transaction
	}
	var buckets []*bucket

	for _, tx := range transactions {
		key := NormalizeMerchant(tx.MerchantName)
		if key == "" {
			continue
		}

		var matched *bucket
		for _, b := range buckets {
			if b.key == key || fuzzy.MatchNormalizedFold(b.key, key) || fuzzy.MatchNormalizedFold(key, b.key) {
				matched = b
				break
			}
		}
		if matched == nil {
			matched = &bucket{key: key}
			buckets = append(buckets, matched)
		}
		matched.txs = append(matched.txs, tx)
	}

	out := make([][]*entity.Transaction, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.txs)
	}
	return out
}

// NormalizeMerchant strips the noise card processors append to merchant
// descriptors: store numbers, phone fragments, and trailing punctuation.
func NormalizeMerchant(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "*#.,-")
		if f == "" || isMostlyDigits(f) {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return s
	}
	// Descriptor tails rarely matter for identity.
	if len(kept) > 3 {
		kept = kept[:3]
	}
	return strings.Join(kept, " ")
}

func isMostlyDigits(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*2 >= len(s)
}

func (d *Detector) evaluate(group []*entity.Transaction) (Candidate, bool) {
	if len(group) < minOccurrences {
		return Candidate{}, false
	}

	sorted := make([]*entity.Transaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PostedAt.Before(sorted[j].PostedAt)
	})

	interval, intervalScore := inferInterval(sorted)
	if interval == "" {
		return Candidate{}, false
	}

	amount, amountScore := stableAmount(sorted)
	if amountScore == 0 {
		return Candidate{}, false
	}

	countScore := float64(len(sorted)) / float64(len(sorted)+2)
	confidence := 0.5*intervalScore + 0.3*amountScore + 0.2*countScore
	if confidence < d.minConfidence {
		return Candidate{}, false
	}

	last := sorted[len(sorted)-1]
	return Candidate{
		MerchantName:    pickDisplayName(sorted),
		Amount:          amount,
		Currency:        last.Currency,
		BillingInterval: interval,
		NextDueDate:     last.PostedAt.AddDate(0, 0, intervalDays(interval)),
		Confidence:      confidence,
		Transactions:    sorted,
	}, true
}

var knownIntervals = []struct {
	interval entity.BillingInterval
	days     float64
}{
	{entity.BillingIntervalWeekly, 7},
	{entity.BillingIntervalMonthly, 30.44},
	{entity.BillingIntervalQuarterly, 91.31},
	{entity.BillingIntervalYearly, 365.25},
}

func intervalDays(interval entity.BillingInterval) int {
	for _, k := range knownIntervals {
		if k.interval == interval {
			return int(k.days + 0.5)
		}
	}
	return 30
}

// inferInterval matches the mean gap between charges to a known billing
// cadence. The score degrades with the spread of the gaps.
func inferInterval(sorted []*entity.Transaction) (entity.BillingInterval, float64) {
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].PostedAt.Sub(sorted[i-1].PostedAt).Hours() / 24
		if gap < 1 {
			// Same-day duplicates say nothing about cadence.
			continue
		}
		gaps = append(gaps, gap)
	}
	if len(gaps) == 0 {
		return "", 0
	}

	mean := 0.0
	for _, g := range gaps {
		mean += g
	}
	mean /= float64(len(gaps))

	var best entity.BillingInterval
	bestDelta := intervalTolerance + 1
	for _, k := range knownIntervals {
		delta := mean - k.days
		if delta < 0 {
			delta = -delta
		}
		if delta <= intervalTolerance && delta < bestDelta {
			best = k.interval
			bestDelta = delta
		}
	}
	if best == "" {
		return "", 0
	}

	// Penalize irregular gaps.
	maxSpread := 0.0
	for _, g := range gaps {
		spread := g - mean
		if spread < 0 {
			spread = -spread
		}
		if spread > maxSpread {
			maxSpread = spread
		}
	}
	score := 1.0 - maxSpread/(mean+1)
	if score < 0 {
		score = 0
	}
	return best, score
}

// stableAmount checks price consistency across the group and returns the
// most recent amount as the subscription price.
func stableAmount(sorted []*entity.Transaction) (decimal.Decimal, float64) {
	sum := decimal.Zero
	for _, tx := range sorted {
		sum = sum.Add(tx.Amount.Abs())
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(sorted))))
	if mean.IsZero() {
		return decimal.Zero, 0
	}

	tolerance := mean.Mul(decimal.NewFromFloat(amountTolerance))
	for _, tx := range sorted {
		if tx.Amount.Abs().Sub(mean).Abs().GreaterThan(tolerance) {
			return decimal.Zero, 0
		}
	}

	latest := sorted[len(sorted)-1].Amount.Abs()
	drift, _ := latest.Sub(mean).Abs().Div(mean).Float64()
	return latest, 1.0 - drift
}

func pickDisplayName(sorted []*entity.Transaction) string {
	// Prefer the shortest raw descriptor, it is usually the cleanest.
	name := sorted[0].MerchantName
	for _, tx := range sorted[1:] {
		if len(tx.MerchantName) < len(name) {
			name = tx.MerchantName
		}
	}
	return strings.TrimSpace(name)
}
