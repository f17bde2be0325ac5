package matcher

import (
	"math"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// Score computes the confidence and variances for a candidate pairing under
// the given tier. It is a pure function: identical inputs always produce
// identical scores, which the resolution audit trail relies on.
//
// Confidence by tier:
//   - exact: fixed 1.0
//   - fuzzy_name: 0.5 + 0.5*(1 - min(|Δamount|/max(invoiceAmount,1), 1)),
//     clamped to [0.5, 0.9]
//   - fuzzy_amount: 0.4 + 0.2*closeness where closeness is how near the
//     relative difference sits to zero within the percent tolerance,
//     yielding a value in [0.4, 0.6]
func Score(inv ledger.InvoiceItem, pos ledger.POSRecord, tier MatchTier, opts Options) (confidence, amountVariance, quantityVariance float64) {
	amountVariance = pos.Amount() - inv.TotalAmount
	quantityVariance = pos.Quantity() - inv.Quantity

	switch tier {
	case TierExact:
		confidence = 1.0

	case TierFuzzyName:
		rel := math.Min(math.Abs(amountVariance)/math.Max(inv.TotalAmount, 1), 1)
		confidence = 0.5 + 0.5*(1-rel)
		confidence = clamp(confidence, 0.5, 0.9)

	case TierFuzzyAmount:
		tolerance := opts.PercentTolerance / 100
		if tolerance <= 0 {
			confidence = 0.6
			break
		}
		rel := math.Abs(amountVariance) / math.Max(inv.TotalAmount, 1)
		closeness := 1 - math.Min(rel/tolerance, 1)
		confidence = 0.4 + 0.2*closeness
	}

	return confidence, amountVariance, quantityVariance
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
