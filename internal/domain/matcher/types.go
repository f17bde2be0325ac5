package matcher

import "github.com/lengolf/reconcile/internal/domain/ledger"

// MatchTier identifies which matching strategy produced a pairing.
// Tiers are evaluated in priority order per invoice item.
type MatchTier string

const (
	TierExact       MatchTier = "exact"
	TierFuzzyName   MatchTier = "fuzzy_name"
	TierFuzzyAmount MatchTier = "fuzzy_amount"
)

// Options holds the matching tolerances for one run. The value is threaded
// explicitly through the matcher and scorer; it is never stored as ambient
// state.
type Options struct {
	// AmountTolerance is the absolute amount-equality threshold for the
	// exact tier. Default 0.
	AmountTolerance float64 `json:"amountTolerance" yaml:"amount_tolerance"`

	// PercentTolerance is the relative amount threshold for the fuzzy
	// amount tier, in percent. Default 5.
	PercentTolerance float64 `json:"percentTolerance" yaml:"percent_tolerance"`

	// NameSimilarityThreshold is the minimum token length that counts as
	// overlap in the fuzzy name tier. Default 2 (tokens longer than two
	// characters).
	NameSimilarityThreshold int `json:"nameSimilarityThreshold" yaml:"name_similarity_threshold"`

	// AutoResolveExactMatches creates exact-tier matches already approved
	// instead of unresolved.
	AutoResolveExactMatches bool `json:"autoResolveExactMatches" yaml:"auto_resolve_exact_matches"`

	// DateFormat is the raw date layout passed to the normalizer.
	DateFormat string `json:"dateFormat,omitempty" yaml:"date_format"`

	// CurrencySymbols are stripped before numeric parsing.
	CurrencySymbols []string `json:"currencySymbols,omitempty" yaml:"currency_symbols"`
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		AmountTolerance:         0,
		PercentTolerance:        5,
		NameSimilarityThreshold: 2,
	}
}

// MatchedItem pairs one invoice item with one consumed POS record.
type MatchedItem struct {
	Invoice          ledger.InvoiceItem
	POS              ledger.POSRecord
	POSIndex         int // position in the original POS input, for audit
	Tier             MatchTier
	Confidence       float64 // in [0,1]; exactly 1.0 for the exact tier
	AmountVariance   float64 // POS amount minus invoice amount
	QuantityVariance float64 // POS quantity minus invoice quantity
	Status           ledger.ResolutionStatus
}

// Result partitions the two record sets. Every invoice item lands in exactly
// one of Matched/InvoiceOnly; every POS record in exactly one of
// Matched/POSOnly.
type Result struct {
	Matched     []MatchedItem
	InvoiceOnly []ledger.InvoiceItem
	POSOnly     []ledger.POSRecord
}
