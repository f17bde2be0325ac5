// Package matcher pairs normalized invoice items with POS records using a
// three-tier strategy: exact, fuzzy name, fuzzy amount. Matching is greedy
// and exclusive. A consumed POS record leaves the candidate pool for all
// later invoice items, and results are deterministic for a given input order.
package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// epsilon absorbs float64 representation error in amount comparisons.
const epsilon = 1e-9

// Matcher runs the tiered matching strategy over a materialized candidate
// pool. The full pool is required up front: exclusivity and deterministic
// tie-breaking do not survive streamed input.
type Matcher struct {
	opts Options
}

// New creates a matcher with the given options.
func New(opts Options) *Matcher {
	return &Matcher{opts: opts}
}

// Match partitions the invoice items and POS records into matched pairs plus
// the two unmatched sets. Tiers are tried in order per invoice item against
// the not-yet-consumed POS pool. The returned error reports an internal
// invariant violation; the partial result is not usable in that case.
func (m *Matcher) Match(invoices []ledger.InvoiceItem, pos []ledger.POSRecord) (*Result, error) {
	pool := newPool(pos)

	result := &Result{
		Matched:     make([]MatchedItem, 0, len(invoices)),
		InvoiceOnly: make([]ledger.InvoiceItem, 0),
		POSOnly:     make([]ledger.POSRecord, 0),
	}

	for _, inv := range invoices {
		matched := false
		for _, tier := range []MatchTier{TierExact, TierFuzzyName, TierFuzzyAmount} {
			best, ok := m.findBest(inv, pos, pool, tier)
			if !ok {
				continue
			}

			if err := pool.consume(best.index); err != nil {
				return nil, err
			}

			status := ledger.StatusUnresolved
			if tier == TierExact && m.opts.AutoResolveExactMatches {
				status = ledger.StatusApproved
			}

			result.Matched = append(result.Matched, MatchedItem{
				Invoice:          inv,
				POS:              pos[best.index],
				POSIndex:         best.index,
				Tier:             tier,
				Confidence:       best.confidence,
				AmountVariance:   best.amountVariance,
				QuantityVariance: best.quantityVariance,
				Status:           status,
			})
			matched = true
			break
		}

		if !matched {
			result.InvoiceOnly = append(result.InvoiceOnly, inv)
		}
	}

	for i, rec := range pos {
		if pool.isAvailable(i) {
			result.POSOnly = append(result.POSOnly, rec)
		}
	}

	if err := verify(result, len(invoices), len(pos)); err != nil {
		return nil, err
	}

	return result, nil
}

// candidate is one eligible pairing under the active tier.
type candidate struct {
	index            int
	confidence       float64
	amountVariance   float64
	quantityVariance float64
	keyMatch         bool
}

// findBest scans the remaining pool for the best candidate under the given
// tier. Tie-break order: highest confidence, identity-key agreement,
// smallest absolute amount variance, earliest POS record in input order.
func (m *Matcher) findBest(inv ledger.InvoiceItem, pos []ledger.POSRecord, p *pool, tier MatchTier) (candidate, bool) {
	var best candidate
	found := false

	for _, idx := range p.candidates(inv.Date, tier) {
		rec := pos[idx]
		keyMatch, eligible := m.eligible(inv, rec, tier)
		if !eligible {
			continue
		}

		conf, av, qv := Score(inv, rec, tier, m.opts)
		c := candidate{
			index:            idx,
			confidence:       conf,
			amountVariance:   av,
			quantityVariance: qv,
			keyMatch:         keyMatch,
		}

		if !found || better(c, best) {
			best = c
			found = true
		}
	}

	return best, found
}

// better reports whether a should be preferred over b. Candidates arrive in
// ascending input order, so a strict comparison keeps the earliest record on
// full ties.
func better(a, b candidate) bool {
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	if a.keyMatch != b.keyMatch {
		return a.keyMatch
	}
	return math.Abs(a.amountVariance) < math.Abs(b.amountVariance)
}

// eligible applies the tier's acceptance rules and reports whether both
// sides carry an agreeing identity key.
func (m *Matcher) eligible(inv ledger.InvoiceItem, rec ledger.POSRecord, tier MatchTier) (keyMatch, ok bool) {
	keyMatch = inv.IdentityKey != "" && inv.IdentityKey == rec.IdentityKey()

	switch tier {
	case TierExact:
		if !sameDay(inv.Date, rec.Date()) {
			return keyMatch, false
		}
		if math.Abs(rec.Amount()-inv.TotalAmount) > m.opts.AmountTolerance+epsilon {
			return keyMatch, false
		}
		// When both sides carry an identity key the keys must agree.
		if inv.IdentityKey != "" && rec.IdentityKey() != "" && !keyMatch {
			return keyMatch, false
		}
		return keyMatch, true

	case TierFuzzyName:
		if dayDiff(inv.Date, rec.Date()) > 1 {
			return keyMatch, false
		}
		return keyMatch, m.namesRelated(inv.Identity, rec.Identity())

	case TierFuzzyAmount:
		if !sameDay(inv.Date, rec.Date()) {
			return keyMatch, false
		}
		tolerance := m.opts.PercentTolerance / 100
		rel := math.Abs(rec.Amount()-inv.TotalAmount) / math.Max(inv.TotalAmount, 1)
		return keyMatch, rel <= tolerance+epsilon
	}

	return keyMatch, false
}

// namesRelated reports whether two canonical identities are close enough for
// the fuzzy name tier: one contains the other, or they share a token longer
// than the similarity threshold.
func (m *Matcher) namesRelated(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	minLen := m.opts.NameSimilarityThreshold
	if minLen <= 0 {
		minLen = DefaultOptions().NameSimilarityThreshold
	}

	bTokens := make(map[string]bool)
	for _, tok := range strings.Fields(b) {
		if len(tok) > minLen {
			bTokens[tok] = true
		}
	}
	for _, tok := range strings.Fields(a) {
		if len(tok) > minLen && bTokens[tok] {
			return true
		}
	}
	return false
}

// verify checks the partition and confidence invariants. A violation here is
// a programming error and must abort the run rather than report an
// inconsistent result.
func verify(r *Result, invoiceCount, posCount int) error {
	if got := len(r.Matched) + len(r.InvoiceOnly); got != invoiceCount {
		return fmt.Errorf("partition invariant violated: %d invoice items in, %d partitioned", invoiceCount, got)
	}
	if got := len(r.Matched) + len(r.POSOnly); got != posCount {
		return fmt.Errorf("partition invariant violated: %d pos records in, %d partitioned", posCount, got)
	}
	for _, m := range r.Matched {
		if m.Confidence < 0 || m.Confidence > 1 {
			return fmt.Errorf("confidence out of bounds: %v for tier %s", m.Confidence, m.Tier)
		}
		if m.Tier == TierExact && m.Confidence != 1.0 {
			return fmt.Errorf("exact match with confidence %v", m.Confidence)
		}
	}
	return nil
}

// pool tracks not-yet-consumed POS records as per-date-bucket index sets.
// Consuming an index removes it atomically from its bucket, so exclusivity
// never depends on record identity or mutation.
type pool struct {
	buckets   map[string][]int
	available []bool
}

func newPool(pos []ledger.POSRecord) *pool {
	p := &pool{
		buckets:   make(map[string][]int),
		available: make([]bool, len(pos)),
	}
	for i, rec := range pos {
		key := dateKey(rec.Date())
		p.buckets[key] = append(p.buckets[key], i)
		p.available[i] = true
	}
	return p
}

// candidates returns the remaining indices eligible by date for the tier, in
// original input order. The fuzzy name tier widens the window to ±1 day.
func (p *pool) candidates(date time.Time, tier MatchTier) []int {
	days := []time.Time{date}
	if tier == TierFuzzyName {
		days = []time.Time{date.AddDate(0, 0, -1), date, date.AddDate(0, 0, 1)}
	}

	var out []int
	for _, d := range days {
		for _, idx := range p.buckets[dateKey(d)] {
			if p.available[idx] {
				out = append(out, idx)
			}
		}
	}
	// Tie-breaking needs original input order across day buckets.
	sort.Ints(out)
	return out
}

func (p *pool) consume(idx int) error {
	if !p.available[idx] {
		return fmt.Errorf("pos record %d consumed twice", idx)
	}
	p.available[idx] = false
	return nil
}

func (p *pool) isAvailable(idx int) bool {
	return p.available[idx]
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func sameDay(a, b time.Time) bool {
	return dateKey(a) == dateKey(b)
}

func dayDiff(a, b time.Time) int {
	d := int(math.Round(a.Sub(b).Hours() / 24))
	if d < 0 {
		return -d
	}
	return d
}
