// Package model holds the data types shared across the best-combination
// compute pipeline: the catalog shapes read from the repository, the
// request shapes carried through the cache and broker, and the result
// shapes produced by the engine and mapper.
package model

// GameID identifies a single sporting event.
type GameID uint32

// PackageID identifies a streaming package.
type PackageID uint32

// Element is a single offer row: one package's coverage of one game.
type Element struct {
	GameID         GameID `json:"game_id" bson:"game_id"`
	TournamentName string `json:"tournament_name" bson:"tournament_name"`
	Live           uint8  `json:"live" bson:"live"`
	Highlights     uint8  `json:"highlights" bson:"highlights"`
}

// Subset is a candidate package restricted to a query's universe: its
// elements only cover games the caller actually asked about.
type Subset struct {
	PackageID                    PackageID `json:"package_id" bson:"package_id"`
	PackageName                  string    `json:"package_name" bson:"package_name"`
	Elements                     []Element `json:"elements" bson:"elements"`
	MonthlyPriceCents            *uint64   `json:"monthly_price_cents,omitempty" bson:"monthly_price_cents,omitempty"`
	YearlyMonthlyEquivalentCents uint64    `json:"yearly_monthly_equivalent_cents" bson:"yearly_monthly_equivalent_cents"`
}

// GameIDSet returns the distinct game ids this subset covers.
func (s Subset) GameIDSet() map[GameID]struct{} {
	set := make(map[GameID]struct{}, len(s.Elements))
	for _, e := range s.Elements {
		set[e.GameID] = struct{}{}
	}
	return set
}

// FetchOptions carries the caller-tunable knobs for one query.
type FetchOptions struct {
	Limit          uint32 `json:"limit"`
	UseYearlyPrice bool   `json:"use_yearly_price"`
}

// Stage is the three-value coverage aggregate described in spec.md §4.6:
// none of a tournament's offers have the flag set, all of them do, or a
// mix of both.
type Stage uint8

const (
	StageNone    Stage = 0
	StagePartial Stage = 1
	StageFull    Stage = 2
)

// StageOf folds a slice of 0/1 flags into a Stage. An empty slice folds
// to StageNone.
func StageOf(flags []uint8) Stage {
	if len(flags) == 0 {
		return StageNone
	}
	allZero, allOne := true, true
	for _, f := range flags {
		if f != 0 {
			allZero = false
		}
		if f != 1 {
			allOne = false
		}
	}
	switch {
	case allZero:
		return StageNone
	case allOne:
		return StageFull
	default:
		return StagePartial
	}
}

// TournamentCoverage is the per-tournament live/highlights stage pair
// shown on a PackageView.
type TournamentCoverage struct {
	Live       Stage `json:"live"`
	Highlights Stage `json:"highlights"`
}

// PackageView is one package's contribution to a BundleResult.
type PackageView struct {
	ID                           PackageID                      `json:"id"`
	Name                         string                         `json:"name"`
	PerTournamentCoverage        map[string]TournamentCoverage  `json:"per_tournament_coverage"`
	MonthlyPriceCents            *uint64                        `json:"monthly_price_cents,omitempty"`
	YearlyMonthlyEquivalentCents uint64                         `json:"yearly_monthly_equivalent_cents"`
}

// Equal reports whether two PackageViews are structurally identical,
// which is what BundleResult deduplication requires.
func (p PackageView) Equal(o PackageView) bool {
	if p.ID != o.ID || p.Name != o.Name || p.YearlyMonthlyEquivalentCents != o.YearlyMonthlyEquivalentCents {
		return false
	}
	if (p.MonthlyPriceCents == nil) != (o.MonthlyPriceCents == nil) {
		return false
	}
	if p.MonthlyPriceCents != nil && *p.MonthlyPriceCents != *o.MonthlyPriceCents {
		return false
	}
	if len(p.PerTournamentCoverage) != len(o.PerTournamentCoverage) {
		return false
	}
	for k, v := range p.PerTournamentCoverage {
		ov, ok := o.PerTournamentCoverage[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// BundleResult is one scored cover: a set of packages, their combined
// price, and the fraction of the universe they jointly cover.
type BundleResult struct {
	Packages                             []PackageView `json:"packages"`
	CombinedMonthlyPriceCents            uint64        `json:"combined_monthly_price_cents"`
	CombinedYearlyMonthlyEquivalentCents uint64        `json:"combined_yearly_monthly_equivalent_cents"`
	CombinedCoveragePercent              uint8         `json:"combined_coverage_percent"`
}

// IsDuplicateOf reports whether two bundles are the same result under
// spec.md §4.6's dedup rule: equal packages, prices, and coverage. Any
// incidental ordinal metadata a caller attaches is intentionally not
// part of BundleResult and so never participates in this comparison.
func (b BundleResult) IsDuplicateOf(o BundleResult) bool {
	if b.CombinedMonthlyPriceCents != o.CombinedMonthlyPriceCents ||
		b.CombinedYearlyMonthlyEquivalentCents != o.CombinedYearlyMonthlyEquivalentCents ||
		b.CombinedCoveragePercent != o.CombinedCoveragePercent {
		return false
	}
	if len(b.Packages) != len(o.Packages) {
		return false
	}
	for i, p := range b.Packages {
		if !p.Equal(o.Packages[i]) {
			return false
		}
	}
	return true
}

// TaskPayload is the wire shape published to the task queue and
// consumed by the worker. Unknown extra fields in a delivered payload
// are ignored by virtue of Go's default JSON decoding.
type TaskPayload struct {
	GameIDs []GameID `json:"game_ids"`
	Limit   uint32   `json:"limit"`
}
