// Package engine implements the Enumeration Engine (spec.md §4.5, C5):
// a bounded, heuristic-sorted recursive search that yields up to `limit`
// distinct near-optimal covers of a universe of games, falling back to
// best-effort partial covers when full coverage is unreachable from a
// branch.
package engine

import (
	"math"
	"sort"

	"github.com/AlfredDev/bestcombo/mapper"
	"github.com/AlfredDev/bestcombo/model"
)

// maxCost is the MAX-sentinel spec.md §9 open question 1 describes for a
// subset with no monthly plan when the engine is configured to use
// monthly price: it still participates in ratio sorting as an
// effectively infinite cost, even though the mapper later reports it as
// 0 via MonthlyPriceCents being nil.
const maxCost = math.MaxUint64

// Run executes the search over universe and subsets, returning up to
// limit distinct BundleResult values. useYearlyPrice selects which cost
// field the ratio heuristic sorts by (spec.md §6's use_yearly_price).
//
// Edge case (spec.md §4.5): an empty universe or empty subsets list
// returns a single zero-valued bundle, never an empty list — this
// matches §9's "Approximation emission policy" guarantee that the
// result list is non-empty whenever both inputs are non-empty, and
// extends it to the degenerate case where one of them is empty.
func Run(universe []model.GameID, subsets []model.Subset, limit uint32, useYearlyPrice bool) []model.BundleResult {
	if len(universe) == 0 || len(subsets) == 0 {
		return []model.BundleResult{mapper.Map(nil, subsets, universe)}
	}

	universeSet := make(map[model.GameID]struct{}, len(universe))
	for _, id := range universe {
		universeSet[id] = struct{}{}
	}

	s := &search{
		universe:       universe,
		universeSet:    universeSet,
		subsets:        subsets,
		limit:          int(limit),
		useYearlyPrice: useYearlyPrice,
	}

	var cover []model.PackageID
	s.visit(cover, map[model.GameID]struct{}{})
	return s.results
}

type search struct {
	universe       []model.GameID
	universeSet    map[model.GameID]struct{}
	subsets        []model.Subset
	limit          int
	useYearlyPrice bool

	results []model.BundleResult
}

// candidate is a subset still worth branching on at the current node,
// paired with its precomputed ratio and original index for stable sort.
type candidate struct {
	subset model.Subset
	ratio  float64
	index  int
}

// visit explores one DFS node reached by cover, whose union of covered
// game ids is covered. It returns true if the search should halt
// entirely (limit reached).
//
// Terminal condition resolves spec.md §4.5's step 2/step 5 ambiguity:
// full coverage, the depth cap, and "no candidate can add further
// coverage" are the three terminal cases, and each emits exactly once.
// See SPEC_FULL.md's "Resolved ambiguity" note for the worked-example
// justification.
func (s *search) visit(cover []model.PackageID, covered map[model.GameID]struct{}) bool {
	if len(covered) == len(s.universeSet) || len(cover) >= len(s.subsets) {
		return s.emit(cover)
	}

	candidates := s.rankCandidates(covered)
	if len(candidates) == 0 {
		return s.emit(cover)
	}

	for _, c := range candidates {
		next := append(append([]model.PackageID{}, cover...), c.subset.PackageID)
		nextCovered := unionCovered(covered, c.subset, s.universeSet)
		if s.visit(next, nextCovered) {
			return true
		}
	}

	return len(s.results) >= s.limit
}

// emit materializes the current cover as a BundleResult, skips it if
// it duplicates an already-accumulated result, and reports whether the
// search should halt because limit has been reached.
func (s *search) emit(cover []model.PackageID) bool {
	bundle := mapper.Map(cover, s.subsets, s.universe)

	duplicate := false
	for _, existing := range s.results {
		if bundle.IsDuplicateOf(existing) {
			duplicate = true
			break
		}
	}
	if !duplicate {
		s.results = append(s.results, bundle)
	}

	return len(s.results) >= s.limit
}

// rankCandidates implements spec.md §4.5 step 3: subsets that would add
// at least one previously-uncovered game, sorted ascending by
// cost/newly-covered ratio, ties broken by original input order.
func (s *search) rankCandidates(covered map[model.GameID]struct{}) []candidate {
	var candidates []candidate
	for i, subset := range s.subsets {
		newCount := 0
		for _, e := range subset.Elements {
			if _, ok := s.universeSet[e.GameID]; !ok {
				continue
			}
			if _, already := covered[e.GameID]; !already {
				newCount++
			}
		}
		if newCount == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			subset: subset,
			ratio:  float64(s.cost(subset)) / float64(newCount),
			index:  i,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ratio < candidates[j].ratio
	})
	return candidates
}

// cost returns the ratio heuristic's cost field per spec.md §4.5 step 3
// and the use_yearly_price switch of §6.
func (s *search) cost(subset model.Subset) uint64 {
	if s.useYearlyPrice {
		return subset.YearlyMonthlyEquivalentCents
	}
	if subset.MonthlyPriceCents == nil {
		return maxCost
	}
	return *subset.MonthlyPriceCents
}

// unionCovered returns a new set extending covered with subset's game
// ids that lie in the universe, leaving covered untouched.
func unionCovered(covered map[model.GameID]struct{}, subset model.Subset, universeSet map[model.GameID]struct{}) map[model.GameID]struct{} {
	next := make(map[model.GameID]struct{}, len(covered)+len(subset.Elements))
	for id := range covered {
		next[id] = struct{}{}
	}
	for _, e := range subset.Elements {
		if _, ok := universeSet[e.GameID]; ok {
			next[e.GameID] = struct{}{}
		}
	}
	return next
}
