// Package mapper implements the Result Mapper (spec.md §4.6, C6): it
// turns a chosen set of package ids, the candidate subsets they were
// drawn from, and the query universe into a structured BundleResult.
package mapper

import (
	"sort"

	"github.com/AlfredDev/bestcombo/model"
)

// Map builds the BundleResult for cover (a slice of chosen package ids,
// possibly containing duplicates) over subsets restricted to universe.
func Map(cover []model.PackageID, subsets []model.Subset, universe []model.GameID) model.BundleResult {
	inCover := make(map[model.PackageID]struct{}, len(cover))
	for _, id := range cover {
		inCover[id] = struct{}{}
	}

	universeSet := make(map[model.GameID]struct{}, len(universe))
	for _, id := range universe {
		universeSet[id] = struct{}{}
	}

	var packages []model.PackageView
	var monthlySum, yearlySum uint64
	seen := make(map[model.PackageID]struct{}, len(cover))
	coveredIDs := make(map[model.GameID]struct{})

	for _, s := range subsets {
		if _, want := inCover[s.PackageID]; !want {
			continue
		}
		if _, dup := seen[s.PackageID]; dup {
			continue
		}
		seen[s.PackageID] = struct{}{}

		packages = append(packages, model.PackageView{
			ID:                           s.PackageID,
			Name:                         s.PackageName,
			PerTournamentCoverage:        tournamentCoverage(s.Elements),
			MonthlyPriceCents:            s.MonthlyPriceCents,
			YearlyMonthlyEquivalentCents: s.YearlyMonthlyEquivalentCents,
		})

		if s.MonthlyPriceCents != nil {
			monthlySum += *s.MonthlyPriceCents
		}
		yearlySum += s.YearlyMonthlyEquivalentCents

		for _, e := range s.Elements {
			if _, ok := universeSet[e.GameID]; ok {
				coveredIDs[e.GameID] = struct{}{}
			}
		}
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].ID < packages[j].ID
	})

	return model.BundleResult{
		Packages:                             packages,
		CombinedMonthlyPriceCents:            monthlySum,
		CombinedYearlyMonthlyEquivalentCents: yearlySum,
		CombinedCoveragePercent:              coveragePercent(len(coveredIDs), len(universe)),
	}
}

// tournamentCoverage groups a package's elements by tournament and folds
// each group's live and highlights flags into three-stage values.
func tournamentCoverage(elements []model.Element) map[string]model.TournamentCoverage {
	if len(elements) == 0 {
		return map[string]model.TournamentCoverage{}
	}

	type flags struct {
		live, highlights []uint8
	}
	byTournament := make(map[string]*flags)
	var order []string
	for _, e := range elements {
		f, ok := byTournament[e.TournamentName]
		if !ok {
			f = &flags{}
			byTournament[e.TournamentName] = f
			order = append(order, e.TournamentName)
		}
		f.live = append(f.live, e.Live)
		f.highlights = append(f.highlights, e.Highlights)
	}

	out := make(map[string]model.TournamentCoverage, len(byTournament))
	for _, name := range order {
		f := byTournament[name]
		out[name] = model.TournamentCoverage{
			Live:       model.StageOf(f.live),
			Highlights: model.StageOf(f.highlights),
		}
	}
	return out
}

// coveragePercent implements spec.md §4.6 step 3: round(100 * covered /
// universe), defined as 0 when the universe is empty.
func coveragePercent(covered, universeSize int) uint8 {
	if universeSize == 0 {
		return 0
	}
	pct := (100*covered + universeSize/2) / universeSize
	if pct > 100 {
		pct = 100
	}
	return uint8(pct)
}
