package mapper

import (
	"testing"

	"github.com/AlfredDev/bestcombo/model"
)

func ptr(v uint64) *uint64 { return &v }

func elem(gameID uint32, tournament string, live, highlights uint8) model.Element {
	return model.Element{GameID: model.GameID(gameID), TournamentName: tournament, Live: live, Highlights: highlights}
}

func TestMapBasicBundle(t *testing.T) {
	universe := []model.GameID{1, 2, 3}
	subsets := []model.Subset{
		{
			PackageID:                    1,
			PackageName:                  "P1",
			Elements:                     []model.Element{elem(1, "A", 1, 1), elem(2, "B", 1, 0), elem(3, "C", 0, 0)},
			MonthlyPriceCents:            ptr(10),
			YearlyMonthlyEquivalentCents: 10,
		},
	}

	bundle := Map([]model.PackageID{1}, subsets, universe)

	if len(bundle.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(bundle.Packages))
	}
	p := bundle.Packages[0]
	wantA := model.TournamentCoverage{Live: model.StageFull, Highlights: model.StageFull}
	wantB := model.TournamentCoverage{Live: model.StageFull, Highlights: model.StageNone}
	wantC := model.TournamentCoverage{Live: model.StageNone, Highlights: model.StageNone}
	if p.PerTournamentCoverage["A"] != wantA || p.PerTournamentCoverage["B"] != wantB || p.PerTournamentCoverage["C"] != wantC {
		t.Fatalf("unexpected per-tournament coverage: %+v", p.PerTournamentCoverage)
	}
	if bundle.CombinedMonthlyPriceCents != 10 || bundle.CombinedYearlyMonthlyEquivalentCents != 10 {
		t.Fatalf("unexpected combined prices: %+v", bundle)
	}
	if bundle.CombinedCoveragePercent != 100 {
		t.Fatalf("expected 100%% coverage, got %d", bundle.CombinedCoveragePercent)
	}
}

// Invariant 3: mapper idempotence w.r.t. duplicate ids in current_cover.
func TestMapCollapsesDuplicateCoverIDs(t *testing.T) {
	universe := []model.GameID{1}
	subsets := []model.Subset{
		{PackageID: 1, PackageName: "P1", Elements: []model.Element{elem(1, "A", 1, 1)}, MonthlyPriceCents: ptr(5), YearlyMonthlyEquivalentCents: 10},
	}

	bundle := Map([]model.PackageID{1, 1, 1}, subsets, universe)

	if len(bundle.Packages) != 1 {
		t.Fatalf("expected cover duplicates to collapse to 1 package, got %d", len(bundle.Packages))
	}
	if bundle.CombinedMonthlyPriceCents != 5 || bundle.CombinedYearlyMonthlyEquivalentCents != 10 {
		t.Fatalf("expected sums counted once per contributing subset, got %+v", bundle)
	}
}

// A package id repeated across distinct subset entries also collapses,
// per spec.md §4.6 step 2's seen_ids check.
func TestMapCollapsesDuplicateSubsetEntries(t *testing.T) {
	universe := []model.GameID{1}
	dup := model.Subset{PackageID: 1, PackageName: "P1", Elements: []model.Element{elem(1, "A", 1, 1)}, MonthlyPriceCents: ptr(5), YearlyMonthlyEquivalentCents: 10}
	subsets := []model.Subset{dup, dup}

	bundle := Map([]model.PackageID{1}, subsets, universe)

	if len(bundle.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(bundle.Packages))
	}
	if bundle.CombinedMonthlyPriceCents != 5 || bundle.CombinedYearlyMonthlyEquivalentCents != 10 {
		t.Fatalf("expected sums counted once, got %+v", bundle)
	}
}

// Invariant 9: sorted package order.
func TestMapSortsPackagesByID(t *testing.T) {
	universe := []model.GameID{1, 2}
	subsets := []model.Subset{
		{PackageID: 3, Elements: []model.Element{elem(1, "A", 1, 1)}},
		{PackageID: 1, Elements: []model.Element{elem(2, "A", 1, 1)}},
	}

	bundle := Map([]model.PackageID{3, 1}, subsets, universe)

	if len(bundle.Packages) != 2 || bundle.Packages[0].ID != 1 || bundle.Packages[1].ID != 3 {
		t.Fatalf("expected packages sorted ascending by id, got %+v", bundle.Packages)
	}
}

func TestMapMonthlyPriceNilTreatedAsZeroInSum(t *testing.T) {
	universe := []model.GameID{1}
	subsets := []model.Subset{
		{PackageID: 1, Elements: []model.Element{elem(1, "A", 1, 1)}, MonthlyPriceCents: nil, YearlyMonthlyEquivalentCents: 20},
	}

	bundle := Map([]model.PackageID{1}, subsets, universe)

	if bundle.CombinedMonthlyPriceCents != 0 {
		t.Fatalf("expected a nil monthly price to contribute 0 to the sum, got %d", bundle.CombinedMonthlyPriceCents)
	}
	if bundle.Packages[0].MonthlyPriceCents != nil {
		t.Fatalf("expected the package view to preserve the nil monthly price")
	}
}

func TestMapEmptyUniverseYieldsZeroCoverage(t *testing.T) {
	bundle := Map(nil, nil, nil)
	if bundle.CombinedCoveragePercent != 0 {
		t.Fatalf("expected 0%% coverage for an empty universe, got %d", bundle.CombinedCoveragePercent)
	}
	if len(bundle.Packages) != 0 {
		t.Fatalf("expected no packages, got %+v", bundle.Packages)
	}
}

// Invariant 8: three-stage coverage law.
func TestStageOfLaw(t *testing.T) {
	cases := []struct {
		flags []uint8
		want  model.Stage
	}{
		{nil, model.StageNone},
		{[]uint8{}, model.StageNone},
		{[]uint8{0, 0, 0}, model.StageNone},
		{[]uint8{1, 1, 1}, model.StageFull},
		{[]uint8{0, 1}, model.StagePartial},
		{[]uint8{1, 0, 1}, model.StagePartial},
	}
	for _, c := range cases {
		if got := model.StageOf(c.flags); got != c.want {
			t.Fatalf("StageOf(%v) = %v, want %v", c.flags, got, c.want)
		}
	}
}
