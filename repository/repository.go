// Package repository implements the Package Repository (spec.md §4.4,
// C4): given a universe of game ids, it returns the candidate subsets
// that cover at least one of them, restricted to that universe.
package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AlfredDev/bestcombo/apperr"
	"github.com/AlfredDev/bestcombo/model"
)

const (
	packagesCollection = "bc_streaming_package"
	offersCollection   = "bc_streaming_offer"
	gamesCollection    = "bc_game"
)

// PackageRepository is the contract the Worker Loop depends on to load
// candidates for a task, plus the Dispatcher's ancillary universe
// resolution.
type PackageRepository interface {
	// AggregateSubsetsByGameIDs returns exactly the packages that offer
	// at least one game in universe, each restricted to that universe.
	AggregateSubsetsByGameIDs(ctx context.Context, universe []model.GameID) ([]model.Subset, error)

	// AggregateGameIDs resolves a universe from team and/or tournament
	// filters. Returns an empty list iff both filters are absent.
	AggregateGameIDs(ctx context.Context, teams, tournaments []string) ([]model.GameID, error)
}

// MongoRepository implements PackageRepository over MongoDB.
type MongoRepository struct {
	packages *mongo.Collection
	offers   *mongo.Collection
	games    *mongo.Collection
}

var _ PackageRepository = (*MongoRepository)(nil)

// NewMongoRepository builds a MongoRepository over the given database.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		packages: db.Collection(packagesCollection),
		offers:   db.Collection(offersCollection),
		games:    db.Collection(gamesCollection),
	}
}

// Connect dials MongoDB at uri and pings it, mirroring redisclient.New's
// connect-and-validate shape.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", apperr.ErrTransport, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: mongo ping: %v", apperr.ErrTransport, err)
	}
	return client, nil
}

// rawElement is the per-offer shape projected by the aggregation
// pipeline, joined against bc_game for its tournament name.
type rawElement struct {
	GameID         uint32 `bson:"game_id"`
	TournamentName string `bson:"tournament_name"`
	Live           uint8  `bson:"live"`
	Highlights     uint8  `bson:"highlights"`
}

// rawSubset is one package's aggregated document, before the upstream
// price-field normalization (flexiblePrice) is applied.
type rawSubset struct {
	PackageID                    uint32        `bson:"package_id"`
	PackageName                  string        `bson:"package_name"`
	Elements                     []rawElement  `bson:"elements"`
	MonthlyPriceCents            flexiblePrice `bson:"monthly_price_cents"`
	YearlyMonthlyEquivalentCents uint64        `bson:"yearly_monthly_equivalent_cents"`
}

func (r rawSubset) toModel() model.Subset {
	elements := make([]model.Element, len(r.Elements))
	for i, e := range r.Elements {
		elements[i] = model.Element{
			GameID:         model.GameID(e.GameID),
			TournamentName: e.TournamentName,
			Live:           e.Live,
			Highlights:     e.Highlights,
		}
	}
	return model.Subset{
		PackageID:                    model.PackageID(r.PackageID),
		PackageName:                  r.PackageName,
		Elements:                     elements,
		MonthlyPriceCents:            r.MonthlyPriceCents.value,
		YearlyMonthlyEquivalentCents: r.YearlyMonthlyEquivalentCents,
	}
}

// AggregateSubsetsByGameIDs implements PackageRepository. The pipeline
// joins each package to its offers restricted to universe, drops
// packages with no matching offers, and projects the remainder into the
// Subset shape, following the $lookup/$match/$project shape of the
// original preprocessing pipeline this service was ported from.
func (r *MongoRepository) AggregateSubsetsByGameIDs(ctx context.Context, universe []model.GameID) ([]model.Subset, error) {
	ids := make(bson.A, len(universe))
	for i, id := range universe {
		ids[i] = uint32(id)
	}

	pipeline := bson.A{
		bson.M{"$lookup": bson.M{
			"from":         offersCollection,
			"localField":   "package_id",
			"foreignField": "package_id",
			"as":           "offers",
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"game_id": bson.M{"$in": ids}}},
				bson.M{"$lookup": bson.M{
					"from":         gamesCollection,
					"localField":   "game_id",
					"foreignField": "game_id",
					"as":           "game",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"_id": 0, "tournament_name": 1}},
					},
				}},
				bson.M{"$unwind": "$game"},
				bson.M{"$project": bson.M{
					"_id":             0,
					"game_id":         1,
					"tournament_name": "$game.tournament_name",
					"live":            1,
					"highlights":      1,
				}},
			},
		}},
		bson.M{"$match": bson.M{"offers": bson.M{"$ne": bson.A{}}}},
		bson.M{"$project": bson.M{
			"_id":                             0,
			"package_id":                      1,
			"package_name":                    1,
			"monthly_price_cents":             1,
			"yearly_monthly_equivalent_cents": 1,
			"elements":                        "$offers",
		}},
	}

	cursor, err := r.packages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate subsets: %v", apperr.ErrStore, err)
	}
	defer cursor.Close(ctx)

	var raw []rawSubset
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode subsets: %v", apperr.ErrDeserialization, err)
	}

	subsets := make([]model.Subset, len(raw))
	for i, r := range raw {
		subsets[i] = r.toModel()
	}
	return subsets, nil
}

// AggregateGameIDs implements PackageRepository.
func (r *MongoRepository) AggregateGameIDs(ctx context.Context, teams, tournaments []string) ([]model.GameID, error) {
	if len(teams) == 0 && len(tournaments) == 0 {
		return nil, nil
	}

	or := bson.A{}
	if len(teams) > 0 {
		or = append(or,
			bson.M{"team_home": bson.M{"$in": teams}},
			bson.M{"team_away": bson.M{"$in": teams}},
		)
	}
	if len(tournaments) > 0 {
		or = append(or, bson.M{"tournament_name": bson.M{"$in": tournaments}})
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"$or": or}},
		bson.M{"$project": bson.M{"game_id": 1, "_id": 0}},
	}

	cursor, err := r.games.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate game ids: %v", apperr.ErrStore, err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		GameID uint32 `bson:"game_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode game ids: %v", apperr.ErrDeserialization, err)
	}

	ids := make([]model.GameID, len(docs))
	for i, d := range docs {
		ids[i] = model.GameID(d.GameID)
	}
	return ids, nil
}
