package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type geoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type placeDocument struct {
	Name     string       `bson:"name"`
	Address  string       `bson:"address"`
	Category string       `bson:"category"`
	Location geoJSONPoint `bson:"location"`
	IsOpen   *bool        `bson:"is_open,omitempty"`
}

// PlaceCatalog answers nearest-place queries from a 2dsphere-indexed
// collection.
type PlaceCatalog struct {
	coll *mongo.Collection
}

func NewPlaceCatalog(coll *mongo.Collection) *PlaceCatalog {
	return &PlaceCatalog{coll: coll}
}

func (c *PlaceCatalog) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}, {Key: "category", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create places index: %w", err)
	}
	return nil
}

func (c *PlaceCatalog) AddPlace(ctx context.Context, p domain.PlaceResult) error {
	_, err := c.coll.InsertOne(ctx, placeDocument{
		Name:     p.Name,
		Address:  p.Address,
		Category: string(p.Category),
		Location: geoJSONPoint{Type: "Point", Coordinates: []float64{p.Location.Lng, p.Location.Lat}},
		IsOpen:   p.IsOpen,
	})
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func nearestFilter(center domain.GeoPoint, categories []domain.PlaceCategory, radiusMeters float64, openOnly bool) bson.M {
	cats := make([]string, len(categories))
	for i, cat := range categories {
		cats[i] = string(cat)
	}
	filter := bson.M{
		"category": bson.M{"$in": cats},
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": []float64{center.Lng, center.Lat}},
				"$maxDistance": radiusMeters,
			},
		},
	}
	if openOnly {
		// places with unknown hours still qualify
		filter["is_open"] = bson.M{"$ne": false}
	}
	return filter
}

func (c *PlaceCatalog) FindNearest(ctx context.Context, center domain.GeoPoint, categories []domain.PlaceCategory, radiusMeters float64, openOnly bool) (*domain.PlaceResult, error) {
	if c == nil || c.coll == nil {
		return nil, domain.ErrLookupUnavailable
	}
	if len(categories) == 0 {
		return nil, nil
	}

	var doc placeDocument
	err := c.coll.FindOne(ctx, nearestFilter(center, categories, radiusMeters, openOnly)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		if errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return nil, fmt.Errorf("find nearest place: %w: %v", domain.ErrLookupUnavailable, err)
		}
		return nil, fmt.Errorf("find nearest place: %w", err)
	}
	if len(doc.Location.Coordinates) != 2 {
		return nil, fmt.Errorf("place %q: malformed location", doc.Name)
	}

	loc := domain.GeoPoint{Lat: doc.Location.Coordinates[1], Lng: doc.Location.Coordinates[0]}
	return &domain.PlaceResult{
		Name:           doc.Name,
		Address:        doc.Address,
		Location:       loc,
		Category:       domain.PlaceCategory(doc.Category),
		DistanceMeters: domain.Distance(center, loc),
		IsOpen:         doc.IsOpen,
	}, nil
}
