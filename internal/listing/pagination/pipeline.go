package pagination

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trailpoint/listing-service/internal/listing/domain"
)

// descriptionPreviewLength is the number of Unicode codepoints kept in the
// feed projection of a listing description.
const descriptionPreviewLength = 240

// BuildMatchStage translates the filter into a conjunction of predicates.
// An empty filter produces an empty document.
func BuildMatchStage(f *domain.FeedFilter) bson.M {
	match := bson.M{}
	if f.VerifiedOnly {
		match["is_verified"] = true
	}
	if len(f.Categories) > 0 {
		match["categories"] = bson.M{"$in": f.Categories}
	}
	if len(f.Tags) > 0 {
		match["tags"] = bson.M{"$in": f.Tags}
	}
	if f.MinRating > 0 {
		match["average_rating"] = bson.M{"$gte": f.MinRating}
	}
	if f.Difficulty != "" {
		match["difficulty"] = string(f.Difficulty)
	}
	return match
}

// BuildGeoNearStage builds the nearest-neighbor stage. The match predicates
// are folded in as the stage's query so the index walk prunes early. When no
// distance filter is active the bound falls back to a large default.
func BuildGeoNearStage(f *domain.FeedFilter, match bson.M) bson.D {
	boundKm := f.DistanceKm
	if boundKm <= 0 {
		boundKm = domain.DefaultGeoBoundKm
	}
	return bson.D{{Key: "$geoNear", Value: bson.D{
		{Key: "near", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{*f.Lng, *f.Lat}},
		}},
		{Key: "distanceField", Value: "distance_meters"},
		{Key: "spherical", Value: true},
		{Key: "key", Value: "location"},
		{Key: "maxDistance", Value: boundKm * 1000},
		{Key: "query", Value: match},
	}}}
}

// BuildCursorStage turns a decoded cursor into the keyset boundary: a
// disjunction of tie-broken range conditions admitting only rows strictly
// after the cursor position in the active sort order. A malformed identity
// reference inside the cursor is a client error.
func BuildCursorStage(c *Cursor, sort domain.SortMode) (bson.M, error) {
	if c == nil {
		return bson.M{}, nil
	}
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id %q", domain.ErrInvalidCursor, c.ID)
	}
	createdAt := c.createdAtOrZero()

	switch sort {
	case domain.SortRatingDesc, domain.SortRatingAsc:
		op := "$lt"
		if sort == domain.SortRatingAsc {
			op = "$gt"
		}
		rating := c.averageRatingOrZero()
		return bson.M{"$or": bson.A{
			bson.M{"average_rating": bson.M{op: rating}},
			bson.M{"average_rating": rating, "created_at": bson.M{"$lt": createdAt}},
			bson.M{"average_rating": rating, "created_at": createdAt, "_id": bson.M{"$lt": oid}},
		}}, nil

	case domain.SortLikesDesc, domain.SortLikesAsc:
		op := "$lt"
		if sort == domain.SortLikesAsc {
			op = "$gt"
		}
		likes := c.likesCountOrZero()
		return bson.M{"$or": bson.A{
			bson.M{"likes_count": bson.M{op: likes}},
			bson.M{"likes_count": likes, "created_at": bson.M{"$lt": createdAt}},
			bson.M{"likes_count": likes, "created_at": createdAt, "_id": bson.M{"$lt": oid}},
		}}, nil

	case domain.SortDistance:
		dist := c.distanceMetersOrZero()
		rating := c.averageRatingOrZero()
		return bson.M{"$or": bson.A{
			bson.M{"distance_meters": bson.M{"$gt": dist}},
			bson.M{"distance_meters": dist, "average_rating": bson.M{"$lt": rating}},
			bson.M{"distance_meters": dist, "average_rating": rating, "created_at": bson.M{"$lt": createdAt}},
			bson.M{"distance_meters": dist, "average_rating": rating, "created_at": createdAt, "_id": bson.M{"$lt": oid}},
		}}, nil

	default: // newest, and anything unknown planning as newest
		return bson.M{"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": createdAt}},
			bson.M{"created_at": createdAt, "_id": bson.M{"$lt": oid}},
		}}, nil
	}
}

// BuildSortStage returns the total order for the sort mode, always terminated
// by descending _id so no ties survive. Unknown modes order as newest.
func BuildSortStage(sort domain.SortMode) bson.D {
	switch sort {
	case domain.SortRatingDesc:
		return bson.D{{Key: "average_rating", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case domain.SortRatingAsc:
		return bson.D{{Key: "average_rating", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case domain.SortLikesDesc:
		return bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case domain.SortLikesAsc:
		return bson.D{{Key: "likes_count", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case domain.SortDistance:
		return bson.D{{Key: "distance_meters", Value: 1}, {Key: "average_rating", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// BuildProjectStage shapes feed rows: truncated description, at most one
// image, and the denormalized aggregates.
func BuildProjectStage(withDistance bool) bson.D {
	project := bson.D{
		{Key: "name", Value: 1},
		{Key: "description", Value: bson.D{{Key: "$substrCP", Value: bson.A{"$description", 0, descriptionPreviewLength}}}},
		{Key: "categories", Value: 1},
		{Key: "tags", Value: 1},
		{Key: "images", Value: bson.D{{Key: "$slice", Value: bson.A{"$images", 1}}}},
		{Key: "average_rating", Value: 1},
		{Key: "ratings_count", Value: 1},
		{Key: "likes_count", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "physical_address", Value: 1},
		{Key: "location", Value: 1},
	}
	if withDistance {
		project = append(project, bson.E{Key: "distance_meters", Value: 1})
	}
	return project
}

// BuildPipeline plans one feed page: match, optional geo-nearest, cursor
// boundary, projection, sort, and an over-fetch-by-one limit. The cursor, if
// any, must already be decoded; validation errors on it surface here.
func BuildPipeline(f *domain.FeedFilter, cursor *Cursor) (mongo.Pipeline, error) {
	match := BuildMatchStage(f)
	cursorMatch, err := BuildCursorStage(cursor, f.Sort)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{}
	if f.GeoActive() {
		pipeline = append(pipeline, BuildGeoNearStage(f, match))
		if len(cursorMatch) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: cursorMatch}})
		}
	} else {
		if len(match) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
		}
		if len(cursorMatch) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: cursorMatch}})
		}
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: BuildProjectStage(f.GeoActive())}},
		bson.D{{Key: "$sort", Value: BuildSortStage(f.Sort)}},
		// One row past the page size: the sentinel that signals another page.
		bson.D{{Key: "$limit", Value: f.Limit + 1}},
	)
	return pipeline, nil
}
