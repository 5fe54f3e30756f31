package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trailpoint/listing-service/internal/listing/domain"
)

func ptr[T any](v T) *T { return &v }

// stageKeys lists the operator of each pipeline stage, in order.
func stageKeys(p []bson.D) []string {
	keys := make([]string, 0, len(p))
	for _, stage := range p {
		keys = append(keys, stage[0].Key)
	}
	return keys
}

func TestBuildMatchStage(t *testing.T) {
	f := &domain.FeedFilter{
		Categories:   []string{"Nature", "Adventure"},
		Tags:         []string{"Waterfalls"},
		MinRating:    3.5,
		Difficulty:   domain.DifficultyModerate,
		VerifiedOnly: true,
	}
	match := BuildMatchStage(f)

	assert.Equal(t, true, match["is_verified"])
	assert.Equal(t, bson.M{"$in": []string{"Nature", "Adventure"}}, match["categories"])
	assert.Equal(t, bson.M{"$in": []string{"Waterfalls"}}, match["tags"])
	assert.Equal(t, bson.M{"$gte": 3.5}, match["average_rating"])
	assert.Equal(t, "Moderate", match["difficulty"])
}

func TestBuildMatchStageEmptyFilter(t *testing.T) {
	match := BuildMatchStage(&domain.FeedFilter{})
	assert.Empty(t, match)
}

func TestGeoStageGating(t *testing.T) {
	base := domain.FeedFilter{Sort: domain.SortNewest, Limit: 20}

	t.Run("no coordinates means no geo stage", func(t *testing.T) {
		f := base
		pipeline, err := BuildPipeline(&f, nil)
		require.NoError(t, err)
		assert.NotContains(t, stageKeys(pipeline), "$geoNear")
	})

	t.Run("coordinates without distance filter means no geo stage", func(t *testing.T) {
		f := base
		f.Lat, f.Lng = ptr(43.2), ptr(76.9)
		pipeline, err := BuildPipeline(&f, nil)
		require.NoError(t, err)
		assert.NotContains(t, stageKeys(pipeline), "$geoNear")
	})

	t.Run("coordinates plus distance filter activates geo stage", func(t *testing.T) {
		f := base
		f.Lat, f.Lng = ptr(43.2), ptr(76.9)
		f.DistanceKm = 25
		pipeline, err := BuildPipeline(&f, nil)
		require.NoError(t, err)
		assert.Equal(t, "$geoNear", stageKeys(pipeline)[0])
	})

	t.Run("distance sort activates geo stage regardless of filter", func(t *testing.T) {
		f := base
		f.Lat, f.Lng = ptr(43.2), ptr(76.9)
		f.Sort = domain.SortDistance
		pipeline, err := BuildPipeline(&f, nil)
		require.NoError(t, err)
		assert.Equal(t, "$geoNear", stageKeys(pipeline)[0])
	})
}

func TestBuildGeoNearStage(t *testing.T) {
	f := &domain.FeedFilter{Lat: ptr(43.25), Lng: ptr(76.95), DistanceKm: 25}
	match := bson.M{"is_verified": true}

	stage := BuildGeoNearStage(f, match)
	require.Equal(t, "$geoNear", stage[0].Key)

	body := stage[0].Value.(bson.D)
	fields := bson.M{}
	for _, e := range body {
		fields[e.Key] = e.Value
	}

	near := fields["near"].(bson.D)
	assert.Equal(t, bson.A{76.95, 43.25}, near[1].Value, "coordinates are lng,lat")
	assert.Equal(t, "distance_meters", fields["distanceField"])
	assert.Equal(t, true, fields["spherical"])
	assert.Equal(t, "location", fields["key"])
	assert.Equal(t, 25000.0, fields["maxDistance"], "kilometers converted to meters")
	assert.Equal(t, match, fields["query"], "filter predicates fold into the geo stage")
}

func TestBuildGeoNearStageDefaultBound(t *testing.T) {
	f := &domain.FeedFilter{Lat: ptr(1.0), Lng: ptr(2.0), Sort: domain.SortDistance}
	stage := BuildGeoNearStage(f, bson.M{})
	body := stage[0].Value.(bson.D)
	for _, e := range body {
		if e.Key == "maxDistance" {
			assert.Equal(t, float64(domain.DefaultGeoBoundKm*1000), e.Value)
			return
		}
	}
	t.Fatal("maxDistance not found in geo stage")
}

func TestBuildCursorStagePerMode(t *testing.T) {
	oid := primitive.NewObjectID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := &Cursor{
		ID:             oid.Hex(),
		CreatedAt:      &createdAt,
		AverageRating:  ptr(4.0),
		LikesCount:     ptr(int64(10)),
		DistanceMeters: ptr(500.0),
	}

	t.Run("newest", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortNewest)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		require.Len(t, or, 2)
		assert.Equal(t, bson.M{"created_at": bson.M{"$lt": createdAt}}, or[0])
		assert.Equal(t, bson.M{"created_at": createdAt, "_id": bson.M{"$lt": oid}}, or[1])
	})

	t.Run("rating_desc", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortRatingDesc)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		require.Len(t, or, 3)
		assert.Equal(t, bson.M{"average_rating": bson.M{"$lt": 4.0}}, or[0])
	})

	t.Run("rating_asc flips the range operator", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortRatingAsc)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		assert.Equal(t, bson.M{"average_rating": bson.M{"$gt": 4.0}}, or[0])
	})

	t.Run("likes_desc", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortLikesDesc)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		assert.Equal(t, bson.M{"likes_count": bson.M{"$lt": int64(10)}}, or[0])
	})

	t.Run("likes_asc flips the range operator", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortLikesAsc)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		assert.Equal(t, bson.M{"likes_count": bson.M{"$gt": int64(10)}}, or[0])
	})

	t.Run("distance walks outward", func(t *testing.T) {
		stage, err := BuildCursorStage(c, domain.SortDistance)
		require.NoError(t, err)
		or := stage["$or"].(bson.A)
		require.Len(t, or, 4)
		assert.Equal(t, bson.M{"distance_meters": bson.M{"$gt": 500.0}}, or[0])
	})

	t.Run("nil cursor is an empty boundary", func(t *testing.T) {
		stage, err := BuildCursorStage(nil, domain.SortNewest)
		require.NoError(t, err)
		assert.Empty(t, stage)
	})

	t.Run("malformed id is a client error", func(t *testing.T) {
		bad := &Cursor{ID: "not-a-hex-objectid"}
		_, err := BuildCursorStage(bad, domain.SortNewest)
		assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	})
}

func TestBuildSortStageAlwaysTieBreaksOnID(t *testing.T) {
	for _, sort := range []domain.SortMode{
		domain.SortNewest, domain.SortRatingDesc, domain.SortRatingAsc,
		domain.SortLikesDesc, domain.SortLikesAsc, domain.SortDistance,
		domain.SortMode("bogus"),
	} {
		stage := BuildSortStage(sort)
		last := stage[len(stage)-1]
		assert.Equal(t, "_id", last.Key, "sort %q", sort)
		assert.Equal(t, -1, last.Value, "sort %q", sort)
	}
}

func TestBuildSortStageUnknownModeOrdersAsNewest(t *testing.T) {
	assert.Equal(t, BuildSortStage(domain.SortNewest), BuildSortStage(domain.SortMode("bogus")))
}

func TestBuildProjectStage(t *testing.T) {
	project := BuildProjectStage(false)
	fields := bson.M{}
	for _, e := range project {
		fields[e.Key] = e.Value
	}

	desc := fields["description"].(bson.D)
	assert.Equal(t, "$substrCP", desc[0].Key)
	assert.Equal(t, bson.A{"$description", 0, 240}, desc[0].Value)

	images := fields["images"].(bson.D)
	assert.Equal(t, "$slice", images[0].Key)
	assert.Equal(t, bson.A{"$images", 1}, images[0].Value)

	assert.NotContains(t, fields, "distance_meters")

	withDist := BuildProjectStage(true)
	assert.Equal(t, "distance_meters", withDist[len(withDist)-1].Key)
}

func TestBuildPipelineOverFetchesByOne(t *testing.T) {
	f := &domain.FeedFilter{Sort: domain.SortNewest, Limit: 20}
	pipeline, err := BuildPipeline(f, nil)
	require.NoError(t, err)

	last := pipeline[len(pipeline)-1]
	require.Equal(t, "$limit", last[0].Key)
	assert.Equal(t, int64(21), last[0].Value)
}

func TestBuildPipelineStageOrder(t *testing.T) {
	createdAt := time.Now().UTC()
	cursor := &Cursor{ID: primitive.NewObjectID().Hex(), CreatedAt: &createdAt}

	t.Run("without geo", func(t *testing.T) {
		f := &domain.FeedFilter{Sort: domain.SortNewest, Limit: 10, VerifiedOnly: true}
		pipeline, err := BuildPipeline(f, cursor)
		require.NoError(t, err)
		assert.Equal(t, []string{"$match", "$match", "$project", "$sort", "$limit"}, stageKeys(pipeline))
	})

	t.Run("with geo the filter match disappears into geoNear", func(t *testing.T) {
		f := &domain.FeedFilter{
			Sort: domain.SortDistance, Limit: 10, VerifiedOnly: true,
			Lat: ptr(43.0), Lng: ptr(76.0),
		}
		pipeline, err := BuildPipeline(f, cursor)
		require.NoError(t, err)
		assert.Equal(t, []string{"$geoNear", "$match", "$project", "$sort", "$limit"}, stageKeys(pipeline))
	})
}
