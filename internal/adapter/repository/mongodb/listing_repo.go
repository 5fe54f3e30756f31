package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.ListingRepository using MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewListingRepository creates the repository and ensures the indexes the
// feed sort modes and the geo stage rely on.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "average_rating", Value: -1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "difficulty", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be managed externally; don't fail startup.
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// Create inserts a new listing and backfills the generated ID.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := fromDomainListing(listing)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	listing.ID = doc.ID.Hex()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert listing", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Listing inserted", zap.String("listing_id", listing.ID))
	return nil
}

// FindByID fetches one listing.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("Failed to find listing", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes a listing and returns the removed document so the caller
// can cascade external cleanup.
func (r *ListingRepository) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}
	var doc listingDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("Failed to delete listing", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("db delete failed: %w", err)
	}
	r.logger.Info("Listing deleted", zap.String("listing_id", id))
	return doc.toDomain(), nil
}

// UpdateFields applies a partial $set and returns the updated listing.
func (r *ListingRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	var doc listingDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("Failed to update listing fields", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomain(), nil
}

// AddImages appends image descriptors to the listing.
func (r *ListingRepository) AddImages(ctx context.Context, id string, images []domain.Image) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}
	var doc listingDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"images": bson.M{"$each": images}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomain(), nil
}

// RemoveImage detaches one image descriptor by its external storage id.
func (r *ListingRepository) RemoveImage(ctx context.Context, id, externalID string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}
	var doc listingDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$pull": bson.M{"images": bson.M{"external_id": externalID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomain(), nil
}

// Feed runs the planned aggregation pipeline. AllowDiskUse keeps large sorts
// from failing even though the limit stage bounds the returned set.
func (r *ListingRepository) Feed(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		r.logger.Error("Feed aggregation failed", zap.Error(err))
		return nil, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	items := []domain.FeedItem{}
	if err := cursor.All(ctx, &items); err != nil {
		r.logger.Error("Feed cursor decode failed", zap.Error(err))
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}
	return items, nil
}

// Like adds the identity to the liker set and bumps the counter in a single
// conditional update; a second call from the same identity matches nothing
// and is reported as already-liked. Anonymous likes always increment.
func (r *ListingRepository) Like(ctx context.Context, id, userID string) (*domain.LikeOutcome, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}

	if userID == "" {
		res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"likes_count": 1}})
		if err != nil {
			return nil, fmt.Errorf("db update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrListingNotFound
		}
		listing, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.LikeOutcome{Listing: listing}, nil
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "liked_by": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"liked_by": userID},
			"$inc":      bson.M{"likes_count": 1},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("db update failed: %w", err)
	}

	listing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if res.MatchedCount == 0 {
		// Listing exists but the identity was already in the liker set.
		return &domain.LikeOutcome{Listing: listing, AlreadyLiked: true}, nil
	}
	return &domain.LikeOutcome{Listing: listing}, nil
}

// Unlike removes the identity and decrements the counter, conditioned on the
// identity being present and the counter being positive. Anonymous unlike
// only checks the counter floor.
func (r *ListingRepository) Unlike(ctx context.Context, id, userID string) (*domain.LikeOutcome, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed listing id %q", domain.ErrInvalidInput, id)
	}

	if userID == "" {
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": oid, "likes_count": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"likes_count": -1}},
		)
		if err != nil {
			return nil, fmt.Errorf("db update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			// Either the listing is gone or the counter already hit zero;
			// both are reported as not-found for anonymous callers.
			return nil, domain.ErrListingNotFound
		}
		listing, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.LikeOutcome{Listing: listing}, nil
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "liked_by": userID, "likes_count": bson.M{"$gt": 0}},
		bson.M{
			"$pull": bson.M{"liked_by": userID},
			"$inc":  bson.M{"likes_count": -1},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("db update failed: %w", err)
	}

	listing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if res.MatchedCount == 0 {
		if !listing.LikedByUser(userID) {
			return &domain.LikeOutcome{Listing: listing, NotPreviouslyLiked: true}, nil
		}
		// Identity present but the counter was already at zero; leave state alone.
		return &domain.LikeOutcome{Listing: listing, CountWasZero: true}, nil
	}
	return &domain.LikeOutcome{Listing: listing}, nil
}
