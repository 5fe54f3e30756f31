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

	reviewdomain "github.com/trailpoint/listing-service/internal/review/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

const reviewCollectionName = "reviews"

// ReviewRepository implements reviewdomain.ReviewRepository. Every write that
// touches a rating runs in a multi-document transaction spanning the review
// and its listing so the denormalized aggregate never drifts.
type ReviewRepository struct {
	client   *mongo.Client
	reviews  *mongo.Collection
	listings *mongo.Collection
	logger   *logger.Logger
}

func NewReviewRepository(client *mongo.Client, db *mongo.Database, log *logger.Logger) (*ReviewRepository, error) {
	reviews := db.Collection(reviewCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "is_public", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := reviews.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for reviews collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for reviews collection")
	}

	return &ReviewRepository{
		client:   client,
		reviews:  reviews,
		listings: db.Collection(listingCollectionName),
		logger:   log.Named("ReviewRepository"),
	}, nil
}

// ratingSnapshot is the slice of a listing document the ledger needs.
type ratingSnapshot struct {
	AverageRating float64 `bson:"average_rating"`
	RatingsCount  int64   `bson:"ratings_count"`
}

func (r *ReviewRepository) readSnapshot(sessCtx mongo.SessionContext, listingID primitive.ObjectID) (*ratingSnapshot, error) {
	var snap ratingSnapshot
	err := r.listings.FindOne(sessCtx, bson.M{"_id": listingID},
		options.FindOne().SetProjection(bson.M{"average_rating": 1, "ratings_count": 1}),
	).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reviewdomain.ErrListingNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return &snap, nil
}

func (r *ReviewRepository) writeSnapshot(sessCtx mongo.SessionContext, listingID primitive.ObjectID, avg float64, count int64) error {
	_, err := r.listings.UpdateOne(sessCtx,
		bson.M{"_id": listingID},
		bson.M{"$set": bson.M{
			"average_rating": avg,
			"ratings_count":  count,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	return nil
}

// CreateWithRating inserts the review and folds its rating into the listing
// aggregate. Both writes commit together or not at all.
func (r *ReviewRepository) CreateWithRating(ctx context.Context, review *reviewdomain.Review) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session failed: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		snap, err := r.readSnapshot(sessCtx, review.ListingID)
		if err != nil {
			return nil, err
		}

		doc := fromDomainReview(review)
		if doc.ID.IsZero() {
			doc.ID = primitive.NewObjectID()
		}
		review.ID = doc.ID

		if _, err := r.reviews.InsertOne(sessCtx, doc); err != nil {
			return nil, fmt.Errorf("db insert failed: %w", err)
		}

		avg, count := reviewdomain.AddRating(snap.AverageRating, snap.RatingsCount, review.Rating)
		return nil, r.writeSnapshot(sessCtx, review.ListingID, avg, count)
	})
	if err != nil {
		if errors.Is(err, reviewdomain.ErrListingNotFound) {
			return err
		}
		r.logger.Error("Review create transaction failed",
			zap.String("listing_id", review.ListingID.Hex()), zap.Error(err))
		return err
	}

	r.logger.Info("Review created",
		zap.String("review_id", review.ID.Hex()),
		zap.String("listing_id", review.ListingID.Hex()))
	return nil
}

// UpdateWithRating applies a partial edit. The listing aggregate is only
// recomputed when the rating actually changed.
func (r *ReviewRepository) UpdateWithRating(ctx context.Context, id primitive.ObjectID, update reviewdomain.ReviewUpdate) (*reviewdomain.Review, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session failed: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var current reviewDocument
		err := r.reviews.FindOne(sessCtx, bson.M{"_id": id, "is_public": true}).Decode(&current)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, reviewdomain.ErrReviewNotFound
			}
			return nil, fmt.Errorf("db findone failed: %w", err)
		}

		set := bson.M{"updated_at": time.Now().UTC()}
		if update.Message != nil {
			set["message"] = *update.Message
		}
		ratingChanged := update.Rating != nil && *update.Rating != current.Rating
		if update.Rating != nil {
			set["rating"] = *update.Rating
		}

		var updated reviewDocument
		err = r.reviews.FindOneAndUpdate(sessCtx,
			bson.M{"_id": id},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			return nil, fmt.Errorf("db update failed: %w", err)
		}

		if ratingChanged {
			snap, err := r.readSnapshot(sessCtx, current.ListingID)
			if err != nil {
				return nil, err
			}
			avg := reviewdomain.ReplaceRating(snap.AverageRating, snap.RatingsCount, current.Rating, *update.Rating)
			if err := r.writeSnapshot(sessCtx, current.ListingID, avg, snap.RatingsCount); err != nil {
				return nil, err
			}
		}
		return updated.toDomain(), nil
	})
	if err != nil {
		if errors.Is(err, reviewdomain.ErrReviewNotFound) || errors.Is(err, reviewdomain.ErrListingNotFound) {
			return nil, err
		}
		r.logger.Error("Review update transaction failed", zap.String("review_id", id.Hex()), zap.Error(err))
		return nil, err
	}
	return result.(*reviewdomain.Review), nil
}

// SoftDeleteWithRating hides a public review and removes its contribution
// from the listing aggregate. A review that is already hidden reports
// not-found so deletes are idempotent from the caller's point of view.
func (r *ReviewRepository) SoftDeleteWithRating(ctx context.Context, id primitive.ObjectID) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session failed: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var doc reviewDocument
		err := r.reviews.FindOneAndUpdate(sessCtx,
			bson.M{"_id": id, "is_public": true},
			bson.M{"$set": bson.M{"is_public": false, "updated_at": time.Now().UTC()}},
		).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, reviewdomain.ErrReviewNotFound
			}
			return nil, fmt.Errorf("db update failed: %w", err)
		}

		snap, err := r.readSnapshot(sessCtx, doc.ListingID)
		if err != nil {
			return nil, err
		}
		avg, count := reviewdomain.RemoveRating(snap.AverageRating, snap.RatingsCount, doc.Rating)
		return nil, r.writeSnapshot(sessCtx, doc.ListingID, avg, count)
	})
	if err != nil {
		if errors.Is(err, reviewdomain.ErrReviewNotFound) || errors.Is(err, reviewdomain.ErrListingNotFound) {
			return err
		}
		r.logger.Error("Review delete transaction failed", zap.String("review_id", id.Hex()), zap.Error(err))
		return err
	}

	r.logger.Info("Review soft-deleted", zap.String("review_id", id.Hex()))
	return nil
}

// FindPublicByListing returns the public reviews of a listing, newest first.
func (r *ReviewRepository) FindPublicByListing(ctx context.Context, listingID primitive.ObjectID) ([]*reviewdomain.Review, error) {
	cursor, err := r.reviews.Find(ctx,
		bson.M{"listing_id": listingID, "is_public": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		r.logger.Error("Failed to list reviews", zap.String("listing_id", listingID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}

	reviews := make([]*reviewdomain.Review, 0, len(docs))
	for _, doc := range docs {
		d := doc
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}
