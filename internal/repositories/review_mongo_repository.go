package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReviewRepository is a MongoDB implementation of ReviewRepository.
type MongoReviewRepository struct {
	coll *mongo.Collection
}

// NewMongoReviewRepository creates a new instance of MongoReviewRepository.
func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{coll: db.Collection(ReviewsCollection)}
}

// Create inserts a review. The (recipe, user) unique index turns a second
// review by the same user into ErrDuplicate.
func (r *MongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("review of recipe %s by user %s: %w", review.RecipeID, review.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByRecipeAndUser retrieves the review a user left on a recipe.
func (r *MongoReviewRepository) GetByRecipeAndUser(ctx context.Context, recipeID, userID string) (*models.Review, error) {
	return r.findOne(ctx, bson.M{"recipe": recipeID, "user": userID}, fmt.Sprintf("recipe %s and user %s", recipeID, userID))
}

// ListByRecipe retrieves the reviews of a recipe, newest first.
func (r *MongoReviewRepository) ListByRecipe(ctx context.Context, recipeID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"recipe": recipeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of recipe %s: %w", recipeID, err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *MongoReviewRepository) findOne(ctx context.Context, filter bson.M, desc string) (*models.Review, error) {
	var review models.Review
	if err := r.coll.FindOne(ctx, filter).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("review with %s: %w", desc, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review by %s: %w", desc, err)
	}
	return &review, nil
}
