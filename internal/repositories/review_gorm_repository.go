package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// Create creates a new review. The composite unique index on
// (recipe_id, user_id) rejects a second review by the same user.
func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("review of recipe %s by user %s: %w", review.RecipeID, review.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByRecipeAndUser retrieves the review a user left on a recipe.
func (r *GORMReviewRepository) GetByRecipeAndUser(ctx context.Context, recipeID, userID string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "recipe_id = ? AND user_id = ?", recipeID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review of recipe %s by user %s: %w", recipeID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review of recipe %s by user %s: %w", recipeID, userID, err)
	}
	return &review, nil
}

// ListByRecipe retrieves all reviews of a recipe, newest first.
func (r *GORMReviewRepository) ListByRecipe(ctx context.Context, recipeID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Order("created_at desc").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of recipe %s: %w", recipeID, err)
	}
	return reviews, nil
}
