package repositories

import (
	"context"
	"errors"

	"recipebox/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// RecipeRepository defines the interface for recipe data access.
type RecipeRepository interface {
	// GetAll returns every recipe, newest first.
	GetAll(ctx context.Context) ([]models.Recipe, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update writes the editable fields (title, difficulty, ingredients,
	// steps, photo, updatedAt) of an existing recipe.
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id string) error
	// ApplyReview appends reviewID to the recipe's review list and stores
	// the recomputed rollup in a single write.
	ApplyReview(ctx context.Context, recipeID, reviewID string, rollup models.Rollup) error
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create fails with ErrDuplicate when the user already reviewed the recipe.
	Create(ctx context.Context, review *models.Review) error
	GetByRecipeAndUser(ctx context.Context, recipeID, userID string) (*models.Review, error)
	// ListByRecipe returns the recipe's reviews, newest first.
	ListByRecipe(ctx context.Context, recipeID string) ([]models.Review, error)
}
