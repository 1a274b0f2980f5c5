package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{
		db: db,
	}
}

// GetAll retrieves all recipes, newest first.
func (r *GORMRecipeRepository) GetAll(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all recipes: %w", err)
	}
	return recipes, nil
}

// GetByID retrieves a single recipe by its ID.
func (r *GORMRecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recipe by ID %s: %w", id, err)
	}
	return &recipe, nil
}

// Create creates a new recipe in the database.
func (r *GORMRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update writes the editable fields of an existing recipe.
func (r *GORMRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]any{
		"title":       recipe.Title,
		"difficulty":  recipe.Difficulty,
		"ingredients": recipe.Ingredients,
		"steps":       recipe.Steps,
		"photo":       recipe.Photo,
		"updated_at":  recipe.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe with ID %s for update: %w", recipe.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a recipe by its ID. Reviews referencing it are left alone.
func (r *GORMRecipeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// ApplyReview appends reviewID and stores the rollup inside one transaction.
func (r *GORMRecipeRepository) ApplyReview(ctx context.Context, recipeID, reviewID string, rollup models.Rollup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id", "review_ids").First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("recipe with ID %s for rollup: %w", recipeID, ErrNotFound)
			}
			return fmt.Errorf("failed to load recipe %s for rollup: %w", recipeID, err)
		}

		reviewIDs := append(recipe.ReviewIDs, reviewID)
		err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]any{
			"review_ids":   reviewIDs,
			"avg_rating":   rollup.AvgRating,
			"review_count": rollup.ReviewCount,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update rollup for recipe %s: %w", recipeID, err)
		}
		return nil
	})
}
