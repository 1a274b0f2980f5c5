package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecipeRepository is a MongoDB implementation of RecipeRepository.
type MongoRecipeRepository struct {
	coll *mongo.Collection
}

// NewMongoRecipeRepository creates a new instance of MongoRecipeRepository.
func NewMongoRecipeRepository(db *mongo.Database) *MongoRecipeRepository {
	return &MongoRecipeRepository{coll: db.Collection(RecipesCollection)}
}

// GetAll retrieves every recipe, newest first.
func (r *MongoRecipeRepository) GetAll(ctx context.Context) ([]models.Recipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get all recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var recipes []models.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}
	return recipes, nil
}

// GetByID retrieves a recipe by ID.
func (r *MongoRecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&recipe); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("recipe with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recipe by ID %s: %w", id, err)
	}
	return &recipe, nil
}

// Create inserts a new recipe.
func (r *MongoRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, recipe); err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update sets the editable fields of an existing recipe.
func (r *MongoRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	update := bson.M{"$set": bson.M{
		"title":       recipe.Title,
		"difficulty":  recipe.Difficulty,
		"ingredients": recipe.Ingredients,
		"steps":       recipe.Steps,
		"photo":       recipe.Photo,
		"updatedAt":   recipe.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": recipe.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("recipe with ID %s for update: %w", recipe.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a recipe by ID.
func (r *MongoRecipeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("recipe with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// ApplyReview pushes reviewID and sets the rollup in one atomic document update.
func (r *MongoRecipeRepository) ApplyReview(ctx context.Context, recipeID, reviewID string, rollup models.Rollup) error {
	update := bson.M{
		"$push": bson.M{"reviews": reviewID},
		"$set": bson.M{
			"avgRating":   rollup.AvgRating,
			"reviewCount": rollup.ReviewCount,
			"updatedAt":   time.Now(),
		},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": recipeID}, update)
	if err != nil {
		return fmt.Errorf("failed to update rollup for recipe %s: %w", recipeID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("recipe with ID %s for rollup: %w", recipeID, ErrNotFound)
	}
	return nil
}
