package services

import (
	"context"
	"strings"
	"time"

	"recipebox/internal/apperror"
	"recipebox/internal/assets"
	"recipebox/internal/logging"
	"recipebox/internal/metrics"
	"recipebox/internal/models"
	"recipebox/internal/store"
	"recipebox/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultTitle = "Untitled"

// RecipeFields carries the client-supplied recipe fields. A nil field was
// not supplied: Create applies its default, Update keeps the stored value.
type RecipeFields struct {
	Title       *string
	Difficulty  *string
	Ingredients *[]models.Ingredient
	Steps       *[]string
}

// RecipeService handles business logic for recipes.
type RecipeService struct {
	avail    store.Availability
	assets   *assets.Manager
	events   EventPublisher
	validate *validator.Validate
	now      func() time.Time
}

// NewRecipeService creates a new RecipeService. events may be nil.
func NewRecipeService(avail store.Availability, assetManager *assets.Manager, events EventPublisher) *RecipeService {
	return &RecipeService{
		avail:    avail,
		assets:   assetManager,
		events:   events,
		validate: newValidator(),
		now:      time.Now,
	}
}

// List returns every recipe, newest first, with authors resolved.
func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}

	recipes, err := st.Recipes.GetAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch recipes", err)
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}

	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.AuthorID)
	}
	authors := resolveUsers(ctx, st, ids)
	for i := range recipes {
		recipes[i].Author = authors[recipes[i].AuthorID]
	}
	return recipes, nil
}

// Get returns one recipe with its author resolved.
func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}
	recipe, err := s.load(ctx, st, id)
	if err != nil {
		return nil, err
	}
	s.attachAuthor(ctx, st, recipe)
	return recipe, nil
}

// Create publishes a new recipe authored by principal.
func (s *RecipeService) Create(ctx context.Context, principal *models.Principal, fields RecipeFields, photo *assets.Upload) (*models.Recipe, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("Authentication required")
	}

	now := s.now().UTC()
	recipe := &models.Recipe{
		ID:          uuid.NewString(),
		Title:       defaultTitle,
		Difficulty:  models.DifficultyEasy,
		Ingredients: []models.Ingredient{},
		Steps:       []string{},
		AuthorID:    principal.UserID,
		ReviewIDs:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	merge(recipe, fields)
	if err := validate(s.validate, recipe); err != nil {
		return nil, err
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}

	if !photo.Empty() {
		path, err := s.assets.Store(ctx, photo)
		if err != nil {
			return nil, apperror.Internal("Failed to save photo", err)
		}
		recipe.Photo = path
	}

	if err := st.Recipes.Create(ctx, recipe); err != nil {
		s.assets.Remove(ctx, recipe.Photo)
		return nil, apperror.Internal("Failed to create recipe", err)
	}

	s.attachAuthor(ctx, st, recipe)
	metrics.RecipesCreated.Inc()
	publish(s.events, rabbitmq.Event{
		Type:       rabbitmq.EventRecipeCreated,
		RecipeID:   recipe.ID,
		UserID:     principal.UserID,
		OccurredAt: now,
		Data:       map[string]any{"title": recipe.Title},
	})
	logging.Info().Str("recipe_id", recipe.ID).Str("user_id", principal.UserID).Msg("recipe created")
	return recipe, nil
}

// Update merges the supplied fields into a recipe owned by principal. A new
// photo replaces the stored one; removal of the old asset is best-effort.
func (s *RecipeService) Update(ctx context.Context, principal *models.Principal, id string, fields RecipeFields, photo *assets.Upload) (*models.Recipe, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("Authentication required")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}
	recipe, err := s.load(ctx, st, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(principal, recipe.AuthorID) {
		return nil, apperror.Forbidden("You can only edit your own recipes")
	}

	merge(recipe, fields)
	if err := validate(s.validate, recipe); err != nil {
		return nil, err
	}

	var stored string
	if !photo.Empty() {
		path, err := s.assets.Replace(ctx, recipe.Photo, photo)
		if err != nil {
			return nil, apperror.Internal("Failed to save photo", err)
		}
		recipe.Photo = path
		stored = path
	}
	recipe.UpdatedAt = s.now().UTC()

	if err := st.Recipes.Update(ctx, recipe); err != nil {
		s.assets.Remove(ctx, stored)
		return nil, translate(err, "Recipe not found")
	}

	s.attachAuthor(ctx, st, recipe)
	logging.Info().Str("recipe_id", recipe.ID).Msg("recipe updated")
	return recipe, nil
}

// Delete removes a recipe owned by principal and its photo. Reviews of the
// recipe are left in place.
func (s *RecipeService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	if principal == nil {
		return apperror.Unauthenticated("Authentication required")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return err
	}
	recipe, err := s.load(ctx, st, id)
	if err != nil {
		return err
	}
	if !IsOwner(principal, recipe.AuthorID) {
		return apperror.Forbidden("You can only delete your own recipes")
	}

	s.assets.Remove(ctx, recipe.Photo)

	if err := st.Recipes.Delete(ctx, recipe.ID); err != nil {
		return translate(err, "Recipe not found")
	}

	metrics.RecipesDeleted.Inc()
	publish(s.events, rabbitmq.Event{
		Type:     rabbitmq.EventRecipeDeleted,
		RecipeID: recipe.ID,
		UserID:   principal.UserID,
	})
	logging.Info().Str("recipe_id", recipe.ID).Msg("recipe deleted")
	return nil
}

func (s *RecipeService) load(ctx context.Context, st *store.Store, id string) (*models.Recipe, error) {
	if !validID(id) {
		return nil, apperror.NotFound("Recipe not found")
	}
	recipe, err := st.Recipes.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Recipe not found")
	}
	return recipe, nil
}

func (s *RecipeService) attachAuthor(ctx context.Context, st *store.Store, recipe *models.Recipe) {
	recipe.Author = resolveUsers(ctx, st, []string{recipe.AuthorID})[recipe.AuthorID]
}

func merge(recipe *models.Recipe, fields RecipeFields) {
	if fields.Title != nil {
		if title := strings.TrimSpace(*fields.Title); title != "" {
			recipe.Title = title
		}
	}
	if fields.Difficulty != nil && *fields.Difficulty != "" {
		recipe.Difficulty = models.Difficulty(*fields.Difficulty)
	}
	if fields.Ingredients != nil {
		recipe.Ingredients = append([]models.Ingredient{}, (*fields.Ingredients)...)
	}
	if fields.Steps != nil {
		recipe.Steps = append([]string{}, (*fields.Steps)...)
	}
}
