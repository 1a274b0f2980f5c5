package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"recipebox/internal/apperror"
	"recipebox/internal/assets"
	"recipebox/internal/logging"
	"recipebox/internal/metrics"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
)

const photoField = "photo"

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service  *services.RecipeService
	resolver middleware.PrincipalResolver
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service *services.RecipeService, resolver middleware.PrincipalResolver) *RecipeHandler {
	return &RecipeHandler{
		service:  service,
		resolver: resolver,
	}
}

// RegisterRoutes registers the recipe routes with the Fiber app.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.resolver)

	recipeRoutes := router.Group("/recipes")
	recipeRoutes.Get("/", h.HandleGetRecipes)
	recipeRoutes.Get("/:id", h.HandleGetRecipeByID)
	recipeRoutes.Post("/", auth, h.HandleCreateRecipe)
	recipeRoutes.Put("/:id", auth, h.HandleUpdateRecipe)
	recipeRoutes.Delete("/:id", auth, h.HandleDeleteRecipe)
}

// HandleGetRecipes lists every recipe. Any store failure is answered with
// the fallback list.
func (h *RecipeHandler) HandleGetRecipes(c *fiber.Ctx) error {
	recipes, err := h.service.List(c.UserContext())
	if err != nil {
		logging.Warn().Err(err).Msg("serving fallback recipes")
		metrics.FallbackResponses.WithLabelValues("recipes").Inc()
		return c.JSON(services.FallbackRecipes())
	}
	return c.JSON(recipes)
}

// HandleGetRecipeByID retrieves a single recipe by its ID. Lookup failures
// are answered with 404; without a store the seed recipe is served.
func (h *RecipeHandler) HandleGetRecipeByID(c *fiber.Ctx) error {
	id := c.Params("id")
	recipe, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if apperror.Is(err, apperror.KindUnavailable) {
			if seed, ok := services.FallbackRecipe(id); ok {
				metrics.FallbackResponses.WithLabelValues("recipe").Inc()
				return c.JSON(seed)
			}
		} else if !apperror.Is(err, apperror.KindNotFound) {
			logging.Warn().Err(err).Str("recipe_id", id).Msg("recipe lookup failed")
		}
		return respondError(c, apperror.NotFound("Recipe not found"))
	}
	return c.JSON(recipe)
}

// HandleCreateRecipe publishes a recipe from a multipart form.
func (h *RecipeHandler) HandleCreateRecipe(c *fiber.Ctx) error {
	fields, photo, err := parseRecipeForm(c)
	if err != nil {
		return respondError(c, err)
	}

	recipe, err := h.service.Create(c.UserContext(), middleware.PrincipalFrom(c), fields, photo)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(recipe)
}

// HandleUpdateRecipe applies a partial update from a multipart form.
func (h *RecipeHandler) HandleUpdateRecipe(c *fiber.Ctx) error {
	fields, photo, err := parseRecipeForm(c)
	if err != nil {
		return respondError(c, err)
	}

	recipe, err := h.service.Update(c.UserContext(), middleware.PrincipalFrom(c), c.Params("id"), fields, photo)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(recipe)
}

// HandleDeleteRecipe deletes a recipe and its photo.
func (h *RecipeHandler) HandleDeleteRecipe(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.PrincipalFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Recipe deleted successfully"})
}

// parseRecipeForm reads title, difficulty, ingredients and steps (the last
// two as JSON strings) and the optional photo file. Empty values count as
// not supplied.
func parseRecipeForm(c *fiber.Ctx) (services.RecipeFields, *assets.Upload, error) {
	var fields services.RecipeFields

	if v := c.FormValue("title"); v != "" {
		fields.Title = &v
	}
	if v := c.FormValue("difficulty"); v != "" {
		fields.Difficulty = &v
	}
	if v := c.FormValue("ingredients"); v != "" {
		var ingredients []models.Ingredient
		if err := json.Unmarshal([]byte(v), &ingredients); err != nil {
			return fields, nil, apperror.InvalidInput("Ingredients must be a JSON array")
		}
		fields.Ingredients = &ingredients
	}
	if v := c.FormValue("steps"); v != "" {
		var steps []string
		if err := json.Unmarshal([]byte(v), &steps); err != nil {
			return fields, nil, apperror.InvalidInput("Steps must be a JSON array of strings")
		}
		fields.Steps = &steps
	}

	photo, err := readUpload(c, photoField)
	if err != nil {
		return fields, nil, err
	}
	return fields, photo, nil
}

func readUpload(c *fiber.Ctx, field string) (*assets.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request.
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, apperror.Internal("Failed to read photo", fmt.Errorf("failed to open %s: %w", files[0].Filename, err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperror.Internal("Failed to read photo", fmt.Errorf("failed to read %s: %w", files[0].Filename, err))
	}
	return &assets.Upload{Filename: files[0].Filename, Data: data}, nil
}
