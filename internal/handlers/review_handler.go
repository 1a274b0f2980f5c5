package handlers

import (
	"recipebox/internal/apperror"
	"recipebox/internal/logging"
	"recipebox/internal/metrics"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	resolver middleware.PrincipalResolver
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService, resolver middleware.PrincipalResolver) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		resolver: resolver,
	}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Get("/", h.HandleGetReviews)
	reviewRoutes.Post("/", middleware.AuthRequired(h.resolver), h.HandleCreateReview)
}

// HandleGetReviews lists the reviews of ?recipeId. Store failures are
// answered with an empty list.
func (h *ReviewHandler) HandleGetReviews(c *fiber.Ctx) error {
	reviews, err := h.service.ListByRecipe(c.UserContext(), c.Query("recipeId"))
	if err != nil {
		if apperror.Is(err, apperror.KindInvalidInput) {
			return respondError(c, err)
		}
		logging.Warn().Err(err).Str("recipe_id", c.Query("recipeId")).Msg("serving empty review list")
		metrics.FallbackResponses.WithLabelValues("reviews").Inc()
		return c.JSON([]models.Review{})
	}
	return c.JSON(reviews)
}

// HandleCreateReview records the caller's review of a recipe.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req services.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	review, err := h.service.Create(c.UserContext(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
