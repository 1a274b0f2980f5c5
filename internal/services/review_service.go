package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"recipebox/internal/apperror"
	"recipebox/internal/logging"
	"recipebox/internal/metrics"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/store"
	"recipebox/pkg/rabbitmq"

	"github.com/google/uuid"
)

const maxCommentLength = 500

// CreateReviewRequest is the payload of POST /reviews.
type CreateReviewRequest struct {
	RecipeID string  `json:"recipeId"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

// ReviewService handles business logic for reviews and keeps the rating
// rollup of their recipes current.
type ReviewService struct {
	avail  store.Availability
	events EventPublisher
	now    func() time.Time
}

// NewReviewService creates a new ReviewService. events may be nil.
func NewReviewService(avail store.Availability, events EventPublisher) *ReviewService {
	return &ReviewService{
		avail:  avail,
		events: events,
		now:    time.Now,
	}
}

// Create records principal's review of a recipe and recomputes the recipe's
// rollup before returning.
func (s *ReviewService) Create(ctx context.Context, principal *models.Principal, req CreateReviewRequest) (*models.Review, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("Authentication required")
	}

	recipeID := strings.TrimSpace(req.RecipeID)
	comment := strings.TrimSpace(req.Comment)
	if recipeID == "" || req.Rating == 0 || comment == "" {
		return nil, apperror.InvalidInput("Recipe ID, rating, and comment are required")
	}
	if req.Rating < 1 || req.Rating > 5 || req.Rating != math.Trunc(req.Rating) {
		return nil, apperror.InvalidInput("Rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, apperror.InvalidInput("Comment cannot exceed 500 characters")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}

	if !validID(recipeID) {
		return nil, apperror.NotFound("Recipe not found")
	}
	if _, err := st.Recipes.GetByID(ctx, recipeID); err != nil {
		return nil, translate(err, "Recipe not found")
	}

	if _, err := st.Reviews.GetByRecipeAndUser(ctx, recipeID, principal.UserID); err == nil {
		metrics.ReviewConflicts.Inc()
		return nil, apperror.Conflict("You have already reviewed this recipe")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal("Failed to create review", err)
	}

	now := s.now().UTC()
	review := &models.Review{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		UserID:    principal.UserID,
		Rating:    int(req.Rating),
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.Reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			metrics.ReviewConflicts.Inc()
			return nil, apperror.Conflict("You have already reviewed this recipe")
		}
		return nil, apperror.Internal("Failed to create review", err)
	}

	if err := s.refreshRollup(ctx, st, recipeID, review.ID); err != nil {
		return nil, apperror.Internal("Failed to create review", err)
	}

	review.User = resolveUsers(ctx, st, []string{review.UserID})[review.UserID]
	metrics.ReviewsCreated.Inc()
	publish(s.events, rabbitmq.Event{
		Type:       rabbitmq.EventReviewCreated,
		RecipeID:   recipeID,
		ReviewID:   review.ID,
		UserID:     principal.UserID,
		OccurredAt: now,
		Data:       map[string]any{"rating": review.Rating},
	})
	logging.Info().Str("review_id", review.ID).Str("recipe_id", recipeID).Int("rating", review.Rating).Msg("review created")
	return review, nil
}

// refreshRollup re-reads every review of the recipe and stores the new
// rollup together with the new review id. Concurrent writers race on the
// rollup; the last write wins.
func (s *ReviewService) refreshRollup(ctx context.Context, st *store.Store, recipeID, reviewID string) error {
	reviews, err := st.Reviews.ListByRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	return st.Recipes.ApplyReview(ctx, recipeID, reviewID, ComputeRollup(reviews))
}

// ListByRecipe returns the recipe's reviews, newest first, with reviewers
// resolved. Reviews of deleted recipes are still returned.
func (s *ReviewService) ListByRecipe(ctx context.Context, recipeID string) ([]models.Review, error) {
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return nil, apperror.InvalidInput("Recipe ID is required")
	}

	st, err := storeOf(s.avail)
	if err != nil {
		return nil, err
	}
	if !validID(recipeID) {
		return []models.Review{}, nil
	}

	reviews, err := st.Reviews.ListByRecipe(ctx, recipeID)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch reviews", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	users := resolveUsers(ctx, st, ids)
	for i := range reviews {
		reviews[i].User = users[reviews[i].UserID]
	}
	return reviews, nil
}
