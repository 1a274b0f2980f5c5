package services_test

import (
	"strings"
	"testing"

	"recipebox/internal/apperror"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/services"
	"recipebox/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewService(t *testing.T) (*services.ReviewService, repos, *MockPublisher) {
	t.Helper()
	r, avail := newRepos()
	events := new(MockPublisher)
	return services.NewReviewService(avail, events), r, events
}

func TestReviewService_CreateRecomputesRollup(t *testing.T) {
	svc, r, events := newReviewService(t)

	r.recipes.On("GetByID", ctxArg, recipeID).Return(storedRecipe(), nil).Once()
	r.reviews.On("GetByRecipeAndUser", ctxArg, recipeID, otherID).Return(nil, repositories.ErrNotFound).Once()

	var created *models.Review
	r.reviews.On("Create", ctxArg, mock.AnythingOfType("*models.Review")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*models.Review) }).
		Return(nil).Once()
	r.reviews.On("ListByRecipe", ctxArg, recipeID).
		Return(ratings(4, 2), nil).Once()
	r.recipes.On("ApplyReview", ctxArg, recipeID, mock.AnythingOfType("string"), models.Rollup{AvgRating: 3.0, ReviewCount: 2}).
		Return(nil).Once()
	r.users.On("GetByIDs", ctxArg, []string{otherID}).
		Return([]models.User{{ID: otherID, Name: "Other"}}, nil).Once()
	events.On("Publish", mock.MatchedBy(func(e rabbitmq.Event) bool {
		return e.Type == rabbitmq.EventReviewCreated && e.RecipeID == recipeID
	})).Return(nil).Once()

	review, err := svc.Create(t.Context(), other, services.CreateReviewRequest{
		RecipeID: recipeID,
		Rating:   2,
		Comment:  "  too dry  ",
	})
	require.NoError(t, err)
	assert.Same(t, created, review)
	assert.Equal(t, 2, review.Rating)
	assert.Equal(t, "too dry", review.Comment)
	assert.Equal(t, otherID, review.UserID)
	assert.Equal(t, recipeID, review.RecipeID)
	assert.Equal(t, 0, review.Helpful)
	assert.Equal(t, "Other", review.User.Name)

	r.recipes.AssertCalled(t, "ApplyReview", ctxArg, recipeID, review.ID, models.Rollup{AvgRating: 3.0, ReviewCount: 2})
	r.assertExpectations(t)
	events.AssertExpectations(t)
}

func TestReviewService_CreateValidation(t *testing.T) {
	svc, _, _ := newReviewService(t)

	tests := []struct {
		name string
		req  services.CreateReviewRequest
		msg  string
	}{
		{"missing recipe", services.CreateReviewRequest{Rating: 4, Comment: "ok"}, "Recipe ID, rating, and comment are required"},
		{"missing rating", services.CreateReviewRequest{RecipeID: recipeID, Comment: "ok"}, "Recipe ID, rating, and comment are required"},
		{"blank comment", services.CreateReviewRequest{RecipeID: recipeID, Rating: 4, Comment: "   "}, "Recipe ID, rating, and comment are required"},
		{"rating too high", services.CreateReviewRequest{RecipeID: recipeID, Rating: 6, Comment: "ok"}, "Rating must be between 1 and 5"},
		{"rating negative", services.CreateReviewRequest{RecipeID: recipeID, Rating: -1, Comment: "ok"}, "Rating must be between 1 and 5"},
		{"fractional rating", services.CreateReviewRequest{RecipeID: recipeID, Rating: 4.5, Comment: "ok"}, "Rating must be between 1 and 5"},
		{"long comment", services.CreateReviewRequest{RecipeID: recipeID, Rating: 4, Comment: strings.Repeat("c", 501)}, "Comment cannot exceed 500 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(t.Context(), other, tt.req)
			require.Error(t, err)
			assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
			assert.Equal(t, tt.msg, apperror.Message(err, ""))
		})
	}

	_, err := svc.Create(t.Context(), nil, services.CreateReviewRequest{RecipeID: recipeID, Rating: 4, Comment: "ok"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}

func TestReviewService_CreateRecipeNotFound(t *testing.T) {
	svc, r, _ := newReviewService(t)

	r.recipes.On("GetByID", ctxArg, missingID).Return(nil, repositories.ErrNotFound).Once()
	_, err := svc.Create(t.Context(), other, services.CreateReviewRequest{RecipeID: missingID, Rating: 4, Comment: "ok"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Recipe not found", apperror.Message(err, ""))

	_, err = svc.Create(t.Context(), other, services.CreateReviewRequest{RecipeID: "bogus", Rating: 4, Comment: "ok"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	r.assertExpectations(t)
}

func TestReviewService_CreateDuplicate(t *testing.T) {
	svc, r, _ := newReviewService(t)

	r.recipes.On("GetByID", ctxArg, recipeID).Return(storedRecipe(), nil).Twice()
	r.reviews.On("GetByRecipeAndUser", ctxArg, recipeID, otherID).Return(&models.Review{ID: "existing"}, nil).Once()

	_, err := svc.Create(t.Context(), other, services.CreateReviewRequest{RecipeID: recipeID, Rating: 3, Comment: "again"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "You have already reviewed this recipe", apperror.Message(err, ""))

	// A concurrent insert wins between the check and the write.
	r.reviews.On("GetByRecipeAndUser", ctxArg, recipeID, otherID).Return(nil, repositories.ErrNotFound).Once()
	r.reviews.On("Create", ctxArg, mock.Anything).Return(repositories.ErrDuplicate).Once()
	_, err = svc.Create(t.Context(), other, services.CreateReviewRequest{RecipeID: recipeID, Rating: 3, Comment: "again"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	r.recipes.AssertNotCalled(t, "ApplyReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	r.assertExpectations(t)
}

func TestReviewService_CreateStoreUnavailable(t *testing.T) {
	svc := services.NewReviewService(down, nil)

	_, err := svc.Create(t.Context(), other, services.CreateReviewRequest{RecipeID: recipeID, Rating: 3, Comment: "ok"})
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
}

func TestReviewService_ListByRecipe(t *testing.T) {
	svc, r, _ := newReviewService(t)

	stored := []models.Review{
		{ID: "v2", RecipeID: recipeID, UserID: otherID, Rating: 3},
		{ID: "v1", RecipeID: recipeID, UserID: authorID, Rating: 5},
	}
	r.reviews.On("ListByRecipe", ctxArg, recipeID).Return(stored, nil).Once()
	r.users.On("GetByIDs", ctxArg, []string{otherID, authorID}).
		Return([]models.User{{ID: authorID, Name: "Author"}, {ID: otherID, Name: "Other"}}, nil).Once()

	got, err := svc.ListByRecipe(t.Context(), recipeID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "v2", got[0].ID)
	assert.Equal(t, "Other", got[0].User.Name)
	assert.Equal(t, "Author", got[1].User.Name)
	r.assertExpectations(t)
}

func TestReviewService_ListByRecipeEdges(t *testing.T) {
	svc, r, _ := newReviewService(t)

	_, err := svc.ListByRecipe(t.Context(), "")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	assert.Equal(t, "Recipe ID is required", apperror.Message(err, ""))

	got, err := svc.ListByRecipe(t.Context(), "not-an-id")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	r.reviews.On("ListByRecipe", ctxArg, missingID).Return(nil, nil).Once()
	got, err = svc.ListByRecipe(t.Context(), missingID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = services.NewReviewService(down, nil).ListByRecipe(t.Context(), recipeID)
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
	r.assertExpectations(t)
}
