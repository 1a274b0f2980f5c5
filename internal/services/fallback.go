package services

import "recipebox/internal/models"

// FallbackRecipes is the list served by GET /recipes while no store is connected.
func FallbackRecipes() []models.Recipe {
	return []models.Recipe{{
		ID:          "1",
		Title:       "egg",
		Difficulty:  models.DifficultyEasy,
		Ingredients: []models.Ingredient{{Name: "egg", Qty: "1", Unit: "egg"}},
		Steps:       []string{"fry it in the pan"},
		ReviewIDs:   []string{},
	}}
}

// FallbackRecipe returns the seed recipe with the given id, if any.
func FallbackRecipe(id string) (*models.Recipe, bool) {
	for _, r := range FallbackRecipes() {
		if r.ID == id {
			return &r, true
		}
	}
	return nil, false
}
