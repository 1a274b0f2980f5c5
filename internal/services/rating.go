package services

import (
	"math"

	"recipebox/internal/models"
)

// ComputeRollup derives a recipe's rating fields from its full review set.
// It is recomputed from scratch on every review write, never incrementally.
func ComputeRollup(reviews []models.Review) models.Rollup {
	if len(reviews) == 0 {
		return models.Rollup{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return models.Rollup{
		AvgRating:   RoundToTenth(float64(total) / float64(len(reviews))),
		ReviewCount: len(reviews),
	}
}

// RoundToTenth rounds half away from zero to one decimal place.
func RoundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
