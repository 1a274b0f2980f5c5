package models

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// Difficulty is how hard a recipe is to cook.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Quantity is an ingredient amount. Clients send it either as a JSON string
// ("1/2") or a bare number (2); both decode to the same text.
type Quantity string

// UnmarshalJSON accepts a JSON string or number.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if f, err := n.Float64(); err == nil {
		*q = Quantity(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*q = Quantity(n.String())
	return nil
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name string   `json:"name" bson:"name" validate:"required"`
	Qty  Quantity `json:"qty" bson:"qty" validate:"required"`
	Unit string   `json:"unit" bson:"unit" validate:"required"`
}

// Recipe is a published recipe. AvgRating and ReviewCount are rollups of the
// recipe's reviews and are only written by the review service.
type Recipe struct {
	ID          string                          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Title       string                          `json:"title" bson:"title" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Difficulty  Difficulty                      `json:"difficulty" bson:"difficulty" gorm:"type:varchar(10);not null" validate:"oneof=Easy Medium Hard"`
	Ingredients datatypes.JSONSlice[Ingredient] `json:"ingredients" bson:"ingredients" validate:"dive"`
	Steps       datatypes.JSONSlice[string]     `json:"steps" bson:"steps" validate:"dive,required"`
	Photo       string                          `json:"photo" bson:"photo"`
	AuthorID    string                          `json:"-" bson:"author" gorm:"type:varchar(36);index;not null"`
	Author      *UserSummary                    `json:"author" bson:"-" gorm:"-"`
	ReviewIDs   datatypes.JSONSlice[string]     `json:"reviews" bson:"reviews"`
	AvgRating   float64                         `json:"avgRating" bson:"avgRating" gorm:"not null"`
	ReviewCount int                             `json:"reviewCount" bson:"reviewCount" gorm:"not null"`
	CreatedAt   time.Time                       `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt   time.Time                       `json:"updatedAt" bson:"updatedAt"`
}

// Rollup holds the derived rating fields of a recipe.
type Rollup struct {
	AvgRating   float64
	ReviewCount int
}
