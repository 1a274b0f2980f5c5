package models

import "time"

// Review is one user's rating of one recipe. The (RecipeID, UserID) pair is
// unique in every store.
type Review struct {
	ID        string       `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	RecipeID  string       `json:"recipe" bson:"recipe" gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_recipe_user"`
	UserID    string       `json:"-" bson:"user" gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_recipe_user"`
	User      *UserSummary `json:"user" bson:"-" gorm:"-"`
	Rating    int          `json:"rating" bson:"rating" gorm:"not null"`
	Comment   string       `json:"comment" bson:"comment" gorm:"type:varchar(500);not null"`
	Helpful   int          `json:"helpful" bson:"helpful" gorm:"not null"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}
