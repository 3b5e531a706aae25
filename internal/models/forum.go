package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForumPost is a post in the community forum. Likes and Saves are sets of
// user ids.
type ForumPost struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	UserEmail string             `bson:"user_email" json:"user_email"`
	Username  string             `bson:"username" json:"username"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	CarBrand  string             `bson:"car_brand,omitempty" json:"car_brand,omitempty"`
	CarModel  string             `bson:"car_model,omitempty" json:"car_model,omitempty"`
	CarYear   string             `bson:"car_year,omitempty" json:"car_year,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	Likes     []string           `bson:"likes" json:"likes"`
	Saves     []string           `bson:"saves" json:"saves"`
	Comments  []ForumComment     `bson:"comments" json:"comments"`
}

// ForumComment is a reply on a post.
type ForumComment struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	UserEmail string    `bson:"user_email" json:"user_email"`
	Username  string    `bson:"username" json:"username"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Likes     []string  `bson:"likes" json:"likes"`
}

// PostDraft is the user input for a new post.
type PostDraft struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=10000"`
	CarBrand string `json:"car_brand" validate:"max=50"`
	CarModel string `json:"car_model" validate:"max=50"`
	CarYear  string `json:"car_year" validate:"max=4"`
}

// CommentDraft is the user input for a new comment.
type CommentDraft struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Contains reports whether id is in set.
func Contains(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

// LikedBy reports whether userID has liked the post.
func (p *ForumPost) LikedBy(userID string) bool {
	return Contains(p.Likes, userID)
}

// SavedBy reports whether userID has saved the post.
func (p *ForumPost) SavedBy(userID string) bool {
	return Contains(p.Saves, userID)
}

// Comment returns the comment with the given id, or nil.
func (p *ForumPost) Comment(id string) *ForumComment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}
