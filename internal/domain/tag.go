package domain

import "time"

// Tag is a user-defined label. Names are unique per user, ignoring case.
type Tag struct {
	TagID     string    `json:"id" dynamodbav:"tag_id"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Color     string    `json:"color" dynamodbav:"color"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type TagRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required"`
}
