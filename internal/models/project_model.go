package models

import "time"

// Project groups the chats and files of one user.
type Project struct {
	ID          string    `json:"id" firestore:"-"`
	UserID      string    `json:"user_id" firestore:"user_id"`
	Name        string    `json:"name" firestore:"name"`
	Description *string   `json:"description" firestore:"description"`
	IsPublic    bool      `json:"is_public" firestore:"is_public"`
	Metadata    Metadata  `json:"metadata" firestore:"metadata"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at,serverTimestamp"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updated_at,serverTimestamp"`
}

// ProjectInsert is the payload for creating a project. The backend assigns
// id and timestamps.
type ProjectInsert struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsPublic    bool     `json:"is_public"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// ProjectUpdate is a partial update; nil fields are left as they are.
type ProjectUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// IsEmpty reports whether the update would not change anything.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.IsPublic == nil && u.Metadata == nil
}
