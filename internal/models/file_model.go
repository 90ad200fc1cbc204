package models

import "time"

// File is a project file snapshot. (ProjectID, Path) is unique.
type File struct {
	ID        string    `json:"id" firestore:"-"`
	ProjectID string    `json:"project_id" firestore:"project_id"`
	UserID    string    `json:"user_id" firestore:"user_id"`
	Path      string    `json:"path" firestore:"path"`
	Content   string    `json:"content" firestore:"content"`
	Size      int64     `json:"size" firestore:"size"`
	Metadata  Metadata  `json:"metadata" firestore:"metadata"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at,serverTimestamp"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at,serverTimestamp"`
}

// FileInsert is the upsert payload for a file.
type FileInsert struct {
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	Path      string   `json:"path"`
	Content   string   `json:"content"`
	Size      int64    `json:"size"`
	Metadata  Metadata `json:"metadata,omitempty"`
}

// Normalize fills Size from the content length when the caller left it zero.
func (f FileInsert) Normalize() FileInsert {
	if f.Size == 0 {
		f.Size = int64(len(f.Content))
	}
	return f
}
