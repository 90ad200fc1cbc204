package models

import "time"

// User is the normalized account record handed to callers after any auth
// operation. Email comes from the auth backend; the remaining fields come
// from the user's profile row and are empty when the profile is unknown.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile is a row of the profiles table (extended user attributes).
type Profile struct {
	ID        string    `json:"id" firestore:"-"`
	Email     string    `json:"email" firestore:"email"`
	Username  *string   `json:"username" firestore:"username"`
	FullName  *string   `json:"full_name" firestore:"full_name"`
	AvatarURL *string   `json:"avatar_url" firestore:"avatar_url"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at,serverTimestamp"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at,serverTimestamp"`
}

// ProfileUpdate carries the mutable profile fields. A nil pointer leaves the
// column untouched. Email is deliberately absent: it cannot change from here.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the update would not change anything.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Username == nil && u.FullName == nil && u.AvatarURL == nil
}

// MergeProfile builds a User from the auth identity and an optional profile.
func MergeProfile(id, email string, profile *Profile) *User {
	user := &User{ID: id, Email: email}
	if profile == nil {
		return user
	}
	user.Username = deref(profile.Username)
	user.FullName = deref(profile.FullName)
	user.AvatarURL = deref(profile.AvatarURL)
	return user
}

// Apply returns a copy of u with the non-nil fields of the update applied.
func (u ProfileUpdate) Apply(user User) User {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.AvatarURL != nil {
		user.AvatarURL = *u.AvatarURL
	}
	return user
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
