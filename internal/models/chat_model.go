package models

import "time"

// Chat metadata keys used to reconcile backend chats with local history.
const (
	ChatMetaLocalID     = "chatId"
	ChatMetaLastUpdated = "lastUpdated"
)

// Message is one entry of a chat transcript.
type Message struct {
	ID        string     `json:"id,omitempty" firestore:"id,omitempty"`
	Role      string     `json:"role" firestore:"role"`
	Content   string     `json:"content" firestore:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}

// Chat is a persisted conversation inside a project.
type Chat struct {
	ID        string    `json:"id" firestore:"-"`
	ProjectID string    `json:"project_id" firestore:"project_id"`
	UserID    string    `json:"user_id" firestore:"user_id"`
	Title     string    `json:"title" firestore:"title"`
	Messages  []Message `json:"messages" firestore:"messages"`
	Metadata  Metadata  `json:"metadata" firestore:"metadata"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at,serverTimestamp"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at,serverTimestamp"`
}

// ChatInsert is the payload for creating a chat.
type ChatInsert struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// ChatUpdate is a partial update; nil fields are left as they are.
type ChatUpdate struct {
	Title    *string    `json:"title,omitempty"`
	Messages *[]Message `json:"messages,omitempty"`
	Metadata Metadata   `json:"metadata,omitempty"`
}

// ChatHistoryItem is the shape of a chat in the UI's local history list.
type ChatHistoryItem struct {
	ID          string              `json:"id"`
	URLID       string              `json:"urlId"`
	Description string              `json:"description"`
	Messages    []Message           `json:"messages"`
	Timestamp   time.Time           `json:"timestamp"`
	Metadata    ChatHistoryMetadata `json:"metadata"`
}

// ChatHistoryMetadata links a history item back to its backend rows.
type ChatHistoryMetadata struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	SupabaseID  string `json:"supabaseId"`
}

// NewChatHistoryItem converts a backend chat owned by project into a history item.
func NewChatHistoryItem(chat *Chat, project *Project) ChatHistoryItem {
	urlID := chat.Metadata.String(ChatMetaLocalID)
	if urlID == "" {
		urlID = chat.ID
	}
	messages := chat.Messages
	if messages == nil {
		messages = []Message{}
	}
	return ChatHistoryItem{
		ID:          chat.ID,
		URLID:       urlID,
		Description: chat.Title,
		Messages:    messages,
		Timestamp:   chat.CreatedAt,
		Metadata: ChatHistoryMetadata{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			SupabaseID:  chat.ID,
		},
	}
}

// IsEmpty reports whether the update would not change anything.
func (u ChatUpdate) IsEmpty() bool {
	return u.Title == nil && u.Messages == nil && u.Metadata == nil
}
