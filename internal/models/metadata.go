package models

// Metadata is the free-form JSON object stored in the metadata column of
// projects, chats and files.
type Metadata map[string]interface{}

// String returns the value under key when it is a non-empty string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
