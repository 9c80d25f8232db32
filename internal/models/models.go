// Package models defines the data structures shared across the client.
package models

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation history. The full history is
// replayed to the backend with every turn because the backend keeps no
// per-session message state of its own.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TranscriptEntry is a message rendered to the user. Entries with
// RoleSystem (upload notices, errors) are display-only and are never sent
// back to the backend.
type TranscriptEntry struct {
	Role Role
	Text string
}

// FileRef describes a selected file before upload. ID is set only for
// drive-sourced files; local files are addressed by path.
type FileRef struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// UploadedFile pairs an uploaded file name with the SHA-256 hex digest of
// its content. The hash is computed client-side for display and later
// deletion reference; it is not an integrity check.
type UploadedFile struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// TurnTranscript is the event published per completed conversation turn,
// one per role.
type TurnTranscript struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
