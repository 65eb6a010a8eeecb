package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a document excerpt the backend used to ground a chat reply.
type Source struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}
