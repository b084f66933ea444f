package models

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContextBundle holds scraped page text and the citation-key to source-URL
// mapping produced for one assistant turn. Bundles are written once and
// read-only afterwards; later turns fold them without mutation.
type ContextBundle struct {
	Content   string            `json:"content"`
	Citations map[string]string `json:"citations"`
}

// Message is a single turn in a conversation. Ordering within a history
// slice is chronological and significant: it is the model's memory.
type Message struct {
	Role            Role           `json:"role"`
	Content         string         `json:"content"`
	HTMLContent     string         `json:"htmlContent,omitempty"`
	ContextFromURLs *ContextBundle `json:"contextFromUrls,omitempty"`
}
