package model

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Assistant content is stored
// already sanitized.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}
