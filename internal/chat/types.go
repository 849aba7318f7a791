package chat

import "time"

// Role identifies who produced a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleCommand marks a reply produced locally by a pose command.
	RoleCommand Role = "command"
)

// Message is one line of the conversation.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Reply is the backend's answer to a chat message.
type Reply struct {
	Text     string `json:"response"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Name     string `json:"virtual_human_name,omitempty"`
}

// Provider is an LLM provider offered by the backend.
type Provider struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Models []string `json:"models"`
}

// ProviderList is the backend's provider catalogue and current choice.
type ProviderList struct {
	Providers       []Provider `json:"providers"`
	CurrentProvider string     `json:"current_provider"`
	CurrentModel    string     `json:"current_model"`
}

// Exchange is one user/assistant pair from the backend history.
type Exchange struct {
	User      string  `json:"user"`
	Assistant string  `json:"assistant"`
	Timestamp float64 `json:"timestamp"`
}

// envelope is the common backend response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type switchRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}
