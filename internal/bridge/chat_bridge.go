package bridge

import (
	"context"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/chat"
	"github.com/ChinaCraig/Zy/internal/logging"
	"github.com/ChinaCraig/Zy/internal/session"
)

// ChatResponse is what SendMessage resolves to in the frontend
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Command  bool   `json:"command"` // handled locally as a pose command
	Error    string `json:"error,omitempty"`
}

// ChatBridge exposes chat to the frontend
type ChatBridge struct {
	ctx    context.Context
	sess   *session.Session
	client *chat.Client
	logger *logging.Logger
}

// NewChatBridge creates a new chat bridge
func NewChatBridge(sess *session.Session, client *chat.Client, logger *logging.Logger) *ChatBridge {
	return &ChatBridge{
		ctx:    context.Background(),
		sess:   sess,
		client: client,
		logger: logger,
	}
}

// Bind sets the Wails context
func (b *ChatBridge) Bind(ctx context.Context) {
	b.ctx = ctx

	b.sess.Bus().Subscribe(bus.EventTypeChatMessage, func(e bus.Event) {
		emit(b.ctx, "chat:message", e.Data["message"])
	})
}

// SendMessage handles text as a pose command or forwards it to the backend
func (b *ChatBridge) SendMessage(text string) ChatResponse {
	msg, err := b.sess.Submit(b.ctx, text)
	if err != nil {
		b.logger.Error("chat-bridge", "Chat failed", err, nil)
		return ChatResponse{Error: err.Error()}
	}
	return ChatResponse{
		Success:  true,
		Response: msg.Text,
		Command:  msg.Role == chat.RoleCommand,
	}
}

// GetProviders lists the backend's LLM providers
func (b *ChatBridge) GetProviders() (*chat.ProviderList, error) {
	return b.client.Providers(b.ctx)
}

// SwitchProvider changes the backend's LLM provider
func (b *ChatBridge) SwitchProvider(provider, model string) (string, error) {
	msg, err := b.client.SwitchProvider(b.ctx, provider, model)
	if err != nil {
		b.logger.Error("chat-bridge", "Provider switch failed", err, map[string]any{
			"provider": provider,
			"model":    model,
		})
		return "", err
	}
	return msg, nil
}

// GetChatHistory returns the local conversation
func (b *ChatBridge) GetChatHistory() []chat.Message {
	return b.sess.History().Messages()
}

// ClearHistory clears the local conversation and the backend's
func (b *ChatBridge) ClearHistory() error {
	b.sess.History().Clear()
	if err := b.client.ClearHistory(b.ctx); err != nil {
		b.logger.Warn("chat-bridge", "Backend history not cleared", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}
