// Package llm mantém a conversa do gateway: histórico em memória e a ponte
// para o backend que gera as respostas do assistente.
package llm

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage monta uma mensagem de usuário com id e timestamp novos.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

const fallbackReply = "I apologize, but I encountered an error processing your request. Please try again."

// Manager guarda o histórico da conversa (em memória, um mutex) e intermedeia
// as chamadas ao Responder.
//
// O limiter opcional é um token bucket do lado cliente: segura o ritmo das
// chamadas ao backend de LLM independentemente da cota por usuário que o
// gateway aplica na borda.
type Manager struct {
	mu        sync.Mutex
	history   []Message
	responder Responder
	limiter   *rate.Limiter
	logger    *log.Logger
}

type ManagerOption func(*Manager)

// WithUpstreamLimit limita as chamadas ao backend a rps com rajada burst.
func WithUpstreamLimit(rps float64, burst int) ManagerOption {
	return func(m *Manager) { m.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(responder Responder, opts ...ManagerOption) *Manager {
	m := &Manager{
		responder: responder,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Chat anexa a mensagem do usuário ao histórico, pede a resposta ao backend
// e anexa e devolve a resposta do assistente.
//
// Erro do backend não sobe: vira uma resposta de desculpas do assistente,
// com o detalhe apenas no log do servidor. A conversa continua utilizável
// mesmo com o backend instável.
func (m *Manager) Chat(ctx context.Context, userMsg Message) Message {
	m.mu.Lock()
	m.history = append(m.history, userMsg)
	snapshot := make([]Message, len(m.history))
	copy(snapshot, m.history)
	m.mu.Unlock()

	content, err := m.reply(ctx, snapshot)
	if err != nil {
		m.logger.Printf("chat backend error: %v", err)
		content = fallbackReply
	}

	reply := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	m.mu.Lock()
	m.history = append(m.history, reply)
	m.mu.Unlock()

	return reply
}

func (m *Manager) reply(ctx context.Context, history []Message) (string, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return m.responder.Reply(ctx, history)
}

// History devolve uma cópia do histórico da conversa.
func (m *Manager) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.history))
	copy(out, m.history)
	return out
}
