package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Responder é o backend que gera a resposta do assistente para o histórico
// dado (a última mensagem é a do usuário).
type Responder interface {
	Reply(ctx context.Context, history []Message) (string, error)
}

// StaticResponder devolve sempre a mesma resposta. Útil para desenvolvimento
// local e testes, onde não há backend de LLM disponível.
type StaticResponder struct {
	Content string
}

func (s StaticResponder) Reply(context.Context, []Message) (string, error) {
	if s.Content == "" {
		return "Hello! How can I help you today?", nil
	}
	return s.Content, nil
}

// HTTPResponder chama um endpoint de chat-completions (formato OpenAI).
type HTTPResponder struct {
	URL    string
	APIKey string
	Model  string

	// Client opcional; o padrão tem timeout de 30s.
	Client *http.Client
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (h *HTTPResponder) Reply(ctx context.Context, history []Message) (string, error) {
	msgs := make([]chatMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(chatCompletionRequest{Model: h.Model, Messages: msgs})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// corpo truncado só para diagnóstico; não volta para o cliente final
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat backend returned %d: %s", resp.StatusCode, b)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat backend response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat backend returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
