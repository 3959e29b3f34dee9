package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultSeaLionURL   = "https://api.sea-lion.ai/v1"
	seaLionModel        = "aisingapore/Llama-SEA-LION-v3-70B-IT"
	chatMaxTokens       = 150
	chatTimeout         = 15 * time.Second
	maxHistoryMessages  = 10
	maxChatMessageBytes = 2000
)

// ErrNoChatProvider is returned when neither SEA-LION nor Gemini is configured.
var ErrNoChatProvider = errors.New("chat provider not configured")

// ChatContext describes what the player is doing when the companion speaks.
type ChatContext struct {
	Game       string   `json:"game"`
	PlayerName string   `json:"playerName"`
	State      string   `json:"state,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Trigger    string   `json:"trigger,omitempty"`
}

// ChatMessage is one turn of conversation, role "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages,omitempty"`
	Context  *ChatContext  `json:"context"`
}

// Validate checks the request and trims history to the last turns.
func (r *ChatRequest) Validate() error {
	if r.Context == nil {
		return invalid("context", "required")
	}
	r.Context.Game = strings.TrimSpace(r.Context.Game)
	if r.Context.Game == "" {
		return invalid("context.game", "required")
	}
	r.Context.PlayerName = sanitizeName(r.Context.PlayerName)

	kept := r.Messages[:0]
	for _, m := range r.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		if len(m.Content) > maxChatMessageBytes {
			return invalid("messages", "message too long")
		}
		kept = append(kept, m)
	}
	if len(kept) > maxHistoryMessages {
		kept = kept[len(kept)-maxHistoryMessages:]
	}
	r.Messages = kept
	return nil
}

// ChatProvider produces a companion reply.
type ChatProvider interface {
	Complete(ctx context.Context, system string, msgs []ChatMessage) (string, error)
}

// companionPrompt builds the fixed system prompt for the companion.
func companionPrompt(c ChatContext) string {
	var b strings.Builder
	b.WriteString("You are Kopi Kaki, a warm and cheerful Singaporean companion for elderly players of brain-training games. ")
	b.WriteString("Speak friendly Singlish (lah, leh, wah, can one) but stay easy to understand. ")
	b.WriteString("Reply in at most two short sentences, under 30 words. Always encourage, never scold, never use emojis.\n")
	fmt.Fprintf(&b, "Game: %s\n", c.Game)
	if c.PlayerName != "" {
		fmt.Fprintf(&b, "Player: %s\n", c.PlayerName)
	}
	if c.Trigger != "" {
		fmt.Fprintf(&b, "What just happened: %s\n", c.Trigger)
	}
	if c.State != "" {
		fmt.Fprintf(&b, "Game state: %s\n", c.State)
	}
	if c.Score != nil {
		fmt.Fprintf(&b, "Score: %s\n", strconv.FormatFloat(*c.Score, 'f', -1, 64))
	}
	return b.String()
}

var fallbackPhrases = map[string][]string{
	"memory":         {"Wah, your memory damn good leh!", "Slowly remember, sure can one!"},
	"whack-a-mole":   {"Faster hands than me lah!", "Wah, whack until shiok!"},
	"color-sequence": {"Colours all remember, steady lah!", "Take your time, sure can one."},
	"math":           {"Wah, counting so fast ah!", "Never mind, try again lah!"},
	"word-search":    {"Eh, you find the words like pro!", "Look carefully, the word hiding there one."},
	"number-sorting": {"Sort until so neat, steady!", "Small to big, slowly can lah."},
	"tic-tac-toe":    {"Good move leh!", "Wah, you think like chess master!"},
	"connect-4":      {"Four in a row, you can do it!", "Steady lah, plan your move."},
	"rhythm":         {"Wah, got rhythm sia!", "Follow the beat, shiok!"},
	"quiz":           {"So clever one!", "Never mind, next one sure can!"},
}

var genericFallbacks = []string{
	"Wah, you doing very well lah!",
	"Keep going, you steady one!",
	"Don't give up ah, can one!",
}

// fallbackFor picks a canned phrase for game.
func fallbackFor(game string) string {
	list, ok := fallbackPhrases[strings.ToLower(strings.TrimSpace(game))]
	if !ok {
		list = genericFallbacks
	}
	return list[rand.IntN(len(list))]
}

// ChatService turns a game context into a companion line.
type ChatService struct {
	provider ChatProvider
	timeout  time.Duration
}

// NewChatService wraps provider; a nil provider makes every reply fail with
// ErrNoChatProvider.
func NewChatService(provider ChatProvider) *ChatService {
	return &ChatService{provider: provider, timeout: chatTimeout}
}

// Reply asks the provider for a line. Callers fall back to fallbackFor on error.
func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (string, error) {
	if s == nil || s.provider == nil {
		return "", ErrNoChatProvider
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msgs := req.Messages
	if len(msgs) == 0 {
		prompt := "Say something encouraging."
		if req.Context.Trigger != "" {
			prompt = req.Context.Trigger
		}
		msgs = []ChatMessage{{Role: "user", Content: prompt}}
	}

	text, err := s.provider.Complete(ctx, companionPrompt(*req.Context), msgs)
	if err != nil {
		return "", err
	}
	text = strings.Trim(strings.TrimSpace(text), `"`)
	if text == "" {
		return "", errors.New("empty companion reply")
	}
	return text, nil
}

// SeaLionClient talks to the OpenAI-compatible SEA-LION endpoint.
type SeaLionClient struct {
	client *openai.Client
	model  string
}

// NewSeaLionClient points an OpenAI client at baseURL, which defaults to the
// public SEA-LION API.
func NewSeaLionClient(baseURL, apiKey string) *SeaLionClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = defaultSeaLionURL
	}
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: chatTimeout}
	return &SeaLionClient{client: openai.NewClientWithConfig(cfg), model: seaLionModel}
}

// Complete sends one completion request. There is no retry.
func (c *SeaLionClient) Complete(ctx context.Context, system string, msgs []ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range msgs {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("sea-lion completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("sea-lion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
