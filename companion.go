package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const (
	companionTick      = time.Second
	companionIdleAfter = 30 * time.Minute
	maxCompanionQueues = 256
)

// ErrTooManyCompanions is returned when a new player would exceed the live
// queue limit.
var ErrTooManyCompanions = errors.New("too many active companions")

// CompanionMessage is pushed to the player's companion topic.
type CompanionMessage struct {
	Type     string     `json:"type"`
	Player   string     `json:"player"`
	Message  string     `json:"message"`
	Key      TriggerKey `json:"key"`
	Priority string     `json:"priority"`
	Fallback bool       `json:"fallback"`
}

// Companion keeps one trigger queue per player and drains them through the
// chat service, publishing each line on "companion:<player>".
type Companion struct {
	mu        sync.Mutex
	queues    map[string]*TriggerQueue
	maxQueues int
	cooldown  time.Duration
	chat      *ChatService
	sse       *Broadcaster
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewCompanion(chat *ChatService, sse *Broadcaster, cooldown time.Duration) *Companion {
	return &Companion{
		queues:    make(map[string]*TriggerQueue),
		maxQueues: maxCompanionQueues,
		cooldown:  cooldown,
		chat:      chat,
		sse:       sse,
		now:       time.Now,
	}
}

func companionTopic(player string) string {
	return "companion:" + player
}

// Trigger queues a prompt for player and returns the queue depth.
func (c *Companion) Trigger(player string, t Trigger) (int, error) {
	player = sanitizeName(player)
	if player == "" {
		return 0, invalid("name", "required")
	}
	if t.Prompt == "" {
		return 0, invalid("prompt", "required")
	}
	if t.Context.Game == "" {
		t.Context.Game = "general"
	}
	t.Context.PlayerName = player
	t.Context.Trigger = t.Prompt
	t.QueuedAt = c.now()

	c.mu.Lock()
	q, ok := c.queues[player]
	if !ok {
		if len(c.queues) >= c.maxQueues {
			c.mu.Unlock()
			return 0, ErrTooManyCompanions
		}
		q = NewTriggerQueue(c.cooldown)
		c.queues[player] = q
	}
	c.mu.Unlock()

	q.Push(t)
	return q.Len(), nil
}

// Pending returns the player's queued triggers in drain order.
func (c *Companion) Pending(player string) []Trigger {
	c.mu.Lock()
	q, ok := c.queues[sanitizeName(player)]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return q.Pending()
}

// Run drains queues until ctx is cancelled, then waits for in-flight replies.
func (c *Companion) Run(ctx context.Context) {
	ticker := time.NewTicker(companionTick)
	defer ticker.Stop()
	defer c.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

// drain fires at most one ready trigger per player and evicts idle queues.
func (c *Companion) drain(ctx context.Context) {
	now := c.now()

	c.mu.Lock()
	ready := make(map[string]Trigger)
	for player, q := range c.queues {
		if t, ok := q.Next(now); ok {
			ready[player] = t
			continue
		}
		if q.Len() == 0 && now.Sub(q.idleSince()) > companionIdleAfter {
			delete(c.queues, player)
		}
	}
	c.mu.Unlock()

	for player, t := range ready {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.fire(ctx, player, t)
		}()
	}
}

func (c *Companion) fire(ctx context.Context, player string, t Trigger) {
	msg := CompanionMessage{
		Type:     "companion_message",
		Player:   player,
		Key:      t.Key,
		Priority: t.Priority.String(),
	}

	chatCtx := t.Context
	text, err := c.chat.Reply(ctx, ChatRequest{Context: &chatCtx})
	if err != nil {
		log.Printf("companion reply for %s: %v", player, err)
		text = fallbackFor(t.Context.Game)
		msg.Fallback = true
	}
	msg.Message = text
	c.sse.Publish(companionTopic(player), msg)
}
