package main

import (
	"strings"
	"sync"
	"time"
)

// Priority orders companion prompts in the trigger queue.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// TriggerKey groups prompts that say the same kind of thing.
type TriggerKey string

const (
	KeyCompletion TriggerKey = "completion"
	KeyMistake    TriggerKey = "mistake"
	KeyProgress   TriggerKey = "progress"
	KeyGeneric    TriggerKey = "generic"

	maxQueueDepth   = 8
	defaultCooldown = 9 * time.Second
)

var triggerRules = []struct {
	words    []string
	priority Priority
	key      TriggerKey
}{
	{[]string{"complete", "finished", "won", "win", "game over", "well done", "congrat"}, PriorityHigh, KeyCompletion},
	{[]string{"wrong", "mistake", "incorrect", "missed", "try again", "lost"}, PriorityMedium, KeyMistake},
	{[]string{"progress", "level", "streak", "correct", "match", "score", "halfway"}, PriorityLow, KeyProgress},
}

// Classify maps a prompt to its priority and dedup key by substring match.
func Classify(prompt string) (Priority, TriggerKey) {
	p := strings.ToLower(prompt)
	for _, rule := range triggerRules {
		for _, w := range rule.words {
			if strings.Contains(p, w) {
				return rule.priority, rule.key
			}
		}
	}
	return PriorityLow, KeyGeneric
}

// Trigger is a queued companion prompt.
type Trigger struct {
	Prompt   string      `json:"prompt"`
	Priority Priority    `json:"-"`
	Key      TriggerKey  `json:"key"`
	Context  ChatContext `json:"context"`
	QueuedAt time.Time   `json:"queuedAt"`
}

// TriggerQueue is a bounded priority queue drained at most once per cooldown.
// High prompts jump the line, low prompts coalesce by key.
type TriggerQueue struct {
	mu       sync.Mutex
	items    []Trigger
	cooldown time.Duration
	lastFire time.Time
	touched  time.Time
}

func NewTriggerQueue(cooldown time.Duration) *TriggerQueue {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &TriggerQueue{cooldown: cooldown}
}

// Push classifies and enqueues a trigger, then trims the queue to its depth.
func (q *TriggerQueue) Push(t Trigger) {
	t.Priority, t.Key = Classify(t.Prompt)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.touched = t.QueuedAt

	switch t.Priority {
	case PriorityHigh:
		q.items = append([]Trigger{t}, q.items...)
	case PriorityLow:
		replaced := false
		for i, it := range q.items {
			if it.Priority == PriorityLow && it.Key == t.Key {
				q.items[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			q.items = append(q.items, t)
		}
	default:
		q.items = append(q.items, t)
	}

	if len(q.items) > maxQueueDepth {
		q.items = q.items[:maxQueueDepth]
	}
}

// Next pops the head if the cooldown since the last fire has passed.
func (q *TriggerQueue) Next(now time.Time) (Trigger, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Trigger{}, false
	}
	if !q.lastFire.IsZero() && now.Sub(q.lastFire) < q.cooldown {
		return Trigger{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	q.lastFire = now
	q.touched = now
	return t, true
}

// Len returns the number of queued triggers.
func (q *TriggerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of the queue in drain order.
func (q *TriggerQueue) Pending() []Trigger {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Trigger(nil), q.items...)
}

func (q *TriggerQueue) idleSince() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.touched
}
