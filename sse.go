package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
	sseRetryMillis   = 3000
)

// subscriber receives the events of one topic over one SSE connection.
type subscriber struct {
	ch    chan string
	topic string
}

// Broadcaster pushes JSON events to SSE subscribers. Topics are
// "leaderboard:<game>", "match:<id>" and "companion:<player>".
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a buffered subscriber on topic.
func (b *Broadcaster) Subscribe(topic string) *subscriber {
	s := &subscriber{ch: make(chan string, sseChannelBuffer), topic: topic}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.topics[topic]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.topics[topic] = set
	}
	set[s] = struct{}{}
	return s
}

// Unsubscribe detaches s and closes its channel. A second call is a no-op.
func (b *Broadcaster) Unsubscribe(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.topics[s.topic]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(b.topics, s.topic)
	}
}

// Broadcast queues data for every subscriber of topic. A subscriber with a
// full buffer drops the event.
func (b *Broadcaster) Broadcast(topic, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.topics[topic] {
		select {
		case s.ch <- data:
		default:
		}
	}
}

// Publish broadcasts v encoded as JSON.
func (b *Broadcaster) Publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("sse marshal %s: %v", topic, err)
		return
	}
	b.Broadcast(topic, string(data))
}

// Subscribers reports how many connections listen on topic.
func (b *Broadcaster) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// ServeSSE streams topic to the client until it disconnects. onConnect may
// queue an initial snapshot on the subscriber before streaming starts.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, topic string, onConnect func(s *subscriber), onDisconnect func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s := b.Subscribe(topic)
	defer func() {
		b.Unsubscribe(s)
		if onDisconnect != nil {
			onDisconnect()
		}
	}()

	fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis)
	flusher.Flush()

	if onConnect != nil {
		onConnect(s)
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-s.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
