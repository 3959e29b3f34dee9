package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	s1 := b.Subscribe("leaderboard:math")
	s2 := b.Subscribe("leaderboard:math")
	s3 := b.Subscribe("match:abc")

	if b.Subscribers("leaderboard:math") != 2 {
		t.Fatalf("expected 2 subscribers for leaderboard:math, got %d", b.Subscribers("leaderboard:math"))
	}
	if b.Subscribers("match:abc") != 1 {
		t.Fatalf("expected 1 subscriber for match:abc, got %d", b.Subscribers("match:abc"))
	}

	b.Unsubscribe(s1)
	if b.Subscribers("leaderboard:math") != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Subscribers("leaderboard:math"))
	}

	b.Unsubscribe(s2)
	b.Unsubscribe(s3)
	if b.Subscribers("leaderboard:math") != 0 || b.Subscribers("match:abc") != 0 {
		t.Fatal("expected 0 subscribers after full unsubscribe")
	}
	if len(b.topics) != 0 {
		t.Fatalf("empty topics not pruned: %v", b.topics)
	}
}

func TestBroadcasterDoubleUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	s := b.Subscribe("companion:Ah Ma")
	b.Unsubscribe(s)
	b.Unsubscribe(s) // must not panic on the closed channel
}

func TestBroadcastByTopic(t *testing.T) {
	b := NewBroadcaster()

	s1 := b.Subscribe("leaderboard:math")
	s2 := b.Subscribe("leaderboard:memory")
	defer b.Unsubscribe(s1)
	defer b.Unsubscribe(s2)

	b.Broadcast("leaderboard:math", "hello")

	select {
	case msg := <-s1.ch:
		if msg != "hello" {
			t.Fatalf("expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("s1 did not receive message")
	}

	select {
	case <-s2.ch:
		t.Fatal("s2 should not receive a leaderboard:math message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishMarshalsJSON(t *testing.T) {
	b := NewBroadcaster()
	s := b.Subscribe("companion:Ah Ma")
	defer b.Unsubscribe(s)

	b.Publish("companion:Ah Ma", CompanionMessage{Type: "companion_message", Message: "Steady lah!"})

	select {
	case msg := <-s.ch:
		if !strings.Contains(msg, `"message":"Steady lah!"`) {
			t.Fatalf("unexpected payload %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive published message")
	}
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	s := b.Subscribe("match:1")

	for range sseChannelBuffer {
		b.Broadcast("match:1", "fill")
	}
	// Must not block.
	b.Broadcast("match:1", "overflow")

	b.Unsubscribe(s)
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			topic := "match:1"
			if i%2 == 0 {
				topic = "match:2"
			}
			s := b.Subscribe(topic)
			b.Broadcast(topic, "msg")
			b.Subscribers(topic)
			b.Unsubscribe(s)
		}(i)
	}
	wg.Wait()

	if b.Subscribers("match:1") != 0 || b.Subscribers("match:2") != 0 {
		t.Fatal("expected 0 subscribers after concurrent test")
	}
}

func TestServeSSEStreamsSnapshotAndEvents(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	disconnected := false
	go func() {
		defer close(done)
		b.ServeSSE(w, req, "leaderboard:math", func(s *subscriber) {
			s.ch <- `{"type":"snapshot"}`
		}, func() {
			disconnected = true
		})
	}()

	deadline := time.Now().Add(time.Second)
	for b.Subscribers("leaderboard:math") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	b.Broadcast("leaderboard:math", `{"type":"update"}`)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !disconnected {
		t.Fatal("onDisconnect was not called")
	}
	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}
	for _, want := range []string{"retry: 3000", `data: {"type":"snapshot"}`, `data: {"type":"update"}`} {
		if !strings.Contains(body, want) {
			t.Fatalf("stream missing %q:\n%s", want, body)
		}
	}
	if b.Subscribers("leaderboard:math") != 0 {
		t.Fatal("subscriber not removed after disconnect")
	}
}
