// Package sse streams lookup progress and vault changes to HTTP clients as
// Server-Sent Events.
//
// Event types are dotted: lookup.started, lookup.attempt, lookup.completed,
// lookup.failed, note.created, note.updated, note.deleted and vault.changed.
// A client may narrow the stream to some prefixes with ?topics=lookup,note
// and resume after a reconnect with the Last-Event-ID header.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is one message to broadcast. An empty ID is filled in on publish.
type Event struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Options tune a Broker. Zero values pick the defaults.
type Options struct {
	// VaultThrottle is the minimum gap between two vault.changed events.
	VaultThrottle time.Duration
	// Heartbeat is how often an idle stream gets a comment line.
	Heartbeat time.Duration
	// Replay is how many recent events are kept for Last-Event-ID resumes.
	Replay int
}

func (o Options) withDefaults() Options {
	if o.VaultThrottle <= 0 {
		o.VaultThrottle = 2 * time.Second
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = 15 * time.Second
	}
	if o.Replay <= 0 {
		o.Replay = 64
	}
	return o
}

type frame struct {
	id   string
	typ  string
	data []byte
}

type subscriber struct {
	ch     chan []byte
	topics []string
	after  string // replay everything newer than this event id
}

func (s *subscriber) wants(typ string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, t := range s.topics {
		if typ == t || strings.HasPrefix(typ, t+".") {
			return true
		}
	}
	return false
}

type noteChange struct {
	kind string
	path string
}

// Broker fans events out to SSE clients.
//
// One goroutine owns the subscriber set, the replay ring and the
// vault.changed throttle; the exported methods talk to it over channels.
type Broker struct {
	opts Options

	subscribeCh   chan *subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteCh        chan noteChange
	countCh       chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker(opts Options) *Broker {
	b := &Broker{
		opts:          opts.withDefaults(),
		subscribeCh:   make(chan *subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteCh:        make(chan noteChange, 256),
		countCh:       make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[chan []byte]*subscriber)
	ring := make([]frame, 0, b.opts.Replay)
	var lastVault time.Time

	send := func(s *subscriber, f frame) {
		if !s.wants(f.typ) {
			return
		}
		select {
		case s.ch <- f.data:
		default:
			// Slow client; it misses this event and can resume by id.
		}
	}

	broadcast := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		f := frame{
			id:   ev.ID,
			typ:  ev.Type,
			data: []byte(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, payload)),
		}
		if len(ring) == b.opts.Replay {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, f)
		for _, s := range subs {
			send(s, f)
		}
	}

	replay := func(s *subscriber) {
		if s.after == "" {
			return
		}
		start := -1
		for i, f := range ring {
			if f.id == s.after {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return
		}
		for _, f := range ring[start:] {
			send(s, f)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.subscribeCh:
			subs[s.ch] = s
			replay(s)

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)

		case c := <-b.noteCh:
			switch c.kind {
			case "created", "updated", "deleted":
				broadcast(Event{Type: "note." + c.kind, Data: map[string]string{"path": c.path}})
			default:
				continue
			}
			if now := time.Now(); now.Sub(lastVault) >= b.opts.VaultThrottle {
				lastVault = now
				broadcast(Event{Type: "vault.changed", Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(subs)
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. topics narrows the stream to event type
// prefixes (nil means everything); lastID replays buffered events newer
// than that id. The returned channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(topics []string, lastID string) chan []byte {
	s := &subscriber{ch: make(chan []byte, 64), topics: topics, after: lastID}
	if b.closed.Load() {
		close(s.ch)
		return s.ch
	}
	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		close(s.ch)
	}
	return s.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts ev. It satisfies lookup.Publisher.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// PublishNoteEvent reports a vault file change seen by the index watcher.
// kind is "created", "updated" or "deleted"; other kinds are ignored.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteCh <- noteChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ParseTopics splits a comma separated topics query value.
func ParseTopics(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.Trim(strings.TrimSpace(t), "."); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ServeHTTP is the GET /api/events handler.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(ParseTopics(r.URL.Query().Get("topics")), r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	heartbeat := time.NewTicker(b.opts.Heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
