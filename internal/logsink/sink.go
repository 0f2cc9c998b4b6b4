// Package logsink keeps the most recent log entries for display. Producers
// hand entries to a single writer goroutine over a channel and never wait
// for it.
package logsink

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Entry is one timestamped event.
type Entry struct {
	Time     time.Time      `json:"time"`
	Level    string         `json:"level"`
	Strategy string         `json:"strategy,omitempty"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// String renders the entry as a single display line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("2006-01-02 15:04:05"))
	if e.Level != "" {
		fmt.Fprintf(&b, " %-5s", strings.ToUpper(e.Level))
	}
	if e.Strategy != "" {
		fmt.Fprintf(&b, " [%s]", e.Strategy)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Config sizes a Sink.
type Config struct {
	// Capacity is the number of recent entries retained.
	Capacity int `mapstructure:"capacity"`
	// Backlog is how many entries may wait for the writer before Append
	// starts dropping.
	Backlog int `mapstructure:"backlog"`
}

// DefaultConfig returns a 500 entry buffer with a 1024 entry backlog.
func DefaultConfig() Config {
	return Config{Capacity: 500, Backlog: 1024}
}

// Sink is a bounded most-recent-N log buffer.
type Sink struct {
	in      chan Entry
	reqs    chan chan []Entry
	quit    chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
	now     func() time.Time

	// owned by run
	ring  []Entry
	head  int
	count int
	final []Entry
}

// New starts a sink.
func New(cfg Config) *Sink {
	s := newSink(cfg)
	go s.run()
	return s
}

func newSink(cfg Config) *Sink {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.Backlog < 0 {
		cfg.Backlog = 0
	}
	return &Sink{
		in:   make(chan Entry, cfg.Backlog),
		reqs: make(chan chan []Entry),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
		ring: make([]Entry, cfg.Capacity),
	}
}

// Append queues e without blocking. It reports false when the entry was
// dropped because the backlog is full or the sink is closed.
func (s *Sink) Append(e Entry) bool {
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	select {
	case <-s.quit:
		s.dropped.Add(1)
		return false
	default:
	}
	select {
	case s.in <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Printf appends an info entry built from a format string.
func (s *Sink) Printf(format string, args ...any) {
	s.Append(Entry{Level: "info", Message: fmt.Sprintf(format, args...)})
}

// Recent returns retained entries, oldest first. Entries appended before
// the call are included unless they were dropped.
func (s *Sink) Recent() []Entry {
	req := make(chan []Entry, 1)
	select {
	case s.reqs <- req:
		return <-req
	case <-s.done:
		out := make([]Entry, len(s.final))
		copy(out, s.final)
		return out
	}
}

// Dropped returns how many entries Append has discarded.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops the writer after it drains the backlog. Safe to call twice.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for {
		select {
		case e := <-s.in:
			s.push(e)
		case req := <-s.reqs:
			s.drain()
			req <- s.snapshot()
		case <-s.quit:
			s.drain()
			s.final = s.snapshot()
			return
		}
	}
}

func (s *Sink) drain() {
	for {
		select {
		case e := <-s.in:
			s.push(e)
		default:
			return
		}
	}
}

func (s *Sink) push(e Entry) {
	n := len(s.ring)
	s.ring[(s.head+s.count)%n] = e
	if s.count < n {
		s.count++
	} else {
		s.head = (s.head + 1) % n
	}
}

func (s *Sink) snapshot() []Entry {
	out := make([]Entry, s.count)
	for i := range out {
		out[i] = s.ring[(s.head+i)%len(s.ring)]
	}
	return out
}
