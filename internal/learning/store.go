package learning

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/simwidget/autoflight/internal/storage"
)

// ErrNotFound is returned by Remove for an unknown entry ID.
var ErrNotFound = errors.New("learning: entry not found")

// Entry is one confidence-weighted textual observation.
type Entry struct {
	ID            int       `json:"id"`
	Confidence    int       `json:"confidence"`
	Text          string    `json:"text"`
	Reinforcement int       `json:"reinforcement"`
	Created       time.Time `json:"created"`
}

// Store keeps learnings durable and deduplicated. Duplicate detection uses
// normalized-text match: lowercased, whitespace collapsed, trailing
// sentence punctuation trimmed. Two submissions that differ only in case,
// spacing, or a trailing period reinforce one entry instead of creating two.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int
	path    string
}

type storeFile struct {
	NextID  int     `json:"next_id"`
	Entries []Entry `json:"entries"`
}

// NewStore creates a Store persisting at path, loading any saved entries.
func NewStore(path string) *Store {
	s := &Store{nextID: 1, path: path}
	var saved storeFile
	if err := storage.LoadJSON(path, &saved); err != nil {
		if err != storage.ErrNotFound {
			log.Printf("learning: load entries: %v", err)
		}
		return s
	}
	s.entries = saved.Entries
	s.nextID = saved.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	return s
}

// Add records a new observation. If an entry with matching normalized text
// already exists, its reinforcement count is incremented and its confidence
// raised to at least the submitted value (plus a small reinforcement bump,
// capped at 100) instead of creating a duplicate. Returns the entry.
func (s *Store) Add(text string, confidence int) Entry {
	confidence = clampConfidence(confidence)
	norm := Normalize(text)

	s.mu.Lock()
	for i := range s.entries {
		if Normalize(s.entries[i].Text) != norm {
			continue
		}
		e := &s.entries[i]
		e.Reinforcement++
		c := e.Confidence + 5
		if confidence > c {
			c = confidence
		}
		e.Confidence = clampConfidence(c)
		out := *e
		s.mu.Unlock()
		s.persist()
		return out
	}

	e := Entry{
		ID:            s.nextID,
		Confidence:    confidence,
		Text:          strings.TrimSpace(text),
		Reinforcement: 1,
		Created:       time.Now().UTC(),
	}
	s.nextID++
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	s.persist()
	return e
}

// Remove deletes the entry with the given ID (the FORGET directive).
func (s *Store) Remove(id int) error {
	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		s.mu.Unlock()
		s.persist()
		return nil
	}
	s.mu.Unlock()
	return ErrNotFound
}

// Entries returns a snapshot of all entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) persist() {
	s.mu.Lock()
	snapshot := storeFile{NextID: s.nextID, Entries: make([]Entry, len(s.entries))}
	copy(snapshot.Entries, s.entries)
	s.mu.Unlock()

	// In-memory state stays authoritative on failure; the next Add/Remove
	// writes the full set again.
	if err := storage.SaveJSON(s.path, snapshot); err != nil {
		log.Printf("learning: persist entries: %v", err)
	}
}

// Normalize maps text to its dedup key: lowercase, single-spaced, with
// trailing sentence punctuation removed.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Join(strings.Fields(t), " ")
	return strings.TrimRight(t, ".!")
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
