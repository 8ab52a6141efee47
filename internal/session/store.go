package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

const idPrefix = "session_"

// Store keeps per-session transcripts in memory for the lifetime of the
// process. Appends on the same session are serialized by a per-session
// mutex; different sessions proceed fully in parallel.
//
// Append creates unknown sessions on the fly ("create-if-absent") so that a
// caller resuming with a self-supplied identifier keeps working. Reads that
// require existence (Transcript) instead fail with ErrNotFound.
type Store struct {
	mu       sync.RWMutex
	counter  int64
	sessions map[string]*state
}

type state struct {
	mu       sync.Mutex
	messages []model.Message
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Create allocates a fresh, never-reused identifier.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := idPrefix + strconv.FormatInt(s.counter, 10)
	s.sessions[id] = &state{}
	return id
}

// Append adds one message, creating the session if it does not exist yet.
func (s *Store) Append(id string, role model.Role, content string) error {
	if _, err := model.ParseRole(string(role)); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrInvalid, err)
	}
	st := s.getOrCreate(id)
	st.mu.Lock()
	st.messages = append(st.messages, model.Message{Role: role, Content: content})
	st.mu.Unlock()
	return nil
}

// AppendExchange appends a user/assistant pair atomically so that two
// concurrent turns on the same session cannot interleave their messages.
func (s *Store) AppendExchange(id string, query, answer string) error {
	st := s.getOrCreate(id)
	st.mu.Lock()
	st.messages = append(st.messages,
		model.Message{Role: model.RoleUser, Content: query},
		model.Message{Role: model.RoleAssistant, Content: answer},
	)
	st.mu.Unlock()
	return nil
}

// History returns the most recent max messages in chronological order. An
// unknown session yields an empty history, not an error: the query path may
// legitimately see a session before its first append.
func (s *Store) History(id string, max int) []model.Message {
	s.mu.RLock()
	st := s.sessions[id]
	s.mu.RUnlock()
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	msgs := st.messages
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Transcript returns the full ordered message list, or ErrNotFound for a
// session that was never created.
func (s *Store) Transcript(id string) ([]model.Message, error) {
	s.mu.RLock()
	st := s.sessions[id]
	s.mu.RUnlock()
	if st == nil {
		return nil, errs.ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.Message, len(st.messages))
	copy(out, st.messages)
	return out, nil
}

// List summarizes up to limit non-empty sessions, most recent first. The
// session title is the first user message, truncated to 50 characters with a
// trailing ellipsis marker.
func (s *Store) List(limit int) []model.ChatSummary {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return sessionSeq(ids[i]) > sessionSeq(ids[j])
	})

	var out []model.ChatSummary
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		s.mu.RLock()
		st := s.sessions[id]
		s.mu.RUnlock()
		if st == nil {
			continue
		}
		st.mu.Lock()
		count := len(st.messages)
		var first string
		for _, msg := range st.messages {
			if msg.Role == model.RoleUser {
				first = msg.Content
				break
			}
		}
		st.mu.Unlock()
		if count == 0 || first == "" {
			continue
		}
		out = append(out, model.ChatSummary{
			SessionID:    id,
			Title:        truncateTitle(first, 50),
			MessageCount: count,
		})
	}
	return out
}

func (s *Store) getOrCreate(id string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[id]
	if st == nil {
		st = &state{}
		s.sessions[id] = st
		// Never hand out an id below one a caller already used.
		if seq := sessionSeq(id); seq > s.counter {
			s.counter = seq
		}
	}
	return st
}

func sessionSeq(id string) int64 {
	suffix := strings.TrimPrefix(id, idPrefix)
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
