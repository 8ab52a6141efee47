package model

import (
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Message is one turn in a session transcript. Position is implicit append
// order; the store does not enforce role alternation, callers must.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SourceCitation is provenance for an answer: which course/lesson backed it.
// Citations are a query-response artifact, they are not retained in the
// session transcript.
type SourceCitation struct {
	CourseTitle string `json:"course_title"`
	Lesson      string `json:"lesson"`
	Link        string `json:"link,omitempty"`
	Rank        int    `json:"rank"`
}

// ChatSummary is one row of the recent-chats listing.
type ChatSummary struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}
