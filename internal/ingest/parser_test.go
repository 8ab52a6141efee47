package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const scriptDoc = `Course Title: Distributed Systems
Course Link: https://example.edu/ds
Course Instructor: Ada Lovelace

Lesson 1: Consensus
Lesson Link: https://example.edu/ds/1
Paxos is a consensus protocol. Raft is easier to follow.

Lesson 2: Replication
Leader based replication is common.
`

func TestParseCourseScript(t *testing.T) {
	course, err := ParseCourseDocument("ds.txt", scriptDoc)
	require.NoError(t, err)
	require.Equal(t, "Distributed Systems", course.Title)
	require.Equal(t, "https://example.edu/ds", course.Link)
	require.Equal(t, "Ada Lovelace", course.Instructor)
	require.Len(t, course.Lessons, 2)

	first := course.Lessons[0]
	require.Equal(t, 1, first.Number)
	require.Equal(t, "Consensus", first.Title)
	require.Equal(t, "https://example.edu/ds/1", first.Link)
	require.Contains(t, first.Content, "Paxos is a consensus protocol.")
	require.NotContains(t, first.Content, "Lesson Link:")

	second := course.Lessons[1]
	require.Equal(t, 2, second.Number)
	require.Equal(t, "Replication", second.Title)
	require.Empty(t, second.Link)
}

func TestParseCourseScriptTitleFromFilename(t *testing.T) {
	doc := "Lesson 1: Intro\nSome transcript text here.\n"
	course, err := ParseCourseDocument("courses/operating_systems.txt", doc)
	require.NoError(t, err)
	require.Equal(t, "operating_systems", course.Title)
	require.Len(t, course.Lessons, 1)
}

func TestParseCourseScriptNoLessonMarkers(t *testing.T) {
	doc := "Course Title: Databases\nB-trees keep data sorted.\nHash indexes are faster for point lookups.\n"
	course, err := ParseCourseDocument("db.txt", doc)
	require.NoError(t, err)
	require.Equal(t, "Databases", course.Title)
	require.Len(t, course.Lessons, 1)
	require.Equal(t, 0, course.Lessons[0].Number)
	require.Contains(t, course.Lessons[0].Content, "B-trees keep data sorted.")
	require.NotContains(t, course.Lessons[0].Content, "Course Title:")
}

func TestParseCourseScriptEmpty(t *testing.T) {
	_, err := ParseCourseDocument("empty.txt", "   \n\n  ")
	require.Error(t, err)
}

const markdownDoc = `# Networking

Welcome to the course.

## Transport Layer

TCP provides reliable delivery. UDP does not.

## Application Layer

HTTP rides on TCP.

` + "```" + `
GET / HTTP/1.1
` + "```" + `
`

func TestParseMarkdownCourse(t *testing.T) {
	course, err := ParseCourseDocument("networking.md", markdownDoc)
	require.NoError(t, err)
	require.Equal(t, "Networking", course.Title)
	require.Len(t, course.Lessons, 3)

	require.Equal(t, "Overview", course.Lessons[0].Title)
	require.Equal(t, 0, course.Lessons[0].Number)
	require.Contains(t, course.Lessons[0].Content, "Welcome to the course.")

	require.Equal(t, "Transport Layer", course.Lessons[1].Title)
	require.Contains(t, course.Lessons[1].Content, "TCP provides reliable delivery.")

	require.Equal(t, "Application Layer", course.Lessons[2].Title)
	require.Contains(t, course.Lessons[2].Content, "GET / HTTP/1.1")
}

func TestParseMarkdownCourseTitleFromFilename(t *testing.T) {
	course, err := ParseCourseDocument("notes/compilers.md", "Just a paragraph without headings.")
	require.NoError(t, err)
	require.Equal(t, "compilers", course.Title)
	require.Len(t, course.Lessons, 1)
	require.True(t, strings.Contains(course.Lessons[0].Content, "paragraph"))
}
