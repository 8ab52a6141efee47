package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/classware/coursechat/internal/model"
)

// Course scripts are plain text with a metadata header followed by lesson
// sections:
//
//	Course Title: Building Things
//	Course Link: https://...
//	Course Instructor: Jane Doe
//
//	Lesson 0: Introduction
//	Lesson Link: https://...
//	<transcript text>
//
// Markdown documents are handled separately, see parser_markdown.go.
var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

func ParseCourseDocument(key, content string) (*model.Course, error) {
	if strings.HasSuffix(strings.ToLower(key), ".md") {
		return parseMarkdownCourse(key, content)
	}
	return parseCourseScript(key, content)
}

func parseCourseScript(key, content string) (*model.Course, error) {
	lines := strings.Split(content, "\n")
	course := &model.Course{}

	idx := 0
	for ; idx < len(lines); idx++ {
		line := strings.TrimSpace(lines[idx])
		if line == "" {
			continue
		}
		if lessonHeaderRe.MatchString(line) {
			break
		}
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		}
	}
	if course.Title == "" {
		// Fall back to the file name so a bare transcript is still loadable.
		course.Title = courseTitleFromKey(key)
	}

	var current *model.Lesson
	var body []string
	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		course.Lessons = append(course.Lessons, *current)
		current = nil
		body = nil
	}
	for ; idx < len(lines); idx++ {
		line := lines[idx]
		trimmed := strings.TrimSpace(line)
		if m := lessonHeaderRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			num, _ := strconv.Atoi(m[1])
			current = &model.Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			continue
		}
		if current != nil && strings.HasPrefix(trimmed, "Lesson Link:") && current.Link == "" && len(body) == 0 {
			current.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	if len(course.Lessons) == 0 {
		var rest []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "Course Title:") ||
				strings.HasPrefix(trimmed, "Course Link:") ||
				strings.HasPrefix(trimmed, "Course Instructor:") {
				continue
			}
			rest = append(rest, line)
		}
		body := strings.TrimSpace(strings.Join(rest, "\n"))
		if body == "" {
			return nil, fmt.Errorf("course document %s is empty", key)
		}
		// No lesson markers: treat the whole body as a single unnamed lesson.
		course.Lessons = []model.Lesson{{Number: 0, Title: course.Title, Content: body}}
	}
	return course, nil
}

func courseTitleFromKey(key string) string {
	base := filepath.Base(key)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
