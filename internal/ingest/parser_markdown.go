package ingest

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/classware/coursechat/internal/model"
)

// parseMarkdownCourse maps a markdown document onto the course shape: the
// first level-1 heading is the course title, each level-2 heading opens a new
// lesson, everything before the first level-2 heading belongs to lesson 0.
func parseMarkdownCourse(key, content string) (*model.Course, error) {
	md := goldmark.New()
	reader := text.NewReader([]byte(content))
	doc := md.Parser().Parse(reader)

	course := &model.Course{}
	var current *model.Lesson
	var body []string
	lessonNum := 0

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n\n"))
		course.Lessons = append(course.Lessons, *current)
		current = nil
		body = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			heading := string(n.Text(reader.Source()))
			if n.Level == 1 && course.Title == "" {
				course.Title = heading
				continue
			}
			if n.Level <= 2 {
				flush()
				current = &model.Lesson{Number: lessonNum, Title: heading}
				lessonNum++
				continue
			}
			body = append(body, heading)
		case *ast.FencedCodeBlock:
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			if current == nil {
				current = &model.Lesson{Number: lessonNum, Title: "Overview"}
				lessonNum++
			}
			body = append(body, code.String())
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			if current == nil {
				current = &model.Lesson{Number: lessonNum, Title: "Overview"}
				lessonNum++
			}
			body = append(body, txt)
		}
	}
	flush()

	if course.Title == "" {
		course.Title = courseTitleFromKey(key)
	}
	if len(course.Lessons) == 0 {
		return nil, fmt.Errorf("course document %s has no content", key)
	}
	return course, nil
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock || node.Type() == ast.TypeInline {
			if node.Kind() == ast.KindText {
				sb.Write(node.(*ast.Text).Segment.Value(source))
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
