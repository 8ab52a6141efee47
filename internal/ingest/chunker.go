package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/classware/coursechat/internal/model"
)

// Chunker splits lesson text into overlapping sentence windows bounded by a
// character budget. Windows never cross lesson boundaries and the output is
// deterministic: the same course always yields the same chunk sequence.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  *regexp.Regexp
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
		splitter:  regexp.MustCompile(`[^.!?]+[.!?]+[\s"')\]]*|[^.!?]+$`),
	}
}

func (c *Chunker) Chunk(course *model.Course) []model.CourseChunk {
	var chunks []model.CourseChunk
	for _, lesson := range course.Lessons {
		chunks = append(chunks, c.chunkLesson(course, lesson)...)
	}
	return chunks
}

func (c *Chunker) chunkLesson(course *model.Course, lesson model.Lesson) []model.CourseChunk {
	sentences := c.splitSentences(lesson.Content)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []model.CourseChunk
	ordinal := 0
	i := 0
	for i < len(sentences) {
		end := i
		size := 0
		for end < len(sentences) {
			next := len(sentences[end])
			if size > 0 && size+next+1 > c.chunkSize {
				break
			}
			size += next
			if end > i {
				size++ // joining space
			}
			end++
		}
		if end == i {
			// Single sentence over budget, emit it whole rather than split
			// mid-sentence.
			end = i + 1
		}
		content := strings.Join(sentences[i:end], " ")
		chunks = append(chunks, model.CourseChunk{
			CourseTitle: course.Title,
			LessonNum:   lesson.Number,
			LessonTitle: lesson.Title,
			LessonLink:  lesson.Link,
			Ordinal:     ordinal,
			Content:     c.contextualize(course, lesson, content),
		})
		ordinal++
		if end >= len(sentences) {
			break
		}
		i = c.backOff(sentences, i, end)
	}
	return chunks
}

// backOff picks the next window start so that roughly overlap characters of
// the previous window are repeated. It always advances by at least one
// sentence to guarantee termination.
func (c *Chunker) backOff(sentences []string, start, end int) int {
	carried := 0
	next := end
	for next > start+1 {
		if carried+len(sentences[next-1]) > c.overlap {
			break
		}
		carried += len(sentences[next-1])
		next--
	}
	return next
}

func (c *Chunker) splitSentences(text string) []string {
	var out []string
	for _, raw := range c.splitter.FindAllString(text, -1) {
		s := strings.Join(strings.Fields(raw), " ")
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// contextualize prefixes the raw window with its provenance so that a chunk
// embedded in isolation still carries course and lesson identity.
func (c *Chunker) contextualize(course *model.Course, lesson model.Lesson, content string) string {
	return fmt.Sprintf("Course %s Lesson %d content: %s", course.Title, lesson.Number, content)
}
