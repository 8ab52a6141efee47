package model

// Course is one parsed course document. Title is the unique key across the
// whole index.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

type Lesson struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Content string `json:"content"`
}

// CourseChunk is the unit of embedding and retrieval: a bounded slice of one
// lesson's text. Ordinal is unique and monotonic within (CourseTitle, Lesson).
type CourseChunk struct {
	CourseTitle string `json:"course_title"`
	LessonNum   int    `json:"lesson_number"`
	LessonTitle string `json:"lesson_title,omitempty"`
	LessonLink  string `json:"lesson_link,omitempty"`
	Ordinal     int    `json:"ordinal"`
	Content     string `json:"content"`
}

// ScoredChunk is a retrieval hit with its cosine similarity score.
type ScoredChunk struct {
	Chunk CourseChunk `json:"chunk"`
	Score float32     `json:"score"`
}

type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}
