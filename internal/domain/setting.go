package domain

import "time"

// GenerationSetting is one row of the append-only global generation
// toggle log. The latest row wins; an empty log means disabled.
type GenerationSetting struct {
	ID        int64     `json:"id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseGenerationSetting is one row of the append-only per-course
// generation toggle log. Rows are never mutated; toggling a course
// appends a new row so concurrent readers always see a fully-formed
// prior or current value.
type CourseGenerationSetting struct {
	ID        int64     `json:"id"`
	CourseID  string    `json:"course_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}
