package model

// Section is a detected structural unit of a track (verse, chorus, ...)
// with its time bounds and transcribed lyrics.
type Section struct {
	Label     string  `json:"label"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Lyrics    string  `json:"lyrics,omitempty"`
}

// SectionRange is an arbitrary user-chosen time range within a track.
type SectionRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SectionCompletion is the result record produced when a replace-section
// task reaches a terminal state. NewAudioURLB carries the second variant
// when the provider returns two clips.
type SectionCompletion struct {
	TaskID           string        `json:"taskId"`
	OriginalAudioURL string        `json:"originalAudioUrl"`
	NewAudioURL      string        `json:"newAudioUrl,omitempty"`
	NewAudioURLB     string        `json:"newAudioUrlB,omitempty"`
	Section          *SectionRange `json:"section,omitempty"`
	Status           TaskStatus    `json:"status"`
}

// SelectSectionRequest selects a detected section for editing.
type SelectSectionRequest struct {
	Section Section `json:"section" validate:"required"`
	Index   int     `json:"index" validate:"gte=0"`
}

// CustomRangeRequest sets an ad-hoc replacement range.
type CustomRangeRequest struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gtfield=Start"`
}

// EditorFieldsRequest updates the free-text fields of the section editor.
// Nil fields are left unchanged.
type EditorFieldsRequest struct {
	Lyrics *string `json:"lyrics,omitempty" validate:"omitempty,max=5000"`
	Prompt *string `json:"prompt,omitempty" validate:"omitempty,max=2000"`
	Tags   *string `json:"tags,omitempty" validate:"omitempty,max=500"`
}

// SectionsResponse lists the detected sections of a track.
type SectionsResponse struct {
	TrackID  string    `json:"trackId"`
	Sections []Section `json:"sections"`
	Cached   bool      `json:"cached"`
}
