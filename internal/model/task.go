package model

import (
	"encoding/json"
	"time"
)

// GenerationTask tracks one asynchronous unit of work submitted to the
// music provider. It transitions pending -> processing -> completed/failed.
type GenerationTask struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	TrackID        string          `json:"trackId"`
	GenerationMode Operation       `json:"generationMode"`
	Status         TaskStatus      `json:"status"`
	Prompt         string          `json:"prompt,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	Lyrics         string          `json:"lyrics,omitempty"`
	SectionStart   *float64        `json:"sectionStart,omitempty"`
	SectionEnd     *float64        `json:"sectionEnd,omitempty"`
	ProviderTaskID string          `json:"providerTaskId,omitempty"`
	ResultTrackID  string          `json:"resultTrackId,omitempty"`
	AudioClips     json.RawMessage `json:"audioClips,omitempty"`
	ErrorMessage   *string         `json:"errorMessage,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// AudioClip is one generated clip inside a task's audio_clips payload.
type AudioClip struct {
	ID       string  `json:"id"`
	AudioURL string  `json:"audio_url"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// TaskEvent is the change notification published for every task status
// transition. AudioClips may arrive either as a JSON array or as a
// JSON-encoded string of an array, matching the provider callback shape.
type TaskEvent struct {
	TaskID         string          `json:"id"`
	TrackID        string          `json:"trackId"`
	Status         TaskStatus      `json:"status"`
	GenerationMode Operation       `json:"generation_mode"`
	AudioClips     json.RawMessage `json:"audio_clips,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// GenerationRequest is the request body for submitting any studio
// generation operation against a track.
type GenerationRequest struct {
	TrackID      string   `json:"trackId" validate:"required"`
	SessionID    string   `json:"sessionId,omitempty"`
	Prompt       string   `json:"prompt,omitempty" validate:"max=2000"`
	Tags         string   `json:"tags,omitempty" validate:"max=500"`
	Lyrics       string   `json:"lyrics,omitempty" validate:"max=5000"`
	SectionStart *float64 `json:"sectionStart,omitempty" validate:"omitempty,gte=0"`
	SectionEnd   *float64 `json:"sectionEnd,omitempty" validate:"omitempty,gte=0"`
}

// GenerationResponse is returned when a task is accepted.
type GenerationResponse struct {
	TaskID    string     `json:"taskId"`
	TrackID   string     `json:"trackId"`
	Operation Operation  `json:"operation"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TaskStatusResponse is the API view of a generation task.
type TaskStatusResponse struct {
	TaskID         string     `json:"taskId"`
	TrackID        string     `json:"trackId"`
	GenerationMode Operation  `json:"generationMode"`
	Status         TaskStatus `json:"status"`
	AudioClips     []AudioClip `json:"audioClips,omitempty"`
	Error          *string    `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}
