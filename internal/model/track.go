package model

import "time"

// Track represents a single audio track within a project. Separated stems
// are stored as additional tracks with a stem type.
type Track struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Title     string      `json:"title,omitempty"`
	Type      TrackType   `json:"type"`
	Status    TrackStatus `json:"status"`
	AudioURL  string      `json:"audioUrl,omitempty"`
	Duration  float64     `json:"duration,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TrackSnapshot is a read-only view of a project's tracks used for
// operation lock evaluation. Evaluators never mutate it.
type TrackSnapshot struct {
	ProjectID string  `json:"projectId"`
	Tracks    []Track `json:"tracks"`
}

// CreateProjectRequest is the request to register a new project with its
// initial track.
type CreateProjectRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=200"`
	AudioURL string  `json:"audioUrl" validate:"required,url"`
	Duration float64 `json:"duration" validate:"gte=0"`
}

// AddTrackRequest adds a track (typically a stem) to an existing project.
type AddTrackRequest struct {
	Title    string      `json:"title,omitempty" validate:"max=200"`
	Type     TrackType   `json:"type" validate:"required"`
	Status   TrackStatus `json:"status" validate:"required"`
	AudioURL string      `json:"audioUrl,omitempty" validate:"omitempty,url"`
	Duration float64     `json:"duration,omitempty" validate:"gte=0"`
}

// ProjectResponse is the API view of a project snapshot.
type ProjectResponse struct {
	ProjectID string  `json:"projectId"`
	Tracks    []Track `json:"tracks"`
}

// OperationCheckResponse answers "may this operation run right now".
// Reason is empty when the operation is allowed.
type OperationCheckResponse struct {
	Operation Operation `json:"operation"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
}
