package model

// WebSocket message types
const (
	WSMessageTypeTaskUpdate = "task_update"
	WSMessageTypeComplete   = "complete"
	WSMessageTypeError      = "error"
	WSMessageTypePing       = "ping"
	WSMessageTypePong       = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSTaskUpdateMessage is pushed on every observed task status change
type WSTaskUpdateMessage struct {
	Type           string     `json:"type"`
	TaskID         string     `json:"taskId"`
	TrackID        string     `json:"trackId"`
	Status         TaskStatus `json:"status"`
	GenerationMode Operation  `json:"generationMode"`
}

// WSCompleteMessage is pushed when a task completes successfully
type WSCompleteMessage struct {
	Type        string      `json:"type"`
	TaskID      string      `json:"taskId"`
	TrackID     string      `json:"trackId"`
	NewAudioURL string      `json:"newAudioUrl,omitempty"`
	Clips       []AudioClip `json:"clips,omitempty"`
}

// WSErrorMessage is pushed when a task fails
type WSErrorMessage struct {
	Type    string  `json:"type"`
	TaskID  string  `json:"taskId"`
	TrackID string  `json:"trackId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
