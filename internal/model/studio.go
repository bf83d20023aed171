package model

// CreateSessionRequest opens a studio session bound to one track.
type CreateSessionRequest struct {
	TrackID string `json:"trackId" validate:"required"`
}

// SessionResponse describes a studio session.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	TrackID   string `json:"trackId"`
}

// OpenModalRequest opens a modal within a session. Payload is free-form
// context carried alongside the modal (e.g. a selected track reference).
type OpenModalRequest struct {
	Type    ModalType              `json:"type" validate:"required"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ModalStateResponse is the API view of a session's modal state.
type ModalStateResponse struct {
	Type    ModalType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// LyricsRewriteRequest asks the lyrics assistant to rewrite section lyrics.
type LyricsRewriteRequest struct {
	Lyrics      string `json:"lyrics" validate:"required,max=5000"`
	Instruction string `json:"instruction,omitempty" validate:"max=500"`
	Style       string `json:"style,omitempty" validate:"max=200"`
}

// LyricsRewriteResponse carries the rewritten lyrics.
type LyricsRewriteResponse struct {
	Lyrics string `json:"lyrics"`
}
