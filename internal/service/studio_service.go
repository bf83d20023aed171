package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/studio"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = fmt.Errorf("session not found")

// Session is one user's studio view of a track: its modal coordinator,
// section editor and completion bridge. Sessions live in memory only and
// are torn down on close, matching the lifetime of the owning UI scope.
type Session struct {
	ID      string
	TrackID string
	UserID  string
	Modal   *studio.ModalCoordinator
	Editor  *studio.SectionEditor

	bridge *studio.CompletionBridge
	cancel context.CancelFunc
}

// StudioService owns all live studio sessions.
type StudioService struct {
	source   studio.EventSource
	cache    studio.Invalidator
	notifier studio.Notifier

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStudioService(source studio.EventSource, cache studio.Invalidator, notifier studio.Notifier) *StudioService {
	return &StudioService{
		source:   source,
		cache:    cache,
		notifier: notifier,
		sessions: make(map[string]*Session),
	}
}

// CreateSession opens a session for a track and starts its completion
// bridge watching the track's realtime channel.
func (s *StudioService) CreateSession(userID, trackID string) (*Session, error) {
	editor := studio.NewSectionEditor()
	bridge := studio.NewCompletionBridge(s.source, s.cache, s.notifier, editor)

	ctx, cancel := context.WithCancel(context.Background())
	if err := bridge.Watch(ctx, trackID); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch track events: %w", err)
	}

	session := &Session{
		ID:      uuid.New().String(),
		TrackID: trackID,
		UserID:  userID,
		Modal:   studio.NewModalCoordinator(),
		Editor:  editor,
		bridge:  bridge,
		cancel:  cancel,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// GetSession looks up a live session
func (s *StudioService) GetSession(sessionID string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession tears down a session's subscription and removes it. The
// modal state resets with the session; any in-flight task keeps running
// remotely and its record stays queryable.
func (s *StudioService) CloseSession(sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.bridge.Close()
	session.cancel()
	session.Modal.Close()
	return nil
}

// AttachTask records a submitted task id on the session's editor so the
// bridge can correlate its completion.
func (s *StudioService) AttachTask(sessionID, taskID string) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	session.Editor.SetActiveTask(taskID)
	return nil
}

// SessionCount reports the number of live sessions
func (s *StudioService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CompleteFromTrack fills in the fields of the session's latest completion
// that the bridge leaves as placeholders: the pre-edit audio URL and the
// replaced section bounds.
func (s *StudioService) CompleteFromTrack(sessionID, originalAudioURL string, section *model.SectionRange) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}

	state := session.Editor.State()
	if state.LatestCompletion == nil {
		return fmt.Errorf("no completion to enrich")
	}

	completion := *state.LatestCompletion
	completion.OriginalAudioURL = originalAudioURL
	completion.Section = section
	session.Editor.SetLatestCompletion(&completion)
	return nil
}
