package studio

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/tracklab/studio-api/internal/model"
)

// EventSource delivers task change notifications for one track. The
// returned stop function releases the underlying channel; the event
// channel is closed after stop returns or when ctx is done.
type EventSource interface {
	Subscribe(ctx context.Context, trackID string) (<-chan model.TaskEvent, func(), error)
}

// Invalidator invalidates cached reads that depend on a track's sections.
type Invalidator interface {
	InvalidateSections(ctx context.Context, trackID string)
}

// Notifier surfaces task outcomes to the user. Implementations may use
// any notification mechanism (WebSocket push, toasts, haptics).
type Notifier interface {
	NotifySuccess(trackID string, event model.TaskEvent, newAudioURL string)
	NotifyFailure(trackID string, event model.TaskEvent, message string)
}

// CompletionBridge observes task change notifications for a single track,
// filtered to the replace-section generation mode, and translates them
// into cache invalidations, user notifications and section editor
// transitions. It owns at most one subscription at a time.
type CompletionBridge struct {
	source   EventSource
	cache    Invalidator
	notifier Notifier
	editor   *SectionEditor

	mu      sync.Mutex
	trackID string
	stop    func()
	done    chan struct{}
}

// NewCompletionBridge creates an unstarted bridge.
func NewCompletionBridge(source EventSource, cache Invalidator, notifier Notifier, editor *SectionEditor) *CompletionBridge {
	return &CompletionBridge{
		source:   source,
		cache:    cache,
		notifier: notifier,
		editor:   editor,
	}
}

// Watch subscribes to task events for trackID and processes them until
// ctx is done or Close is called. Any existing subscription is torn down
// first so the bridge never holds duplicate channels.
func (b *CompletionBridge) Watch(ctx context.Context, trackID string) error {
	b.Close()

	events, stop, err := b.source.Subscribe(ctx, trackID)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	b.mu.Lock()
	b.trackID = trackID
	b.stop = stop
	b.done = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				b.handleEvent(ctx, trackID, event)
			}
		}
	}()

	return nil
}

// TrackID returns the track currently being watched, or "".
func (b *CompletionBridge) TrackID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trackID
}

// Close tears down the current subscription, if any, and waits for the
// event loop to drain.
func (b *CompletionBridge) Close() {
	b.mu.Lock()
	stop := b.stop
	done := b.done
	b.trackID = ""
	b.stop = nil
	b.done = nil
	b.mu.Unlock()

	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
}

func (b *CompletionBridge) handleEvent(ctx context.Context, trackID string, event model.TaskEvent) {
	if event.GenerationMode != model.OperationReplaceSection {
		return
	}

	// Dependent section reads must refetch after every observed update.
	b.cache.InvalidateSections(ctx, trackID)

	switch event.Status {
	case model.TaskStatusCompleted:
		b.handleCompleted(trackID, event)
	case model.TaskStatusFailed:
		message := event.ErrorMessage
		if message == "" {
			message = "Section replacement failed"
		}
		b.notifier.NotifyFailure(trackID, event, message)
	}
}

func (b *CompletionBridge) handleCompleted(trackID string, event model.TaskEvent) {
	clips := ParseAudioClips(event.AudioClips)

	var newAudioURL, newAudioURLB string
	if len(clips) > 0 {
		newAudioURL = clips[0].AudioURL
	}
	if len(clips) > 1 {
		newAudioURLB = clips[1].AudioURL
	}

	b.notifier.NotifySuccess(trackID, event, newAudioURL)

	// Only the completion of the task the editor is waiting on transitions
	// it to comparing. The original audio URL and exact section bounds are
	// filled in by the caller from track state.
	if b.editor != nil && event.TaskID != "" && event.TaskID == b.editor.ActiveTask() {
		b.editor.SetLatestCompletion(&model.SectionCompletion{
			TaskID:       event.TaskID,
			NewAudioURL:  newAudioURL,
			NewAudioURLB: newAudioURLB,
			Status:       model.TaskStatusCompleted,
		})
	}
}

// ParseAudioClips decodes a task's audio_clips payload, which arrives
// either as a JSON array or as a JSON-encoded string of an array. Malformed
// payloads are swallowed: failing to display a result is less harmful than
// crashing the subscription.
func ParseAudioClips(raw json.RawMessage) []model.AudioClip {
	if len(raw) == 0 {
		return nil
	}

	var clips []model.AudioClip
	if err := json.Unmarshal(raw, &clips); err == nil {
		return clips
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		log.Printf("Failed to parse audio clips payload: %v", err)
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &clips); err != nil {
		log.Printf("Failed to parse encoded audio clips payload: %v", err)
		return nil
	}
	return clips
}
