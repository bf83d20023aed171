package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tracklab/studio-api/internal/client"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/service"
)

// GenerationWorker processes prompt-driven generation tasks: replace
// section, extend, cover, add vocals, add instrumental, replace
// instrumental.
type GenerationWorker struct {
	generationService *service.GenerationService
	trackService      *service.TrackService
	sunoClient        client.MusicGenerator
	storage           client.StorageClient
}

// NewGenerationWorker creates a new generation worker
func NewGenerationWorker(generationService *service.GenerationService, trackService *service.TrackService, sunoClient client.MusicGenerator, storage client.StorageClient) *GenerationWorker {
	return &GenerationWorker{
		generationService: generationService,
		trackService:      trackService,
		sunoClient:        sunoClient,
		storage:           storage,
	}
}

// ProcessTask handles generation task processing
func (w *GenerationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID, err := decodeTaskID(t)
	if err != nil {
		return err
	}

	task, err := w.generationService.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	log.Printf("Starting %s task: %s", task.GenerationMode, taskID)

	if err := w.generationService.MarkProcessing(ctx, taskID); err != nil {
		return err
	}

	if w.sunoClient == nil || !w.sunoClient.IsConfigured() {
		return w.processWithMock(ctx, task)
	}
	return w.processWithProvider(ctx, task)
}

// processWithProvider submits the task to the provider and waits for its
// terminal state
func (w *GenerationWorker) processWithProvider(ctx context.Context, task *model.GenerationTask) error {
	audioURL, err := w.sourceAudioURL(ctx, task)
	if err != nil {
		w.failTask(ctx, task.ID, err.Error())
		return err
	}

	submission, err := w.sunoClient.Generate(ctx, &client.GenerateRequest{
		Mode:         string(task.GenerationMode),
		AudioURL:     audioURL,
		Prompt:       task.Prompt,
		Tags:         task.Tags,
		Lyrics:       task.Lyrics,
		SectionStart: task.SectionStart,
		SectionEnd:   task.SectionEnd,
	})
	if err != nil {
		w.failTask(ctx, task.ID, fmt.Sprintf("Generation submission failed: %v", err))
		return err
	}

	result, err := w.sunoClient.PollTaskStatus(ctx, submission.TaskID, 5*time.Second, 10*time.Minute)
	if err != nil {
		w.failTask(ctx, task.ID, fmt.Sprintf("Generation failed: %v", err))
		return err
	}

	clips := w.mirrorClips(ctx, task, result.Clips)

	if err := w.generationService.CompleteTask(ctx, task.ID, clips); err != nil {
		w.failTask(ctx, task.ID, "Failed to save result")
		return err
	}

	log.Printf("Task %s completed with %d clips", task.ID, len(clips))
	return nil
}

// processWithMock simulates generation for development
func (w *GenerationWorker) processWithMock(ctx context.Context, task *model.GenerationTask) error {
	select {
	case <-ctx.Done():
		log.Printf("Task %s cancelled", task.ID)
		return ctx.Err()
	case <-time.After(2 * time.Second):
	}

	clips := []model.AudioClip{
		{
			ID:       fmt.Sprintf("%s-a", task.ID),
			AudioURL: fmt.Sprintf("https://cdn.tracklab.app/clips/%s/%s-a.mp3", task.TrackID, task.ID),
			Title:    fmt.Sprintf("%s variant A", task.GenerationMode),
		},
		{
			ID:       fmt.Sprintf("%s-b", task.ID),
			AudioURL: fmt.Sprintf("https://cdn.tracklab.app/clips/%s/%s-b.mp3", task.TrackID, task.ID),
			Title:    fmt.Sprintf("%s variant B", task.GenerationMode),
		},
	}

	if err := w.generationService.CompleteTask(ctx, task.ID, clips); err != nil {
		w.failTask(ctx, task.ID, "Failed to save result")
		return err
	}

	log.Printf("Task %s completed (mock)", task.ID)
	return nil
}

// mirrorClips copies provider clips into our own storage so they outlive
// the provider's retention window. On any mirror failure the provider URL
// is kept as-is.
func (w *GenerationWorker) mirrorClips(ctx context.Context, task *model.GenerationTask, providerClips []client.Clip) []model.AudioClip {
	clips := make([]model.AudioClip, 0, len(providerClips))
	for i, clip := range providerClips {
		audioURL := clip.AudioURL
		if w.storage != nil {
			key := fmt.Sprintf("clips/%s/%s-%d.mp3", task.TrackID, task.ID, i)
			mirrored, err := w.storage.MirrorFromURL(ctx, key, clip.AudioURL)
			if err != nil {
				log.Printf("Failed to mirror clip %s: %v", clip.ID, err)
			} else {
				audioURL = mirrored
			}
		}
		clips = append(clips, model.AudioClip{
			ID:       clip.ID,
			AudioURL: audioURL,
			Title:    clip.Title,
			Duration: clip.Duration,
		})
	}
	return clips
}

// sourceAudioURL resolves the audio the operation edits: the original
// track of the project.
func (w *GenerationWorker) sourceAudioURL(ctx context.Context, task *model.GenerationTask) (string, error) {
	snapshot, err := w.trackService.GetSnapshot(ctx, task.TrackID)
	if err != nil {
		return "", fmt.Errorf("failed to load project: %w", err)
	}
	for _, track := range snapshot.Tracks {
		if track.Type == model.TrackTypeOriginal && track.AudioURL != "" {
			return track.AudioURL, nil
		}
	}
	return "", fmt.Errorf("project has no source audio")
}

func (w *GenerationWorker) failTask(ctx context.Context, taskID, errMsg string) {
	if err := w.generationService.FailTask(ctx, taskID, errMsg); err != nil {
		log.Printf("Failed to mark task as failed: %v", err)
	}
}

func decodeTaskID(t *asynq.Task) (string, error) {
	var payload struct {
		TaskID string `json:"taskId"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if payload.TaskID == "" {
		return "", fmt.Errorf("task payload missing taskId")
	}
	return payload.TaskID, nil
}
