package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tracklab/studio-api/internal/client"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/service"
)

// SeparationWorker processes stem separation tasks. A completed separation
// replaces the project's single original with four stem tracks, which
// permanently locks the section-editing operations for that project.
type SeparationWorker struct {
	generationService *service.GenerationService
	trackService      *service.TrackService
	sunoClient        client.MusicGenerator
	storage           client.StorageClient
}

// NewSeparationWorker creates a new separation worker
func NewSeparationWorker(generationService *service.GenerationService, trackService *service.TrackService, sunoClient client.MusicGenerator, storage client.StorageClient) *SeparationWorker {
	return &SeparationWorker{
		generationService: generationService,
		trackService:      trackService,
		sunoClient:        sunoClient,
		storage:           storage,
	}
}

// ProcessTask handles separation task processing
func (w *SeparationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID, err := decodeTaskID(t)
	if err != nil {
		return err
	}

	task, err := w.generationService.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	log.Printf("Starting stem separation task: %s", taskID)

	if err := w.generationService.MarkProcessing(ctx, taskID); err != nil {
		return err
	}

	var clips []model.AudioClip
	if w.sunoClient != nil && w.sunoClient.IsConfigured() {
		clips, err = w.separateWithProvider(ctx, task)
	} else {
		clips, err = w.separateWithMock(ctx, task)
	}
	if err != nil {
		w.failTask(ctx, task.ID, err.Error())
		return err
	}

	stems, err := w.addStemTracks(ctx, task, clips)
	if err != nil {
		w.failTask(ctx, task.ID, "Failed to save stem tracks")
		return err
	}

	if err := w.generationService.CompleteTask(ctx, task.ID, clips); err != nil {
		w.failTask(ctx, task.ID, "Failed to save result")
		return err
	}

	// The pending placeholder only existed to hold the operation lock
	// while separation ran. The stems replace it.
	if task.ResultTrackID != "" {
		if err := w.trackService.RemoveTrack(ctx, task.TrackID, task.ResultTrackID); err != nil {
			log.Printf("Failed to remove separation placeholder: %v", err)
		}
	}

	log.Printf("Task %s completed with %d stems", task.ID, len(stems))
	return nil
}

// separateWithProvider submits the separation and waits for its terminal
// state. Each returned clip's title names the stem it contains.
func (w *SeparationWorker) separateWithProvider(ctx context.Context, task *model.GenerationTask) ([]model.AudioClip, error) {
	snapshot, err := w.trackService.GetSnapshot(ctx, task.TrackID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	audioURL := ""
	for _, track := range snapshot.Tracks {
		if track.Type == model.TrackTypeOriginal && track.AudioURL != "" {
			audioURL = track.AudioURL
			break
		}
	}
	if audioURL == "" {
		return nil, fmt.Errorf("project has no source audio")
	}

	submission, err := w.sunoClient.SeparateStems(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("separation submission failed: %w", err)
	}

	result, err := w.sunoClient.PollTaskStatus(ctx, submission.TaskID, 5*time.Second, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("separation failed: %w", err)
	}

	clips := make([]model.AudioClip, 0, len(result.Clips))
	for i, clip := range result.Clips {
		audioURL := clip.AudioURL
		if w.storage != nil {
			key := fmt.Sprintf("stems/%s/%s-%d.mp3", task.TrackID, task.ID, i)
			mirrored, err := w.storage.MirrorFromURL(ctx, key, clip.AudioURL)
			if err != nil {
				log.Printf("Failed to mirror stem %s: %v", clip.ID, err)
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
	return clips, nil
}

// separateWithMock simulates separation for development
func (w *SeparationWorker) separateWithMock(ctx context.Context, task *model.GenerationTask) ([]model.AudioClip, error) {
	select {
	case <-ctx.Done():
		log.Printf("Task %s cancelled", task.ID)
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
	}

	clips := make([]model.AudioClip, 0, len(model.StemTypes))
	for _, stem := range model.StemTypes {
		clips = append(clips, model.AudioClip{
			ID:       fmt.Sprintf("%s-%s", task.ID, stem),
			AudioURL: fmt.Sprintf("https://cdn.tracklab.app/stems/%s/%s-%s.mp3", task.TrackID, task.ID, stem),
			Title:    string(stem),
		})
	}
	return clips, nil
}

// addStemTracks persists one completed track per stem. Clip titles are
// matched against the known stem names; unmatched clips fall back to the
// positional stem order.
func (w *SeparationWorker) addStemTracks(ctx context.Context, task *model.GenerationTask, clips []model.AudioClip) ([]model.Track, error) {
	stems := make([]model.Track, 0, len(clips))
	for i, clip := range clips {
		stemType := stemTypeFor(clip.Title, i)
		track, err := w.trackService.AddTrack(ctx, task.TrackID, &model.AddTrackRequest{
			Title:    string(stemType),
			Type:     stemType,
			Status:   model.TrackStatusCompleted,
			AudioURL: clip.AudioURL,
			Duration: clip.Duration,
		})
		if err != nil {
			return nil, err
		}
		stems = append(stems, *track)
	}
	return stems, nil
}

func stemTypeFor(title string, index int) model.TrackType {
	for _, stem := range model.StemTypes {
		if title == string(stem) {
			return stem
		}
	}
	if index < len(model.StemTypes) {
		return model.StemTypes[index]
	}
	return model.TrackTypeOther
}

func (w *SeparationWorker) failTask(ctx context.Context, taskID, errMsg string) {
	if err := w.generationService.FailTask(ctx, taskID, errMsg); err != nil {
		log.Printf("Failed to mark task as failed: %v", err)
	}
}
