package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/realtime"
	"github.com/tracklab/studio-api/internal/studio"
)

const (
	TaskTypeGeneration = "generation:process"
	TaskTypeSeparation = "separation:process"
)

// ErrTaskNotFound is returned when no task record exists for an id
var ErrTaskNotFound = fmt.Errorf("task not found")

// OperationLockedError reports a submission denied by the lock evaluator
type OperationLockedError struct {
	Operation model.Operation
	Reason    string
}

func (e *OperationLockedError) Error() string {
	return fmt.Sprintf("operation %s is locked: %s", e.Operation, e.Reason)
}

// TaskBroadcaster pushes task status changes to connected watchers.
type TaskBroadcaster interface {
	BroadcastTaskUpdate(trackID string, event model.TaskEvent)
}

// GenerationService manages generation task records and their lifecycle.
// Every submission is checked against the operation lock evaluator before
// it is accepted; every status transition is published to the track's
// realtime channel.
type GenerationService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
	tracks      *TrackService
	publisher   realtime.TaskEventPublisher
	broadcaster TaskBroadcaster
}

func NewGenerationService(redisClient *redis.Client, asynqClient *asynq.Client, tracks *TrackService, publisher realtime.TaskEventPublisher, broadcaster TaskBroadcaster) *GenerationService {
	return &GenerationService{
		redis:       redisClient,
		asynqClient: asynqClient,
		tracks:      tracks,
		publisher:   publisher,
		broadcaster: broadcaster,
	}
}

// Submit accepts a studio operation against a track, enqueues the work
// and returns the new task. The current snapshot decides whether the
// operation is allowed at all: denial is returned as *OperationLockedError,
// never as an HTTP concern of this layer.
func (s *GenerationService) Submit(ctx context.Context, userID string, op model.Operation, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}

	snapshot, err := s.tracks.GetSnapshot(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}

	lock := studio.Evaluate(snapshot)
	if !lock.IsOperationAllowed(op) {
		return nil, &OperationLockedError{Operation: op, Reason: lock.BlockReason(op)}
	}

	now := time.Now()
	task := &model.GenerationTask{
		ID:             uuid.New().String(),
		UserID:         userID,
		TrackID:        req.TrackID,
		GenerationMode: op,
		Status:         model.TaskStatusPending,
		Prompt:         req.Prompt,
		Tags:           req.Tags,
		Lyrics:         req.Lyrics,
		SectionStart:   req.SectionStart,
		SectionEnd:     req.SectionEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The incoming result is represented as a pending track so the lock
	// evaluator blocks further submissions until it resolves.
	pending, err := s.tracks.AddTrack(ctx, req.TrackID, &model.AddTrackRequest{
		Title:  fmt.Sprintf("%s result", op),
		Type:   model.TrackTypeOriginal,
		Status: model.TrackStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register pending track: %w", err)
	}
	task.ResultTrackID = pending.ID

	if err := s.saveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	if err := s.enqueue(task); err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.publish(ctx, task)

	return &model.GenerationResponse{
		TaskID:    task.ID,
		TrackID:   task.TrackID,
		Operation: op,
		Status:    task.Status,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current state of a task
func (s *GenerationService) GetStatus(ctx context.Context, taskID string) (*model.TaskStatusResponse, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	resp := &model.TaskStatusResponse{
		TaskID:         task.ID,
		TrackID:        task.TrackID,
		GenerationMode: task.GenerationMode,
		Status:         task.Status,
		Error:          task.ErrorMessage,
		CreatedAt:      task.CreatedAt,
		CompletedAt:    task.CompletedAt,
	}
	if len(task.AudioClips) > 0 {
		var clips []model.AudioClip
		if err := json.Unmarshal(task.AudioClips, &clips); err == nil {
			resp.AudioClips = clips
		}
	}
	return resp, nil
}

// MarkProcessing transitions a task to processing (called by workers)
func (s *GenerationService) MarkProcessing(ctx context.Context, taskID string) error {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	task.Status = model.TaskStatusProcessing
	task.UpdatedAt = time.Now()
	if err := s.saveTask(ctx, task); err != nil {
		return err
	}

	if task.ResultTrackID != "" {
		if err := s.tracks.UpdateTrack(ctx, task.TrackID, task.ResultTrackID, model.TrackStatusProcessing, ""); err != nil {
			log.Printf("Failed to mark result track processing: %v", err)
		}
	}

	s.publish(ctx, task)
	return nil
}

// CompleteTask stores the generated clips and transitions the task to
// completed (called by workers)
func (s *GenerationService) CompleteTask(ctx context.Context, taskID string, clips []model.AudioClip) error {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	clipsJSON, err := json.Marshal(clips)
	if err != nil {
		return fmt.Errorf("failed to marshal clips: %w", err)
	}

	now := time.Now()
	task.Status = model.TaskStatusCompleted
	task.AudioClips = clipsJSON
	task.UpdatedAt = now
	task.CompletedAt = &now
	if err := s.saveTask(ctx, task); err != nil {
		return err
	}

	if task.ResultTrackID != "" {
		audioURL := ""
		if len(clips) > 0 {
			audioURL = clips[0].AudioURL
		}
		if err := s.tracks.UpdateTrack(ctx, task.TrackID, task.ResultTrackID, model.TrackStatusCompleted, audioURL); err != nil {
			log.Printf("Failed to complete result track: %v", err)
		}
	}

	s.publish(ctx, task)
	return nil
}

// FailTask records a terminal failure (called by workers)
func (s *GenerationService) FailTask(ctx context.Context, taskID, errMsg string) error {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	task.Status = model.TaskStatusFailed
	task.ErrorMessage = &errMsg
	task.UpdatedAt = now
	task.CompletedAt = &now
	if err := s.saveTask(ctx, task); err != nil {
		return err
	}

	if task.ResultTrackID != "" {
		if err := s.tracks.UpdateTrack(ctx, task.TrackID, task.ResultTrackID, model.TrackStatusFailed, ""); err != nil {
			log.Printf("Failed to mark result track failed: %v", err)
		}
	}

	s.publish(ctx, task)
	return nil
}

// GetTask loads a raw task record
func (s *GenerationService) GetTask(ctx context.Context, taskID string) (*model.GenerationTask, error) {
	data, err := s.redis.Get(ctx, taskKey(taskID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	var task model.GenerationTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *GenerationService) saveTask(ctx context.Context, task *model.GenerationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, taskKey(task.ID), data, 24*time.Hour).Err()
}

func (s *GenerationService) enqueue(task *model.GenerationTask) error {
	payload, err := json.Marshal(map[string]string{"taskId": task.ID})
	if err != nil {
		return err
	}

	taskType := TaskTypeGeneration
	queue := "generation"
	if task.GenerationMode == model.OperationSeparateStems {
		taskType = TaskTypeSeparation
		queue = "separation"
	}

	_, err = s.asynqClient.Enqueue(asynq.NewTask(taskType, payload),
		asynq.Queue(queue),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	return err
}

// publish pushes the task's current state to the realtime channel and to
// connected WebSocket watchers. Publish failures are logged, not returned:
// the task record remains the source of truth.
func (s *GenerationService) publish(ctx context.Context, task *model.GenerationTask) {
	event := model.TaskEvent{
		TaskID:         task.ID,
		TrackID:        task.TrackID,
		Status:         task.Status,
		GenerationMode: task.GenerationMode,
		AudioClips:     task.AudioClips,
	}
	if task.ErrorMessage != nil {
		event.ErrorMessage = *task.ErrorMessage
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTaskEvent(ctx, event); err != nil {
			log.Printf("Failed to publish task event: %v", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTaskUpdate(task.TrackID, event)
	}
}

func taskKey(taskID string) string {
	return fmt.Sprintf("task:%s", taskID)
}
