package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/model"
)

// ErrProjectNotFound is returned when no snapshot exists for a project
var ErrProjectNotFound = fmt.Errorf("project not found")

// TrackService stores project track snapshots in Redis. A snapshot is the
// read-only input to operation lock evaluation; all generation workflows
// mutate it through this service.
type TrackService struct {
	redis *redis.Client
}

func NewTrackService(redisClient *redis.Client) *TrackService {
	return &TrackService{redis: redisClient}
}

// CreateProject registers a new project with one completed original track.
// The project id doubles as the original track's id so a studio session
// can be opened directly against it.
func (s *TrackService) CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.ProjectResponse, error) {
	now := time.Now()
	trackID := uuid.New().String()

	snapshot := &model.TrackSnapshot{
		ProjectID: trackID,
		Tracks: []model.Track{{
			ID:        trackID,
			ProjectID: trackID,
			Title:     req.Title,
			Type:      model.TrackTypeOriginal,
			Status:    model.TrackStatusCompleted,
			AudioURL:  req.AudioURL,
			Duration:  req.Duration,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}

	if err := s.saveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	return &model.ProjectResponse{ProjectID: snapshot.ProjectID, Tracks: snapshot.Tracks}, nil
}

// GetSnapshot loads the current snapshot for a project
func (s *TrackService) GetSnapshot(ctx context.Context, projectID string) (*model.TrackSnapshot, error) {
	data, err := s.redis.Get(ctx, projectKey(projectID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var snapshot model.TrackSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// AddTrack appends a track to a project and returns it
func (s *TrackService) AddTrack(ctx context.Context, projectID string, req *model.AddTrackRequest) (*model.Track, error) {
	snapshot, err := s.GetSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	track := model.Track{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     req.Title,
		Type:      req.Type,
		Status:    req.Status,
		AudioURL:  req.AudioURL,
		Duration:  req.Duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	snapshot.Tracks = append(snapshot.Tracks, track)

	if err := s.saveSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	return &track, nil
}

// UpdateTrack sets a track's status and, when non-empty, its audio URL
func (s *TrackService) UpdateTrack(ctx context.Context, projectID, trackID string, status model.TrackStatus, audioURL string) error {
	snapshot, err := s.GetSnapshot(ctx, projectID)
	if err != nil {
		return err
	}

	found := false
	for i := range snapshot.Tracks {
		if snapshot.Tracks[i].ID == trackID {
			snapshot.Tracks[i].Status = status
			if audioURL != "" {
				snapshot.Tracks[i].AudioURL = audioURL
			}
			snapshot.Tracks[i].UpdatedAt = time.Now()
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("track not found")
	}

	return s.saveSnapshot(ctx, snapshot)
}

// RemoveTrack drops a track from a project's snapshot
func (s *TrackService) RemoveTrack(ctx context.Context, projectID, trackID string) error {
	snapshot, err := s.GetSnapshot(ctx, projectID)
	if err != nil {
		return err
	}

	kept := snapshot.Tracks[:0]
	for _, track := range snapshot.Tracks {
		if track.ID != trackID {
			kept = append(kept, track)
		}
	}
	snapshot.Tracks = kept

	return s.saveSnapshot(ctx, snapshot)
}

func (s *TrackService) saveSnapshot(ctx context.Context, snapshot *model.TrackSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, projectKey(snapshot.ProjectID), data, 0).Err()
}

func projectKey(projectID string) string {
	return fmt.Sprintf("project:%s", projectID)
}
