package studio

import (
	"github.com/tracklab/studio-api/internal/model"
)

// Human-readable block reasons. The stems reason takes precedence over the
// pending reason when both apply to the same operation.
const (
	ReasonStemsSeparated = "Stems have already been separated; extending or replacing sections would invalidate the split timeline"
	ReasonPendingTracks  = "Please wait for the current generation to finish before starting another operation"
)

// stemLocked are the operations blocked once stems exist.
var stemLocked = map[model.Operation]bool{
	model.OperationExtend:         true,
	model.OperationReplaceSection: true,
}

// pendingLocked are the operations blocked while any track is still
// generating. Stem separation is deliberately never blocked.
var pendingLocked = map[model.Operation]bool{
	model.OperationExtend:              true,
	model.OperationReplaceSection:      true,
	model.OperationAddInstrumental:     true,
	model.OperationAddVocals:           true,
	model.OperationCover:               true,
	model.OperationReplaceInstrumental: true,
}

// LockState is the derived lock state for one project snapshot. It is
// recomputed on every snapshot change and never persisted.
type LockState struct {
	HasStems          bool              `json:"hasStems"`
	HasPendingTracks  bool              `json:"hasPendingTracks"`
	BlockedOperations []model.Operation `json:"blockedOperations"`
}

// Evaluate computes the lock state for a snapshot. It is pure and total:
// a nil snapshot or empty track list yields no locks.
func Evaluate(snapshot *model.TrackSnapshot) LockState {
	state := LockState{BlockedOperations: []model.Operation{}}
	if snapshot == nil {
		return state
	}

	for _, track := range snapshot.Tracks {
		if track.Type.IsStem() {
			state.HasStems = true
		}
		if track.Status.InFlight() {
			state.HasPendingTracks = true
		}
	}

	for _, op := range model.ValidOperations {
		if (state.HasStems && stemLocked[op]) || (state.HasPendingTracks && pendingLocked[op]) {
			state.BlockedOperations = append(state.BlockedOperations, op)
		}
	}

	return state
}

// IsOperationAllowed reports whether op is not currently blocked.
func (s LockState) IsOperationAllowed(op model.Operation) bool {
	for _, blocked := range s.BlockedOperations {
		if blocked == op {
			return false
		}
	}
	return true
}

// BlockReason returns the reason op is blocked, or the empty string when
// it is allowed. The stems reason wins over the pending reason.
func (s LockState) BlockReason(op model.Operation) string {
	if s.HasStems && stemLocked[op] {
		return ReasonStemsSeparated
	}
	if s.HasPendingTracks && pendingLocked[op] {
		return ReasonPendingTracks
	}
	return ""
}
