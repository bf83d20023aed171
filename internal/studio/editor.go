package studio

import (
	"sync"

	"github.com/tracklab/studio-api/internal/model"
)

// EditorState is the full state of the section editor. Exactly one of
// SelectedSection/CustomRange is meaningful at a time; SelectedSectionIndex
// is -1 while no detected section is selected.
type EditorState struct {
	EditMode             model.EditMode           `json:"editMode"`
	SelectedSection      *model.Section           `json:"selectedSection,omitempty"`
	SelectedSectionIndex int                      `json:"selectedSectionIndex"`
	CustomRange          *model.SectionRange      `json:"customRange,omitempty"`
	EditedLyrics         string                   `json:"editedLyrics"`
	Prompt               string                   `json:"prompt"`
	Tags                 string                   `json:"tags"`
	ActiveTaskID         string                   `json:"activeTaskId,omitempty"`
	LatestCompletion     *model.SectionCompletion `json:"latestCompletion,omitempty"`
}

func emptyEditorState() EditorState {
	return EditorState{
		EditMode:             model.EditModeNone,
		SelectedSectionIndex: -1,
	}
}

// SectionEditor manages the lifecycle of replacing a time-bounded section
// of a track: selection -> editing -> submission -> comparing results.
// Safe for concurrent use; each studio session owns exactly one instance.
type SectionEditor struct {
	mu    sync.Mutex
	state EditorState
}

// NewSectionEditor creates an editor in the initial empty state.
func NewSectionEditor() *SectionEditor {
	return &SectionEditor{state: emptyEditorState()}
}

// SelectSection selects a detected section for editing. It transitions to
// editing from any state, derives the replacement range from the section's
// time bounds (replacing any ad-hoc range) and seeds the edited lyrics
// from the section's original lyrics.
func (e *SectionEditor) SelectSection(section model.Section, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := section
	e.state.SelectedSection = &s
	e.state.SelectedSectionIndex = index
	e.state.CustomRange = &model.SectionRange{Start: section.StartTime, End: section.EndTime}
	e.state.EditedLyrics = section.Lyrics
	e.state.EditMode = model.EditModeEditing
}

// SetCustomRange sets an ad-hoc replacement range, clearing any selected
// detected section. From the none state it transitions to selecting;
// otherwise the mode is left unchanged so a range can be adjusted while
// already editing.
func (e *SectionEditor) SetCustomRange(start, end float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.CustomRange = &model.SectionRange{Start: start, End: end}
	e.state.SelectedSection = nil
	e.state.SelectedSectionIndex = -1
	if e.state.EditMode == model.EditModeNone {
		e.state.EditMode = model.EditModeSelecting
	}
}

// SetEditedLyrics updates the lyrics field without changing the edit mode.
func (e *SectionEditor) SetEditedLyrics(lyrics string) {
	e.mu.Lock()
	e.state.EditedLyrics = lyrics
	e.mu.Unlock()
}

// SetPrompt updates the prompt field without changing the edit mode.
func (e *SectionEditor) SetPrompt(prompt string) {
	e.mu.Lock()
	e.state.Prompt = prompt
	e.mu.Unlock()
}

// SetTags updates the tags field without changing the edit mode.
func (e *SectionEditor) SetTags(tags string) {
	e.mu.Lock()
	e.state.Tags = tags
	e.mu.Unlock()
}

// SetActiveTask records the in-flight task id, or clears it when given
// the empty string. The edit mode is not changed: submission keeps the
// editor at editing while a task is outstanding. Clearing the id only
// stops completion correlation, it does not cancel the remote task.
func (e *SectionEditor) SetActiveTask(taskID string) {
	e.mu.Lock()
	e.state.ActiveTaskID = taskID
	e.mu.Unlock()
}

// ActiveTask returns the currently tracked task id, or "".
func (e *SectionEditor) ActiveTask() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ActiveTaskID
}

// SetLatestCompletion stores a completion result. A non-nil result forces
// the comparing mode and clears the active task id, irrespective of prior
// state. A nil result clears the completion and forces the none mode.
func (e *SectionEditor) SetLatestCompletion(result *model.SectionCompletion) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if result == nil {
		e.state.LatestCompletion = nil
		e.state.EditMode = model.EditModeNone
		return
	}
	r := *result
	e.state.LatestCompletion = &r
	e.state.ActiveTaskID = ""
	e.state.EditMode = model.EditModeComparing
}

// ClearSelection clears the section, range, lyrics and prompt and forces
// the none mode. The tags field is intentionally left untouched.
func (e *SectionEditor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SelectedSection = nil
	e.state.SelectedSectionIndex = -1
	e.state.CustomRange = nil
	e.state.EditedLyrics = ""
	e.state.Prompt = ""
	e.state.EditMode = model.EditModeNone
}

// Reset restores the entire state to its initial empty shape.
func (e *SectionEditor) Reset() {
	e.mu.Lock()
	e.state = emptyEditorState()
	e.mu.Unlock()
}

// State returns a copy of the current editor state.
func (e *SectionEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.state
	if e.state.SelectedSection != nil {
		s := *e.state.SelectedSection
		state.SelectedSection = &s
	}
	if e.state.CustomRange != nil {
		r := *e.state.CustomRange
		state.CustomRange = &r
	}
	if e.state.LatestCompletion != nil {
		c := *e.state.LatestCompletion
		state.LatestCompletion = &c
	}
	return state
}
