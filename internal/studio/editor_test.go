package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklab/studio-api/internal/model"
)

func TestSectionEditor_InitialState(t *testing.T) {
	e := NewSectionEditor()

	state := e.State()
	assert.Equal(t, model.EditModeNone, state.EditMode)
	assert.Nil(t, state.SelectedSection)
	assert.Equal(t, -1, state.SelectedSectionIndex)
	assert.Nil(t, state.CustomRange)
	assert.Empty(t, state.ActiveTaskID)
	assert.Nil(t, state.LatestCompletion)
}

func TestSectionEditor_SelectSection(t *testing.T) {
	e := NewSectionEditor()

	e.SelectSection(model.Section{Label: "chorus", StartTime: 10, EndTime: 20, Lyrics: "la la"}, 0)

	state := e.State()
	assert.Equal(t, model.EditModeEditing, state.EditMode)
	require.NotNil(t, state.SelectedSection)
	assert.Equal(t, "chorus", state.SelectedSection.Label)
	assert.Equal(t, 0, state.SelectedSectionIndex)
	require.NotNil(t, state.CustomRange)
	assert.Equal(t, model.SectionRange{Start: 10, End: 20}, *state.CustomRange)
	assert.Equal(t, "la la", state.EditedLyrics)
}

func TestSectionEditor_SelectSectionReplacesAdHocRange(t *testing.T) {
	e := NewSectionEditor()
	e.SetCustomRange(3, 7)

	e.SelectSection(model.Section{Label: "verse", StartTime: 30, EndTime: 45}, 2)

	state := e.State()
	assert.Equal(t, model.EditModeEditing, state.EditMode)
	require.NotNil(t, state.CustomRange)
	assert.Equal(t, model.SectionRange{Start: 30, End: 45}, *state.CustomRange)
	assert.Equal(t, 2, state.SelectedSectionIndex)
}

func TestSectionEditor_SetCustomRange(t *testing.T) {
	e := NewSectionEditor()

	e.SetCustomRange(5, 12)

	state := e.State()
	assert.Equal(t, model.EditModeSelecting, state.EditMode)
	assert.Nil(t, state.SelectedSection)
	assert.Equal(t, -1, state.SelectedSectionIndex)
	require.NotNil(t, state.CustomRange)
	assert.Equal(t, model.SectionRange{Start: 5, End: 12}, *state.CustomRange)
}

func TestSectionEditor_SetCustomRangeKeepsEditingMode(t *testing.T) {
	e := NewSectionEditor()
	e.SelectSection(model.Section{StartTime: 10, EndTime: 20}, 0)

	e.SetCustomRange(11, 19)

	state := e.State()
	assert.Equal(t, model.EditModeEditing, state.EditMode)
	assert.Nil(t, state.SelectedSection, "ad-hoc range clears the detected section")
}

func TestSectionEditor_FieldSettersLeaveModeUnchanged(t *testing.T) {
	e := NewSectionEditor()

	e.SetEditedLyrics("new words")
	e.SetPrompt("more energy")
	e.SetTags("rock, female vocals")

	state := e.State()
	assert.Equal(t, model.EditModeNone, state.EditMode)
	assert.Equal(t, "new words", state.EditedLyrics)
	assert.Equal(t, "more energy", state.Prompt)
	assert.Equal(t, "rock, female vocals", state.Tags)
}

func TestSectionEditor_CompletionForcesComparing(t *testing.T) {
	e := NewSectionEditor()
	e.SetActiveTask("task-9")

	e.SetLatestCompletion(&model.SectionCompletion{
		TaskID:      "task-9",
		NewAudioURL: "https://cdn.example.com/new.mp3",
		Status:      model.TaskStatusCompleted,
	})

	state := e.State()
	assert.Equal(t, model.EditModeComparing, state.EditMode)
	assert.Empty(t, state.ActiveTaskID)
	require.NotNil(t, state.LatestCompletion)
	assert.Equal(t, "https://cdn.example.com/new.mp3", state.LatestCompletion.NewAudioURL)
}

func TestSectionEditor_NilCompletionForcesNone(t *testing.T) {
	e := NewSectionEditor()
	e.SetLatestCompletion(&model.SectionCompletion{TaskID: "task-1", Status: model.TaskStatusCompleted})

	e.SetLatestCompletion(nil)

	state := e.State()
	assert.Equal(t, model.EditModeNone, state.EditMode)
	assert.Nil(t, state.LatestCompletion)
}

func TestSectionEditor_ClearSelectionLeavesTags(t *testing.T) {
	e := NewSectionEditor()
	e.SelectSection(model.Section{StartTime: 1, EndTime: 2, Lyrics: "words"}, 0)
	e.SetPrompt("dreamy")
	e.SetTags("ambient")

	e.ClearSelection()

	state := e.State()
	assert.Equal(t, model.EditModeNone, state.EditMode)
	assert.Nil(t, state.SelectedSection)
	assert.Nil(t, state.CustomRange)
	assert.Empty(t, state.EditedLyrics)
	assert.Empty(t, state.Prompt)
	assert.Equal(t, "ambient", state.Tags)
}

func TestSectionEditor_ResetIdempotent(t *testing.T) {
	e := NewSectionEditor()
	e.SelectSection(model.Section{StartTime: 1, EndTime: 2}, 0)
	e.SetActiveTask("task-1")
	e.SetTags("pop")

	e.Reset()
	once := e.State()
	e.Reset()
	twice := e.State()

	assert.Equal(t, once, twice)
	assert.Equal(t, emptyEditorState(), once)
}

func TestSectionEditor_ReplaceLifecycle(t *testing.T) {
	e := NewSectionEditor()

	e.SelectSection(model.Section{StartTime: 10, EndTime: 20, Lyrics: "la la"}, 0)
	state := e.State()
	assert.Equal(t, model.EditModeEditing, state.EditMode)
	require.NotNil(t, state.CustomRange)
	assert.Equal(t, model.SectionRange{Start: 10, End: 20}, *state.CustomRange)
	assert.Equal(t, "la la", state.EditedLyrics)

	e.SetActiveTask("task-123")
	state = e.State()
	assert.Equal(t, "task-123", state.ActiveTaskID)
	assert.Equal(t, model.EditModeEditing, state.EditMode)

	e.SetLatestCompletion(&model.SectionCompletion{
		TaskID:           "task-123",
		OriginalAudioURL: "a",
		NewAudioURL:      "b",
		Section:          &model.SectionRange{Start: 10, End: 20},
		Status:           model.TaskStatusCompleted,
	})
	state = e.State()
	assert.Equal(t, model.EditModeComparing, state.EditMode)
	assert.Empty(t, state.ActiveTaskID)
	require.NotNil(t, state.LatestCompletion)
	assert.Equal(t, "b", state.LatestCompletion.NewAudioURL)
}
