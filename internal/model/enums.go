package model

// Track types. The first four stem types are produced by source separation;
// a project that contains any of them is considered "split".
type TrackType string

const (
	TrackTypeOriginal     TrackType = "original"
	TrackTypeVocal        TrackType = "vocal"
	TrackTypeInstrumental TrackType = "instrumental"
	TrackTypeDrums        TrackType = "drums"
	TrackTypeBass         TrackType = "bass"
	TrackTypeOther        TrackType = "other"
)

// StemTypes are the track types produced by stem separation
var StemTypes = []TrackType{
	TrackTypeVocal, TrackTypeInstrumental, TrackTypeDrums,
	TrackTypeBass, TrackTypeOther,
}

// IsStem reports whether the track type is a separated stem
func (t TrackType) IsStem() bool {
	for _, s := range StemTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Track status
type TrackStatus string

const (
	TrackStatusPending    TrackStatus = "pending"
	TrackStatusProcessing TrackStatus = "processing"
	TrackStatusCompleted  TrackStatus = "completed"
	TrackStatusFailed     TrackStatus = "failed"
)

// InFlight reports whether the track is still being generated
func (s TrackStatus) InFlight() bool {
	return s == TrackStatusPending || s == TrackStatusProcessing
}

// Studio operations that can be locked
type Operation string

const (
	OperationExtend              Operation = "extend"
	OperationReplaceSection      Operation = "replace_section"
	OperationAddInstrumental     Operation = "add_instrumental"
	OperationAddVocals           Operation = "add_vocals"
	OperationSeparateStems       Operation = "separate_stems"
	OperationCover               Operation = "cover"
	OperationReplaceInstrumental Operation = "replace_instrumental"
)

var ValidOperations = []Operation{
	OperationExtend, OperationReplaceSection, OperationAddInstrumental,
	OperationAddVocals, OperationSeparateStems, OperationCover,
	OperationReplaceInstrumental,
}

// IsValid reports whether op is one of the seven studio operations
func (op Operation) IsValid() bool {
	for _, o := range ValidOperations {
		if op == o {
			return true
		}
	}
	return false
}

// Generation task status
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is final
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Modal types shown in the studio. ModalNone is the closed sentinel.
type ModalType string

const (
	ModalNone            ModalType = "none"
	ModalExtend          ModalType = "extend"
	ModalCover           ModalType = "cover"
	ModalAddVocals       ModalType = "add_vocals"
	ModalAddInstrumental ModalType = "add_instrumental"
	ModalSeparateStems   ModalType = "separate_stems"
	ModalSectionEditor   ModalType = "section_editor"
	ModalTrackDetails    ModalType = "track_details"
	ModalShare           ModalType = "share"
)

// IsValid reports whether t is a modal that can be opened. ModalNone is
// not openable: it is the closed state.
func (t ModalType) IsValid() bool {
	switch t {
	case ModalExtend, ModalCover, ModalAddVocals, ModalAddInstrumental,
		ModalSeparateStems, ModalSectionEditor, ModalTrackDetails, ModalShare:
		return true
	}
	return false
}

// Section editor modes
type EditMode string

const (
	EditModeNone      EditMode = "none"
	EditModeSelecting EditMode = "selecting"
	EditModeEditing   EditMode = "editing"
	EditModeComparing EditMode = "comparing"
)
