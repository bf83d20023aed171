package studio

import (
	"sync"

	"github.com/tracklab/studio-api/internal/model"
)

// ModalState describes which modal is open and its associated payload.
type ModalState struct {
	Type    model.ModalType        `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// ModalCoordinator is the single authority for which modal is open within
// a studio session. At most one modal is active at a time; opening any
// modal replaces whatever was open before. Safe for concurrent use.
type ModalCoordinator struct {
	mu    sync.Mutex
	state ModalState
}

// NewModalCoordinator creates a coordinator in the closed state.
func NewModalCoordinator() *ModalCoordinator {
	return &ModalCoordinator{
		state: ModalState{Type: model.ModalNone, Payload: map[string]interface{}{}},
	}
}

// Open sets the active modal unconditionally, silently closing whatever
// was open before. A nil payload is stored as an empty map.
func (m *ModalCoordinator) Open(t model.ModalType, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	m.mu.Lock()
	m.state = ModalState{Type: t, Payload: payload}
	m.mu.Unlock()
}

// Close resets the coordinator to the closed state with an empty payload.
func (m *ModalCoordinator) Close() {
	m.mu.Lock()
	m.state = ModalState{Type: model.ModalNone, Payload: map[string]interface{}{}}
	m.mu.Unlock()
}

// IsOpen reports whether t is the currently open modal.
func (m *ModalCoordinator) IsOpen(t model.ModalType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Type == t
}

// State returns a copy of the current modal state.
func (m *ModalCoordinator) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload := make(map[string]interface{}, len(m.state.Payload))
	for k, v := range m.state.Payload {
		payload[k] = v
	}
	return ModalState{Type: m.state.Type, Payload: payload}
}

// OpenChangeHandler returns a callback suitable for binding to a dialog's
// own open/close toggle. Invoked with true it opens t while preserving the
// existing payload; invoked with false it closes unconditionally.
func (m *ModalCoordinator) OpenChangeHandler(t model.ModalType) func(isOpen bool) {
	return func(isOpen bool) {
		if !isOpen {
			m.Close()
			return
		}
		m.mu.Lock()
		m.state.Type = t
		m.mu.Unlock()
	}
}
