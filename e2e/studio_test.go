package e2e

import (
	"net/http"
	"testing"
)

func TestStudio_SessionLifecycle(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	// Fresh session: no modal, editor idle
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/studio/sessions/"+sessionID+"/modal", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	if body["type"] != "none" {
		t.Errorf("expected modal type 'none', got %v", body["type"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/studio/sessions/"+sessionID+"/editor", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	editor := parseJSON(t, resp)
	if editor["editMode"] != "none" {
		t.Errorf("expected editMode 'none', got %v", editor["editMode"])
	}
	if editor["selectedSectionIndex"] != float64(-1) {
		t.Errorf("expected selectedSectionIndex -1, got %v", editor["selectedSectionIndex"])
	}

	// Close and verify it is gone
	resp, err = doAuthRequest(t, ta.app, http.MethodDelete, "/api/studio/sessions/"+sessionID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/studio/sessions/"+sessionID+"/editor", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestStudio_ModalReplacesOpenModal(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/studio/sessions/"+sessionID+"/modal",
		`{"type":"extend","payload":{"source":"toolbar"}}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	// Opening a second modal silently closes the first
	resp, err = doAuthRequest(t, ta.app, http.MethodPut, "/api/studio/sessions/"+sessionID+"/modal",
		`{"type":"cover"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	if body["type"] != "cover" {
		t.Errorf("expected modal type 'cover', got %v", body["type"])
	}

	// Close returns to the none state
	resp, err = doAuthRequest(t, ta.app, http.MethodDelete, "/api/studio/sessions/"+sessionID+"/modal", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/studio/sessions/"+sessionID+"/modal", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body = parseJSON(t, resp)
	if body["type"] != "none" {
		t.Errorf("expected modal type 'none', got %v", body["type"])
	}
}

func TestStudio_ModalUnknownType(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/studio/sessions/"+sessionID+"/modal",
		`{"type":"settings"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestStudio_EditorSelectSection(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/studio/sessions/"+sessionID+"/editor/section",
		`{"section":{"label":"chorus","startTime":30,"endTime":60,"lyrics":"la la la"},"index":2}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	editor := parseJSON(t, resp)
	if editor["editMode"] != "editing" {
		t.Errorf("expected editMode 'editing', got %v", editor["editMode"])
	}
	if editor["selectedSectionIndex"] != float64(2) {
		t.Errorf("expected selectedSectionIndex 2, got %v", editor["selectedSectionIndex"])
	}
	if editor["editedLyrics"] != "la la la" {
		t.Errorf("expected seeded lyrics, got %v", editor["editedLyrics"])
	}

	// Selecting a detected section derives the working range from its bounds
	rng, ok := editor["customRange"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected customRange, got %v", editor["customRange"])
	}
	if rng["start"] != float64(30) || rng["end"] != float64(60) {
		t.Errorf("expected range 30-60, got %v", rng)
	}
}

func TestStudio_EditorCustomRangeAndClear(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/studio/sessions/"+sessionID+"/editor/range",
		`{"start":12.5,"end":40}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	editor := parseJSON(t, resp)
	if editor["editMode"] != "selecting" {
		t.Errorf("expected editMode 'selecting', got %v", editor["editMode"])
	}
	if _, hasSection := editor["selectedSection"]; hasSection {
		t.Errorf("ad-hoc range must clear the selected section, got %v", editor["selectedSection"])
	}

	// Set fields, then clear: tags survive, the rest resets
	resp, err = doAuthRequest(t, ta.app, http.MethodPatch, "/api/studio/sessions/"+sessionID+"/editor/fields",
		`{"lyrics":"new words","prompt":"make it brighter","tags":"pop, upbeat"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = doAuthRequest(t, ta.app, http.MethodDelete, "/api/studio/sessions/"+sessionID+"/editor/selection", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	editor = parseJSON(t, resp)
	if editor["editMode"] != "none" {
		t.Errorf("expected editMode 'none', got %v", editor["editMode"])
	}
	if editor["editedLyrics"] != "" {
		t.Errorf("expected cleared lyrics, got %v", editor["editedLyrics"])
	}
	if editor["prompt"] != "" {
		t.Errorf("expected cleared prompt, got %v", editor["prompt"])
	}
	if editor["tags"] != "pop, upbeat" {
		t.Errorf("expected tags preserved, got %v", editor["tags"])
	}
}

func TestStudio_EditorInvalidRange(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/studio/sessions/"+sessionID+"/editor/range",
		`{"start":40,"end":12}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestStudio_EditorReset(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	sessionID := createSession(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPatch, "/api/studio/sessions/"+sessionID+"/editor/fields",
		`{"tags":"rock"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/studio/sessions/"+sessionID+"/editor/reset", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	editor := parseJSON(t, resp)
	if editor["tags"] != "" {
		t.Errorf("reset must drop tags too, got %v", editor["tags"])
	}
	if editor["editMode"] != "none" {
		t.Errorf("expected editMode 'none', got %v", editor["editMode"])
	}
}
