package e2e

import (
	"net/http"
	"testing"
)

func TestGeneration_SubmitAccepted(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/cover",
		`{"trackId":"`+projectID+`","prompt":"lo-fi jazz cover"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusAccepted)

	body := parseJSON(t, resp)
	taskID, _ := body["taskId"].(string)
	if taskID == "" {
		t.Fatal("expected non-empty taskId")
	}
	if body["status"] != "pending" {
		t.Errorf("expected status 'pending', got %v", body["status"])
	}

	// No worker runs in this suite, so the task stays queryable as pending
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/generation/status/"+taskID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	status := parseJSON(t, resp)
	if status["generationMode"] != "cover" {
		t.Errorf("expected generationMode 'cover', got %v", status["generationMode"])
	}
}

func TestGeneration_PendingBlocksSecondSubmission(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/extend",
		`{"trackId":"`+projectID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	// The first submission registered a pending track, so the second must
	// be rejected with a conflict
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/cover",
		`{"trackId":"`+projectID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	body := parseJSON(t, resp)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	if errObj["code"] != "OPERATION_LOCKED" {
		t.Errorf("expected code OPERATION_LOCKED, got %v", errObj["code"])
	}
}

func TestGeneration_SeparationAllowedWhilePending(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/extend",
		`{"trackId":"`+projectID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	// separate_stems is never blocked by in-flight generations
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/separate_stems",
		`{"trackId":"`+projectID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
}

func TestGeneration_StemsBlockReplaceSection(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	addStemTracks(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/replace_section",
		`{"trackId":"`+projectID+`","prompt":"new chorus","sectionStart":30,"sectionEnd":60}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusConflict)
}

func TestGeneration_UnknownOperation(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generation/remix",
		`{"trackId":"`+projectID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestGeneration_StatusNotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/generation/status/no-such-task", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}
