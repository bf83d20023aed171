package e2e

import (
	"net/http"
	"testing"
)

func TestSections_AnalyzeReturnsMockSections(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects/"+projectID+"/sections/analyze", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	sections, ok := body["sections"].([]interface{})
	if !ok || len(sections) == 0 {
		t.Fatalf("expected non-empty sections, got %v", body["sections"])
	}

	first, ok := sections[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected section object, got %v", sections[0])
	}
	if first["label"] == "" {
		t.Error("expected section label")
	}
	if _, ok := first["startTime"]; !ok {
		t.Error("expected startTime field")
	}
}

func TestSections_GetServesCachedAnalysis(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects/"+projectID+"/sections/analyze", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/sections", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["cached"] != true {
		t.Errorf("expected cached result, got %v", body["cached"])
	}
}

func TestSections_ProjectNotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/no-such-project/sections", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}
