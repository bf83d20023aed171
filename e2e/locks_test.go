package e2e

import (
	"net/http"
	"testing"

	"github.com/tracklab/studio-api/internal/studio"
)

func TestLocks_FreshProjectUnlocked(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/locks", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["hasStems"] != false {
		t.Errorf("expected hasStems false, got %v", body["hasStems"])
	}
	if body["hasPendingTracks"] != false {
		t.Errorf("expected hasPendingTracks false, got %v", body["hasPendingTracks"])
	}
	blocked, ok := body["blockedOperations"].([]interface{})
	if !ok {
		t.Fatalf("expected blockedOperations array, got %v", body["blockedOperations"])
	}
	if len(blocked) != 0 {
		t.Errorf("expected no blocked operations, got %v", blocked)
	}
}

func TestLocks_StemsBlockSectionOperations(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	addStemTracks(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/locks", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["hasStems"] != true {
		t.Errorf("expected hasStems true, got %v", body["hasStems"])
	}

	blocked, _ := body["blockedOperations"].([]interface{})
	found := map[string]bool{}
	for _, op := range blocked {
		found[op.(string)] = true
	}
	if !found["extend"] || !found["replace_section"] {
		t.Errorf("expected extend and replace_section blocked, got %v", blocked)
	}
	if found["cover"] || found["separate_stems"] {
		t.Errorf("stems must not block cover or separate_stems, got %v", blocked)
	}
}

func TestLocks_CheckSingleOperation(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)
	addStemTracks(t, ta, projectID)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/locks/extend", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["allowed"] != false {
		t.Errorf("expected extend not allowed, got %v", body)
	}
	if body["reason"] != studio.ReasonStemsSeparated {
		t.Errorf("expected stems reason, got %v", body["reason"])
	}

	// cover stays allowed on a split project
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/locks/cover", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body = parseJSON(t, resp)
	if body["allowed"] != true {
		t.Errorf("expected cover allowed, got %v", body)
	}
}

func TestLocks_UnknownOperation(t *testing.T) {
	ta := setupApp(t)
	projectID := createProject(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+projectID+"/locks/remix", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestLocks_ProjectNotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/no-such-project/locks", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}
