package e2e

import (
	"net/http"
	"strings"
	"testing"
)

func TestLyricsRewrite_MockFallback(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/lyrics/rewrite",
		`{"lyrics":"city lights are fading\nnothing left to say","instruction":"make it hopeful"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	lyrics, _ := body["lyrics"].(string)
	if lyrics == "" {
		t.Fatal("expected non-empty rewritten lyrics")
	}
	if len(strings.Split(lyrics, "\n")) != 2 {
		t.Errorf("mock rewrite must keep the line count, got %q", lyrics)
	}
}

func TestLyricsRewrite_MissingLyrics(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/lyrics/rewrite",
		`{"instruction":"make it sad"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}
