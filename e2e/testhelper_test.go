package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/auth"
	"github.com/tracklab/studio-api/internal/cache"
	"github.com/tracklab/studio-api/internal/client"
	"github.com/tracklab/studio-api/internal/config"
	"github.com/tracklab/studio-api/internal/handler"
	"github.com/tracklab/studio-api/internal/middleware"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/realtime"
	"github.com/tracklab/studio-api/internal/service"
	ws "github.com/tracklab/studio-api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app    *fiber.App
	tracks *service.TrackService
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients. This triggers mock/fallback responses in all services.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	// Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	// External clients — all unconfigured so services use mock fallbacks
	groqClient := client.NewGroqClient(&config.GroqConfig{}) // no API key → mock
	audioClient := client.NewAudioClient(&config.AudioConfig{})

	pubsub := realtime.NewPubSub(redisClient)
	sectionCache := cache.NewSectionCache(redisClient)

	// Services
	trackService := service.NewTrackService(redisClient)
	sectionService := service.NewSectionService(trackService, audioClient, sectionCache)
	generationService := service.NewGenerationService(redisClient, asynqClient, trackService, pubsub, hub)
	studioService := service.NewStudioService(pubsub, sectionCache, hub)
	lyricsService := service.NewLyricsService(groqClient)

	// Handlers
	trackHandler := handler.NewTrackHandler(trackService, sectionService, validate)
	generationHandler := handler.NewGenerationHandler(generationService, studioService, validate)
	studioHandler := handler.NewStudioHandler(studioService, trackService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)

	// Auth handler (for /auth/verify)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":  false,
				"suno":  false,
				"r2":    false,
				"audio": false,
				"auth":  true,
			},
			"sessions": studioService.SessionCount(),
		})
	})
	app.Get("/auth/verify", authHandler.Verify)

	// API routes (authenticated)
	api := app.Group("/api", authMiddleware.Authenticate())

	projects := api.Group("/projects")
	projects.Post("/", trackHandler.CreateProject)
	projects.Get("/:projectId", trackHandler.GetProject)
	projects.Post("/:projectId/tracks", trackHandler.AddTrack)
	projects.Get("/:projectId/locks", trackHandler.GetLocks)
	projects.Get("/:projectId/locks/:operation", trackHandler.CheckOperation)
	projects.Get("/:projectId/sections", trackHandler.GetSections)
	projects.Post("/:projectId/sections/analyze", trackHandler.AnalyzeSections)

	// Use very high rate limits so tests don't get blocked
	generation := api.Group("/generation")
	generation.Get("/status/:taskId", generationHandler.Status)
	generation.Post("/:operation", rateLimiter.GenerationLimit(10000), generationHandler.Submit)

	sessions := api.Group("/studio/sessions")
	sessions.Post("/", rateLimiter.SessionLimit(10000), studioHandler.CreateSession)
	sessions.Delete("/:sessionId", studioHandler.CloseSession)
	sessions.Get("/:sessionId/modal", studioHandler.GetModal)
	sessions.Put("/:sessionId/modal", studioHandler.OpenModal)
	sessions.Delete("/:sessionId/modal", studioHandler.CloseModal)
	sessions.Get("/:sessionId/editor", studioHandler.GetEditor)
	sessions.Post("/:sessionId/editor/section", studioHandler.SelectSection)
	sessions.Post("/:sessionId/editor/range", studioHandler.SetCustomRange)
	sessions.Patch("/:sessionId/editor/fields", studioHandler.UpdateFields)
	sessions.Delete("/:sessionId/editor/selection", studioHandler.ClearSelection)
	sessions.Post("/:sessionId/editor/reset", studioHandler.ResetEditor)

	lyrics := api.Group("/lyrics", rateLimiter.LyricsLimit(10000))
	lyrics.Post("/rewrite", lyricsHandler.Rewrite)

	return &testApp{app: app, tracks: trackService}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "studio-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// createProject creates a project with one completed original track and
// returns its id.
func createProject(t *testing.T, ta *testApp) string {
	t.Helper()
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects/",
		`{"title":"Test Song","audioUrl":"https://example.com/song.mp3","duration":180}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	body := parseJSON(t, resp)
	projectID, _ := body["projectId"].(string)
	if projectID == "" {
		t.Fatal("expected non-empty projectId")
	}
	return projectID
}

// createSession opens a studio session for a track and returns the session id.
func createSession(t *testing.T, ta *testApp, trackID string) string {
	t.Helper()
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/studio/sessions/",
		`{"trackId":"`+trackID+`"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	body := parseJSON(t, resp)
	sessionID, _ := body["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("expected non-empty sessionId")
	}
	return sessionID
}

// addStemTracks marks the project as split by adding completed stem tracks.
func addStemTracks(t *testing.T, ta *testApp, projectID string) {
	t.Helper()
	for _, stem := range []model.TrackType{model.TrackTypeVocal, model.TrackTypeInstrumental} {
		resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects/"+projectID+"/tracks",
			`{"type":"`+string(stem)+`","status":"completed","audioUrl":"https://example.com/`+string(stem)+`.mp3"}`)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusCreated)
	}
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
