package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tracklab/studio-api/internal/client"
	"github.com/tracklab/studio-api/internal/model"
)

// LyricsService rewrites section lyrics with the Groq assistant. The
// rewritten text seeds the section editor's lyrics field before a
// replace-section submission.
type LyricsService struct {
	groqClient *client.GroqClient
}

func NewLyricsService(groqClient *client.GroqClient) *LyricsService {
	return &LyricsService{groqClient: groqClient}
}

// Rewrite rewrites the given lyrics following the user's instruction
func (s *LyricsService) Rewrite(ctx context.Context, req *model.LyricsRewriteRequest) (*model.LyricsRewriteResponse, error) {
	// Use mock response if client is not configured
	if s.groqClient == nil || !s.groqClient.IsConfigured() {
		return s.rewriteMock(req), nil
	}

	response, err := s.groqClient.ChatCompletion(ctx, rewriteSystemPrompt, s.buildRewritePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("AI rewrite failed: %w", err)
	}

	lyrics := strings.TrimSpace(response)
	if lyrics == "" {
		return nil, fmt.Errorf("assistant returned empty lyrics")
	}

	return &model.LyricsRewriteResponse{Lyrics: lyrics}, nil
}

const rewriteSystemPrompt = `You are a lyricist rewriting one section of an existing song. ` +
	`Keep the section's length, rhythm and syllable count so it still fits the melody. ` +
	`Return only the rewritten lyrics with no commentary.`

func (s *LyricsService) buildRewritePrompt(req *model.LyricsRewriteRequest) string {
	var b strings.Builder
	b.WriteString("Original section lyrics:\n")
	b.WriteString(req.Lyrics)
	if req.Instruction != "" {
		b.WriteString("\n\nInstruction: ")
		b.WriteString(req.Instruction)
	}
	if req.Style != "" {
		b.WriteString("\nStyle: ")
		b.WriteString(req.Style)
	}
	return b.String()
}

// rewriteMock produces a deterministic stand-in for development
func (s *LyricsService) rewriteMock(req *model.LyricsRewriteRequest) *model.LyricsRewriteResponse {
	lines := strings.Split(req.Lyrics, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = line + " (rewritten)"
		}
	}
	return &model.LyricsRewriteResponse{Lyrics: strings.Join(lines, "\n")}
}
