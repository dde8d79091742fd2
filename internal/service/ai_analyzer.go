package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/config"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/utils"
)

// AIAnalyzer answers coverage questions with an OpenAI-compatible chat
// model. It degrades gracefully: when the API is disabled or a call fails,
// the configured fallback analyzer (normally the rule analyzer) answers
// instead, so a comparison session never blocks on the provider.
type AIAnalyzer struct {
	cfg        *config.AssistantConfig
	httpClient *http.Client
	fallback   QuestionAnalyzer
}

// NewAIAnalyzer creates an AI-backed analyzer with a mandatory fallback.
func NewAIAnalyzer(cfg *config.AssistantConfig, fallback QuestionAnalyzer) *AIAnalyzer {
	return &AIAnalyzer{
		cfg:      cfg,
		fallback: fallback,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready.
func (a *AIAnalyzer) IsEnabled() bool {
	return a.cfg != nil && a.cfg.Enabled
}

// chatCompletionRequest is the OpenAI-compatible chat payload.
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

const analyzerSystemPrompt = `Tu es un analyste d'assurance. On te donne une question d'un utilisateur et la liste des garanties de plusieurs offres d'assurance. Pour chaque offre, décide si la question est couverte. Réponds UNIQUEMENT en JSON: un objet dont les clés sont les identifiants d'offre et les valeurs {"has_answer": bool, "details": "courte explication en français"}.`

// Analyze asks the chat model for a per-offer verdict; any failure falls
// back to the rule analyzer.
func (a *AIAnalyzer) Analyze(ctx context.Context, question string, offers []model.Offer) model.ResponseMap {
	if !a.IsEnabled() {
		return a.fallback.Analyze(ctx, question, offers)
	}

	responses, err := a.analyzeWithAI(ctx, question, offers)
	if err != nil {
		log.Printf("Warning: AI analysis failed, falling back to rules: %v", err)
		return a.fallback.Analyze(ctx, question, offers)
	}

	// The model must answer for every offer; partial answers get filled in
	// by the fallback so the ledger stays complete.
	missing := make([]model.Offer, 0)
	for _, offer := range offers {
		if _, ok := responses[offer.ID]; !ok {
			missing = append(missing, offer)
		}
	}
	if len(missing) > 0 {
		for id, resp := range a.fallback.Analyze(ctx, question, missing) {
			responses[id] = resp
		}
	}

	return responses
}

func (a *AIAnalyzer) analyzeWithAI(ctx context.Context, question string, offers []model.Offer) (model.ResponseMap, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nOffres:\n", question)
	for _, offer := range offers {
		fmt.Fprintf(&sb, "- %s (%s):", offer.ID, offer.Insurer)
		for name, cov := range offer.Coverages {
			state := "non incluse"
			if cov.Included {
				state = "incluse"
			}
			if cov.Value != "" {
				fmt.Fprintf(&sb, " %s=%s (%s);", name, state, cov.Value)
			} else {
				fmt.Fprintf(&sb, " %s=%s;", name, state)
			}
		}
		sb.WriteString("\n")
	}

	req := chatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzerSystemPrompt},
			{Role: "user", Content: sb.String()},
		},
		Temperature:    a.cfg.Temperature,
		MaxTokens:      a.cfg.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.APIBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion status %d: %s", resp.StatusCode, string(respBody))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	var verdicts map[string]model.QuestionResponse
	if err := utils.ParseAIJSON(completion.Choices[0].Message.Content, &verdicts); err != nil {
		return nil, fmt.Errorf("parse verdicts: %w", err)
	}

	return model.ResponseMap(verdicts), nil
}
