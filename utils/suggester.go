package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/likexian/whois"
)

var (
	// ErrServiceUnavailable reports a connectivity failure to the
	// suggestion service. Distinct from a malformed response so callers can
	// show a different message.
	ErrServiceUnavailable = errors.New("suggestion service is unreachable")

	// ErrInvalidResponse reports that the service answered but the content
	// did not match the expected JSON shape.
	ErrInvalidResponse = errors.New("suggestion service returned an invalid response")

	// ErrNotesTooShort reports that the summary input was rejected before
	// any outbound call was made.
	ErrNotesTooShort = errors.New("please provide at least 10 characters of notes to summarize")
)

const (
	minNotesLength    = 10
	maxEnrichmentSize = 600
	suggestTimeout    = 30 * time.Second
)

// LeadProfile is the input for next-step suggestions.
type LeadProfile struct {
	Name                 string
	Email                string
	LinkedinProfileURL   string
	Company              string
	Notes                string
	Tags                 []string
	CommunicationHistory string
}

// Suggester sends prompt templates to an OpenAI-compatible chat-completions
// endpoint and parses the constrained JSON replies. Pure request/response:
// no retries, no caching.
type Suggester struct {
	BaseURL       string
	APIKey        string
	Model         string
	EnrichProfile bool
	HTTPClient    *http.Client
	Logger        *log.Logger
}

func NewSuggester(baseURL, apiKey, model string, enrichProfile bool, logger *log.Logger) *Suggester {
	return &Suggester{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        apiKey,
		Model:         model,
		EnrichProfile: enrichProfile,
		HTTPClient:    &http.Client{Timeout: suggestTimeout},
		Logger:        logger,
	}
}

const nextStepsSystemPrompt = `You are an AI assistant helping salespeople determine the next best action for a lead.

Given the following information about a lead, suggest 3-5 concise, actionable next steps that the salesperson can take to engage with the lead and move them closer to a sale.
Consider the lead's company, notes, tags, and communication history when making your suggestions.
Each suggestion should be a clear, actionable task.

Output ONLY a JSON object with a single key "nextSteps", which is an array of strings. Do not include any other text or explanations.
Make sure that the output is valid JSON.`

const summarySystemPrompt = `You are an AI assistant that helps users create concise summaries of their conversation notes for a CRM.
Given the raw notes, provide a brief and informative summary highlighting key actions, decisions, and outcomes.
Output ONLY a JSON object with a single key "suggestedSummary", which is a string.
Make sure that the output is valid JSON.`

// SuggestNextSteps asks for 3-5 actionable steps for the given lead.
func (s *Suggester) SuggestNextSteps(ctx context.Context, profile LeadProfile) ([]string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Lead Name: %s\n", profile.Name)
	fmt.Fprintf(&prompt, "Lead Email: %s\n", profile.Email)
	if profile.LinkedinProfileURL != "" {
		fmt.Fprintf(&prompt, "Lead LinkedIn Profile URL: %s\n", profile.LinkedinProfileURL)
	}
	if profile.Company != "" {
		fmt.Fprintf(&prompt, "Company: %s\n", profile.Company)
	}
	if profile.Notes != "" {
		fmt.Fprintf(&prompt, "Notes: %s\n", profile.Notes)
	}
	if len(profile.Tags) > 0 {
		fmt.Fprintf(&prompt, "Tags: %s\n", strings.Join(profile.Tags, ", "))
	}
	if enrichment := s.enrichmentContext(profile); enrichment != "" {
		fmt.Fprintf(&prompt, "Domain Background: %s\n", enrichment)
	}
	fmt.Fprintf(&prompt, "Communication History: %s", profile.CommunicationHistory)

	content, err := s.complete(ctx, nextStepsSystemPrompt, prompt.String())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		NextSteps []string `json:"nextSteps"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parsed.NextSteps) == 0 {
		return nil, fmt.Errorf("%w: empty nextSteps", ErrInvalidResponse)
	}
	return parsed.NextSteps, nil
}

// SuggestSummary asks for a concise summary of the raw conversation notes.
// Inputs shorter than 10 characters are rejected before any outbound call.
func (s *Suggester) SuggestSummary(ctx context.Context, rawNotes string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(rawNotes)) < minNotesLength {
		return "", ErrNotesTooShort
	}

	content, err := s.complete(ctx, summarySystemPrompt, "Raw Conversation Notes: "+rawNotes)
	if err != nil {
		return "", err
	}

	var parsed struct {
		SuggestedSummary string `json:"suggestedSummary"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.SuggestedSummary == "" {
		return "", fmt.Errorf("%w: empty suggestedSummary", ErrInvalidResponse)
	}
	return parsed.SuggestedSummary, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *Suggester) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return stripCodeFence(parsed.Choices[0].Message.Content), nil
}

// enrichmentContext performs a best-effort whois lookup of the lead's email
// domain for extra prompt context. Any failure degrades to no enrichment.
func (s *Suggester) enrichmentContext(profile LeadProfile) string {
	if !s.EnrichProfile {
		return ""
	}

	parts := strings.Split(profile.Email, "@")
	if len(parts) != 2 {
		return ""
	}
	domain := parts[1]

	info, err := whois.Whois(domain)
	if err != nil {
		s.Logger.Printf("whois enrichment skipped for %s: %v", domain, err)
		return ""
	}
	info = strings.TrimSpace(info)
	if len(info) > maxEnrichmentSize {
		info = info[:maxEnrichmentSize]
	}
	return info
}

// stripCodeFence unwraps content some models wrap in a markdown code block.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
