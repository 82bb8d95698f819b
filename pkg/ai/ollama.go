package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// OllamaService implements ReplyService using an Ollama local LLM.
type OllamaService struct {
	baseURL    string
	model      string
	client     *http.Client
	maxRetries int
	retryWait  time.Duration
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama2"
	}
	return &OllamaService{
		baseURL:    baseURL,
		model:      model,
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		retryWait:  2 * time.Second,
	}
}

// GenerateReply asks Ollama for a support reply to the given email. Requests
// are retried up to maxRetries times before the error is surfaced.
func (o *OllamaService) GenerateReply(ctx context.Context, senderEmail, subject, body string) (string, error) {
	prompt := buildReplyPrompt(senderEmail, subject, body)

	var lastErr error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		log.Printf("[AI] Sending prompt to Ollama model %s (attempt %d/%d)", o.model, attempt, o.maxRetries)
		reply, err := o.generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		log.Printf("[AI] Ollama request failed (attempt %d/%d): %v", attempt, o.maxRetries, err)
		if attempt < o.maxRetries {
			select {
			case <-time.After(o.retryWait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("ollama failed after %d attempts: %w", o.maxRetries, lastErr)
}

func (o *OllamaService) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}

func buildReplyPrompt(senderEmail, subject, body string) string {
	return fmt.Sprintf(`You are an official customer support email assistant. Your role is to:
1. Provide professional and helpful responses to customer queries
2. Collect necessary information to create support tickets
3. Follow standard templates for different types of queries
4. Maintain a friendly yet professional tone

For each email, follow these steps:
1. Analyze the customer's issue
2. Identify what type of issue it is (payment, account, technical, etc.)
3. Request any missing information needed to create a support ticket
4. Provide a clear resolution path or next steps

Required Information to Collect:
- Customer ID if applicable
- Transaction ID or Reference Number
- Contact number associated with the account
- Date and time of the issue
- Detailed description of the problem

Response Template:
1. Greeting: "Dear Customer,"
2. Acknowledge: "Thank you for reaching out to customer support."
3. Issue Summary: "We understand you're facing [briefly describe issue]."
4. Information Request: "To assist you better, we need the following details:"
5. Next Steps: "Once we receive this information, we will [explain next steps]."
6. Closing: "We appreciate your patience and look forward to resolving your issue."

Current Email Details:
From: %s
Subject: %s
Message:
%s

Please generate an appropriate response following the above guidelines.`, senderEmail, subject, body)
}
