package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// geminiAdapter speaks the generateContent API. The system instruction and
// prompt travel as one combined content part; the reasoning effort maps
// straight onto thinkingConfig.thinkingBudget (0 = none, -1 = dynamic).
func geminiAdapter() providerAdapter {
	return providerAdapter{
		fallbackEnv: "GEMINI_API_KEY",
		requiresKey: true,
		buildURL: func(model domain.ModelDefinition, apiKey string) string {
			endpoint := defaultString(model.Endpoint, "https://generativelanguage.googleapis.com/v1beta")
			return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
				strings.TrimRight(endpoint, "/"),
				defaultString(model.ModelID, "gemini-2.5-flash"),
				url.QueryEscape(apiKey))
		},
		buildRequest:  buildGeminiRequest,
		setHeaders:    noHeaders,
		parseResponse: parseGeminiResponse,
	}
}

func buildGeminiRequest(model domain.ModelDefinition, req ports.InvokeRequest) ([]byte, error) {
	full := req.Prompt
	if req.SystemInstruction != "" {
		full = req.SystemInstruction + "\n\n" + req.Prompt
	}
	generation := map[string]interface{}{
		"thinkingConfig": map[string]interface{}{
			"thinkingBudget": req.ReasoningEffort,
		},
	}
	if model.MaxTokens > 0 {
		generation["maxOutputTokens"] = model.MaxTokens
	}
	request := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": full}}},
		},
		"generationConfig": generation,
	}
	return json.Marshal(request)
}

func parseGeminiResponse(body []byte) (string, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

func openaiAdapter() providerAdapter {
	return providerAdapter{
		fallbackEnv: "OPENAI_API_KEY",
		requiresKey: true,
		buildURL: func(model domain.ModelDefinition, _ string) string {
			return defaultString(model.Endpoint, "https://api.openai.com/v1/chat/completions")
		},
		buildRequest:  buildChatCompletionRequest,
		setHeaders:    setOpenAIHeaders,
		parseResponse: parseChatCompletionResponse,
	}
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		buildURL: func(model domain.ModelDefinition, _ string) string {
			return defaultString(model.Endpoint, "http://localhost:11434/v1/chat/completions")
		},
		buildRequest:  buildChatCompletionRequest,
		setHeaders:    noHeaders,
		parseResponse: parseChatCompletionResponse,
	}
}

func anthropicAdapter() providerAdapter {
	return providerAdapter{
		fallbackEnv: "ANTHROPIC_API_KEY",
		requiresKey: true,
		buildURL: func(model domain.ModelDefinition, _ string) string {
			return defaultString(model.Endpoint, "https://api.anthropic.com/v1/messages")
		},
		buildRequest:  buildAnthropicRequest,
		setHeaders:    setAnthropicHeaders,
		parseResponse: parseAnthropicResponse,
	}
}

func buildChatCompletionRequest(model domain.ModelDefinition, req ports.InvokeRequest) ([]byte, error) {
	messages := make([]map[string]string, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemInstruction})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	request := map[string]interface{}{
		"model":    model.ModelID,
		"messages": messages,
	}
	if model.MaxTokens > 0 {
		request["max_tokens"] = model.MaxTokens
	}
	if effort := reasoningEffortName(req.ReasoningEffort); effort != "" {
		request["reasoning_effort"] = effort
	}
	return json.Marshal(request)
}

func parseChatCompletionResponse(body []byte) (string, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func setOpenAIHeaders(httpReq *http.Request, model domain.ModelDefinition, apiKey string) error {
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if org := getEnv(model.OrgEnvVar, "OPENAI_ORG_ID"); org != "" {
		httpReq.Header.Set("OpenAI-Organization", org)
	}
	return nil
}

func buildAnthropicRequest(model domain.ModelDefinition, req ports.InvokeRequest) ([]byte, error) {
	request := map[string]interface{}{
		"model":      model.ModelID,
		"max_tokens": defaultInt(model.MaxTokens, 1024),
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": req.Prompt},
				},
			},
		},
	}
	if req.SystemInstruction != "" {
		request["system"] = req.SystemInstruction
	}
	return json.Marshal(request)
}

func parseAnthropicResponse(body []byte) (string, error) {
	var response struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", nil
	}
	return response.Content[0].Text, nil
}

func setAnthropicHeaders(httpReq *http.Request, _ domain.ModelDefinition, apiKey string) error {
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	return nil
}

func noHeaders(*http.Request, domain.ModelDefinition, string) error {
	return nil
}

// reasoningEffortName maps the numeric effort onto the tier names the
// chat-completion dialect expects.
func reasoningEffortName(effort int) string {
	switch {
	case effort < 0:
		return "medium"
	case effort == 0:
		return ""
	case effort == 1:
		return "low"
	case effort == 2:
		return "medium"
	default:
		return "high"
	}
}
