package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"routerprobe/pkg/types"
)

// providerPrefs pins routing to one provider.
type providerPrefs struct {
	Only           []string `json:"only"`
	AllowFallbacks bool     `json:"allow_fallbacks"`
}

type routedRequest struct {
	openai.ChatCompletionRequest
	Provider providerPrefs `json:"provider"`
}

type upstreamError struct {
	Message  string          `json:"message"`
	Code     json.RawMessage `json:"code"`
	Metadata struct {
		Raw          json.RawMessage `json:"raw"`
		ProviderName string          `json:"provider_name"`
	} `json:"metadata"`
}

type routedResponse struct {
	openai.ChatCompletionResponse
	Error *upstreamError `json:"error,omitempty"`
}

// OpenRouter invokes chat completions through the router.
type OpenRouter struct {
	http *resty.Client
}

// NewOpenRouter wraps a client created by httpclient.New.
func NewOpenRouter(http *resty.Client) *OpenRouter { return &OpenRouter{http: http} }

// buildBody builds the JSON request for req.
func buildBody(req Request) routedRequest {
	return routedRequest{
		ChatCompletionRequest: openai.ChatCompletionRequest{
			Model: req.Model.String(),
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: req.Def.Prompt},
			},
			Tools:          req.Def.Tools,
			ResponseFormat: req.Def.ResponseFormat,
			MaxTokens:      req.Def.MaxTokens,
		},
		Provider: providerPrefs{Only: []string{req.Provider}, AllowFallbacks: false},
	}
}

func (o *OpenRouter) Invoke(ctx context.Context, req Request) (Response, error) {
	resp, err := o.http.R().
		SetContext(ctx).
		SetBody(buildBody(req)).
		Post("/chat/completions")
	if err != nil {
		return Response{}, &Error{Provider: req.Provider, Err: err}
	}
	body := resp.Bytes()
	var out routedResponse
	decodeErr := json.Unmarshal(body, &out)

	if !resp.IsSuccess() {
		ie := &Error{Status: resp.StatusCode(), Provider: req.Provider, Message: strings.TrimSpace(string(body))}
		if decodeErr == nil && out.Error != nil {
			fillUpstream(ie, out.Error)
		}
		return Response{}, ie
	}
	if decodeErr != nil {
		return Response{}, &Error{Provider: req.Provider, Message: "malformed response body", Err: decodeErr}
	}
	if out.Error != nil {
		ie := &Error{Provider: req.Provider}
		fillUpstream(ie, out.Error)
		return Response{}, ie
	}
	if len(out.Choices) == 0 {
		return Response{}, &Error{Provider: req.Provider, Message: "response has no choices"}
	}
	choice := out.Choices[0]
	r := Response{
		FinishReason: string(choice.FinishReason),
		Text:         choice.Message.Content,
		ModelUsed:    out.Model,
	}
	for _, tc := range choice.Message.ToolCalls {
		r.ToolCalls = append(r.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Type:      string(tc.Type),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if u := out.Usage; u.TotalTokens > 0 || u.PromptTokens > 0 || u.CompletionTokens > 0 {
		r.Usage = &types.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
	}
	return r, nil
}

func fillUpstream(ie *Error, ue *upstreamError) {
	ie.Message = ue.Message
	if len(ue.Code) > 0 && string(ue.Code) != "null" {
		ie.Code = strings.Trim(string(ue.Code), `"`)
	}
	if raw := rawText(ue.Metadata.Raw); raw != "" && !strings.Contains(ie.Message, raw) {
		ie.Message = fmt.Sprintf("%s: %s", ie.Message, raw)
	}
	if ue.Metadata.ProviderName != "" {
		ie.Provider = ue.Metadata.ProviderName
	}
}

// rawText flattens metadata.raw, which providers send as a string or an object.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
