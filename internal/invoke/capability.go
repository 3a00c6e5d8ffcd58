package invoke

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"routerprobe/pkg/types"
)

// Definition is the standardized prompt and request shape for one capability.
type Definition struct {
	Capability     types.Capability
	Prompt         string
	Tools          []openai.Tool
	ResponseFormat *openai.ChatCompletionResponseFormat
	// Schema the answer text must satisfy (structured output only).
	Schema    json.RawMessage
	MaxTokens int
}

const weatherPrompt = "What's the weather like in San Francisco? Please use the get_weather function."

var weatherParameters = json.RawMessage(`{
  "type": "object",
  "properties": {
    "location": {"type": "string", "description": "The city and state, e.g. San Francisco, CA"},
    "unit": {"type": "string", "enum": ["celsius", "fahrenheit"], "description": "The unit for temperature"}
  },
  "required": ["location"]
}`)

const eventPrompt = "Extract the event from this sentence and answer with JSON only: " +
	"\"Alice and Bob will meet at the Ferry Building in San Francisco on 2024-06-01 to plan the launch.\""

// EventSchema is the structured output contract.
var EventSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "location": {"type": "string"},
    "date": {"type": "string"},
    "participants": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["name", "location", "date", "participants"],
  "additionalProperties": false
}`)

// ForCapability returns the definition used for every trial of c.
func ForCapability(c types.Capability, maxTokens int) (Definition, error) {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	switch c {
	case types.CapabilityToolCalling:
		return Definition{
			Capability: c,
			Prompt:     weatherPrompt,
			Tools: []openai.Tool{{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "get_weather",
					Description: "Get the current weather for a location",
					Parameters:  weatherParameters,
				},
			}},
			MaxTokens: maxTokens,
		}, nil
	case types.CapabilityStructuredOutput:
		return Definition{
			Capability: c,
			Prompt:     eventPrompt,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "event",
					Schema: EventSchema,
					Strict: true,
				},
			},
			Schema:    EventSchema,
			MaxTokens: maxTokens,
		}, nil
	default:
		return Definition{}, fmt.Errorf("no definition for capability %q", c)
	}
}
