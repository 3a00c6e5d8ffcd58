// Package invoke sends one capability request to the router, pinned to a
// single provider, and maps the answer to a Response.
package invoke

import (
	"context"

	"routerprobe/pkg/types"
)

// Request pins a capability invocation to one provider of one model.
type Request struct {
	Model    types.ModelID
	Provider string
	Def      Definition
}

// Response is the part of a chat completion the prober looks at.
type Response struct {
	FinishReason string
	Text         string
	ToolCalls    []types.ToolCall
	ModelUsed    string
	Usage        *types.Usage
}

// Invoker performs exactly one request without provider fallback.
// Failures are returned as *Error.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to Invoker.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) Invoke(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }
