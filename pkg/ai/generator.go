package ai

import "context"

// Generator produces model completions for a message history, either as a
// full synchronous response or as an incremental chunk stream.
type Generator interface {
	GenerateContent(ctx context.Context, contents []Content, opts GenerateOptions) (string, error)
	StreamGenerateContent(ctx context.Context, contents []Content, opts GenerateOptions) (Stream, error)
}

// GeminiGenerator wraps GeminiClient with a fixed model.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiGenerator builds a Gemini-based Generator.
func NewGeminiGenerator(client *GeminiClient, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// GenerateContent implements Generator using Gemini.
func (g *GeminiGenerator) GenerateContent(ctx context.Context, contents []Content, opts GenerateOptions) (string, error) {
	return g.client.GenerateContent(ctx, g.model, contents, opts)
}

// StreamGenerateContent implements Generator using Gemini.
func (g *GeminiGenerator) StreamGenerateContent(ctx context.Context, contents []Content, opts GenerateOptions) (Stream, error) {
	return g.client.StreamGenerateContent(ctx, g.model, contents, opts)
}
