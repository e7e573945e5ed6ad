package schema

import "context"

// Provider supplies the opaque textual description of available relations
// and fields for the current target. The pipeline never interprets its
// internal structure; the text is injected into prompt composition as-is.
type Provider interface {
	SchemaText(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed schema description, typically loaded from
// configuration or a file at startup
type StaticProvider struct {
	text string
}

// NewStaticProvider creates a provider around pre-fetched schema text
func NewStaticProvider(text string) *StaticProvider {
	return &StaticProvider{text: text}
}

// SchemaText implements Provider
func (p *StaticProvider) SchemaText(ctx context.Context) (string, error) {
	return p.text, nil
}
