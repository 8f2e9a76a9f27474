package ports

import "context"

//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks

// Span attribute keys set by the scheduler.
const (
	// AttrTarget holds the name of the target a span builds.
	AttrTarget = "bld.target"
	// AttrExecuted is true when the target's command actually ran.
	AttrExecuted = "bld.executed"
)

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that a set of targets is planned for building.
	EmitPlan(ctx context.Context, targets []string)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Attributes are set on the span when it starts.
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute on the span when it starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}
