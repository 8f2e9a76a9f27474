package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/bld/internal/ui/style"
)

// Bridge implements sdktrace.SpanProcessor to report finished target spans
// to a Logger.
//
// Only spans carrying ports.AttrTarget are reported. Successful targets are
// reported only when their command ran, so up-to-date targets stay quiet.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{
		logger: logger,
	}
}

// NewProvider creates a TracerProvider that reports through a Bridge.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(logger)),
	)
}

// OnStart does nothing.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	var (
		target   string
		executed bool
	)
	for _, kv := range s.Attributes() {
		switch string(kv.Key) {
		case ports.AttrTarget:
			target = kv.Value.AsString()
		case ports.AttrExecuted:
			executed = kv.Value.AsBool()
		}
	}
	if target == "" {
		return
	}

	elapsed := formatElapsed(s.EndTime().Sub(s.StartTime()))
	if s.Status().Code == codes.Error {
		b.logger.Warn(fmt.Sprintf("%s %s failed after %s", style.Cross, target, elapsed))
		return
	}
	if executed {
		b.logger.Info(fmt.Sprintf("%s %s (%s)", style.Check, target, elapsed))
	}
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
