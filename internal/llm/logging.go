package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event
// and as a structured log line.
type LoggingProvider struct {
	inner  Provider
	name   string
	events store.EventRepo
	log    *zap.Logger
}

// WithLogging wraps a Provider with event logging. name is the provider
// name recorded on each event. Either sink may be nil.
func WithLogging(p Provider, name string, events store.EventRepo, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, name: name, events: events, log: log.Named("llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	call := CallFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)
	data := store.LLMRequestEventData{
		Provider:    l.name,
		Model:       l.inner.ModelID(),
		Purpose:     call.Purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	fields := []zap.Field{
		zap.String("purpose", call.Purpose),
		zap.String("model", data.Model),
		zap.Duration("latency", latency),
	}
	if call.QuestionID != "" {
		fields = append(fields, zap.String("question", call.QuestionID))
	}
	if call.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", call.Attempt))
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Debug("request failed", append(fields, zap.String("kind", string(Classify(err))), zap.Error(err))...)
	} else {
		l.log.Debug("request ok", append(fields, zap.Int("input_tokens", data.InputTokens), zap.Int("output_tokens", data.OutputTokens))...)
	}

	// Log the event but don't fail the request if logging fails.
	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.log.Warn("failed to record LLM request event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		if schemaDef, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
