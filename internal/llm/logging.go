package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abhisek/coursekit/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *log.Logger
	now       func() time.Time
}

// LoggingOption configures a LoggingProvider.
type LoggingOption func(*LoggingProvider)

// WithEventLogger sets where failures to record an event are reported.
func WithEventLogger(l *log.Logger) LoggingOption {
	return func(p *LoggingProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLogging wraps a Provider with event logging. provider names the
// backend ("anthropic", "gemini", ...) in the recorded events.
func WithLogging(p Provider, provider string, repo store.EventRepo, opts ...LoggingOption) Provider {
	lp := &LoggingProvider{
		inner:     p,
		provider:  provider,
		eventRepo: repo,
		logger:    log.New(io.Discard, "", 0),
		now:       time.Now,
	}
	for _, o := range opts {
		o(lp)
	}
	return lp
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := l.now()
	call := CallFrom(ctx)
	purpose := call.Purpose

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   l.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(call, req),
		Session:     call.Session,
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// The event is written even if the caller's context was cancelled.
	if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.logger.Printf("llm: record %s request: %v", purpose, logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(call Call, req Request) string {
	var b strings.Builder

	if call.Session != "" {
		fmt.Fprintf(&b, "[session: %s]\n\n", call.Session)
	}

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
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
