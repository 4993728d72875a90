// Package augment reads smoking history from free-text notes with Claude
// when the extraction patterns come up empty.
package augment

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/screening-cli/internal/extract"
	"github.com/sells-group/screening-cli/internal/model"
	"github.com/sells-group/screening-cli/internal/resilience"
	"github.com/sells-group/screening-cli/pkg/anthropic"
)

const systemPrompt = `You read clinical notes and report smoking history.
Reply with a single JSON object and nothing else:
{"pack_years": <number or null>, "quit_years": <number or null>}
pack_years is the cumulative pack-years stated or clearly implied by the note.
quit_years is how many years ago the patient stopped smoking.
Use null when the note does not say. Never guess.`

// Config configures the Claude augmenter.
type Config struct {
	Model             string
	MaxTokens         int64
	RequestsPerSecond float64
	MaxAttempts       int
}

// Claude implements extract.Augmenter against the Anthropic Messages API.
type Claude struct {
	client  anthropic.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig

	mu    sync.Mutex
	usage anthropic.TokenUsage
	calls int
}

var _ extract.Augmenter = (*Claude)(nil)

// New creates a Claude augmenter. Requests are throttled to
// cfg.RequestsPerSecond and transient failures are retried up to
// cfg.MaxAttempts times.
func New(client anthropic.Client, cfg Config) *Claude {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "augment")

	return &Claude{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		breaker: resilience.NewBreaker(5, 0),
		retry:   retry,
	}
}

// Augment asks the model for the fields absent in have. Present fields are
// never overwritten.
func (c *Claude) Augment(ctx context.Context, note string, have extract.Signals) (extract.Signals, error) {
	if have.PackYears.Valid && have.QuitYears.Valid {
		return have, nil
	}
	if strings.TrimSpace(note) == "" {
		return have, nil
	}

	var resp *anthropic.MessageResponse
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return c.client.CreateMessage(ctx, c.request(note))
		})
		return err
	})
	if err != nil {
		return have, eris.Wrap(err, "augment: create message")
	}
	c.record(resp.Usage)

	got, err := parseReply(resp.Text())
	if err != nil {
		return have, err
	}

	out := have
	if !out.PackYears.Valid {
		out.PackYears = got.PackYears
	}
	if !out.QuitYears.Valid {
		out.QuitYears = got.QuitYears
	}
	zap.L().Debug("augment: note read",
		zap.Bool("pack_years", got.PackYears.Valid),
		zap.Bool("quit_years", got.QuitYears.Valid),
	)
	return out, nil
}

func (c *Claude) request(note string) anthropic.MessageRequest {
	temp := 0.0
	return anthropic.MessageRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System: []anthropic.SystemBlock{
			{Text: systemPrompt, CacheControl: &anthropic.CacheControl{}},
		},
		Messages:    []anthropic.Message{{Role: "user", Content: note}},
		Temperature: &temp,
	}
}

func (c *Claude) record(u anthropic.TokenUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Add(u)
	c.calls++
}

// Usage returns the accumulated token usage and number of successful calls.
func (c *Claude) Usage() (anthropic.TokenUsage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage, c.calls
}

// LogUsage logs the accumulated cost of the augmenter's calls.
func (c *Claude) LogUsage() {
	u, calls := c.Usage()
	if calls == 0 {
		return
	}
	u.LogCost(c.cfg.Model, "augment")
}

type reply struct {
	PackYears *float64 `json:"pack_years"`
	QuitYears *float64 `json:"quit_years"`
}

// parseReply decodes the first JSON object in text. Code fences and
// surrounding prose are tolerated.
func parseReply(text string) (extract.Signals, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return extract.Signals{}, eris.Errorf("augment: no JSON object in reply %q", text)
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return extract.Signals{}, eris.Wrap(err, "augment: decode reply")
	}
	return extract.Signals{
		PackYears: quantity(r.PackYears),
		QuitYears: quantity(r.QuitYears),
	}, nil
}

// quantity drops null and negative values.
func quantity(v *float64) model.Quantity {
	if v == nil || *v < 0 {
		return model.Absent()
	}
	return model.Known(*v)
}
