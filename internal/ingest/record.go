package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/riftlabs/tokenpulse/internal/pricing"
	"github.com/riftlabs/tokenpulse/internal/telemetry"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

// rawUsage mirrors message.usage in the provider wire format.
type rawUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

type rawMessage struct {
	ID    string    `json:"id"`
	Model string    `json:"model"`
	Usage *rawUsage `json:"usage"`
}

// rawEntry is the superset of fields any usage-log line may carry.
// Top-level token fields are the fallback when message.usage is absent.
type rawEntry struct {
	Type      string       `json:"type"`
	Timestamp string       `json:"timestamp"`
	Model     string       `json:"model"`
	MessageID string       `json:"message_id"`
	RequestID string       `json:"request_id"`
	Cost      *float64     `json:"cost"`
	CostUSD   *float64     `json:"costUSD"`
	Message   *rawMessage  `json:"message"`

	InputTokens         *int64 `json:"input_tokens"`
	OutputTokens        *int64 `json:"output_tokens"`
	CacheCreationTokens *int64 `json:"cache_creation_tokens"`
	CacheReadTokens     *int64 `json:"cache_read_tokens"`
}

var limitEventPattern = regexp.MustCompile(`(?i)rate limit.*opus|token limit reached`)

// parseLine turns one JSON-Lines record into a usage.Record. ok is false
// (with no error) for lines that carry no usage field at all - these are
// skipped, not treated as a parse failure, unless they match the
// rate-limit system-message pattern, in which case a LimitEvent is
// returned instead.
func parseLine(provider usage.Provider, line []byte, isCodex bool) (rec usage.Record, limitEvt *LimitEvent, ok bool, err error) {
	var raw rawEntry
	if err := json.Unmarshal(line, &raw); err != nil {
		return usage.Record{}, nil, false, fmt.Errorf("unmarshal: %w", err)
	}

	if raw.Type == "system" && limitEventPattern.MatchString(string(line)) {
		ts, _ := parseTimestamp(raw.Timestamp)
		return usage.Record{}, &LimitEvent{Timestamp: ts, Message: raw.Type}, false, nil
	}

	input, output, cacheCreate, cacheRead, hasUsage := extractTokens(raw)
	if !hasUsage {
		return usage.Record{}, nil, false, nil
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return usage.Record{}, nil, false, fmt.Errorf("timestamp: %w", err)
	}

	model := raw.Model
	if raw.Message != nil && raw.Message.Model != "" {
		model = raw.Message.Model
	}

	if isCodex {
		cacheCreate, cacheRead = 0, 0
	}

	tokens := usage.TokenUsage{
		Input:         input,
		Output:        output,
		CacheCreation: cacheCreate,
		CacheRead:     cacheRead,
	}

	cost := resolveCost(raw, tokens, model)

	messageID := raw.MessageID
	if raw.Message != nil && raw.Message.ID != "" {
		messageID = raw.Message.ID
	}

	rec = usage.Record{
		Timestamp: ts,
		Model:     model,
		Tokens:    tokens,
		Cost:      cost,
		MessageID: messageID,
		RequestID: raw.RequestID,
		Provider:  provider,
	}
	if verr := rec.Validate(); verr != nil {
		return usage.Record{}, nil, false, verr
	}
	return rec, nil, true, nil
}

// extractTokens applies the field precedence: message.usage.* wins over
// the top-level fallback fields. hasUsage is false when neither source
// carries any usage field, meaning the line should be silently skipped.
func extractTokens(raw rawEntry) (input, output, cacheCreate, cacheRead int64, hasUsage bool) {
	if raw.Message != nil && raw.Message.Usage != nil {
		u := raw.Message.Usage
		return u.InputTokens, u.OutputTokens, u.CacheCreationInputTokens, u.CacheReadInputTokens, true
	}
	if raw.InputTokens == nil && raw.OutputTokens == nil && raw.CacheCreationTokens == nil && raw.CacheReadTokens == nil {
		return 0, 0, 0, 0, false
	}
	if raw.InputTokens != nil {
		input = *raw.InputTokens
	}
	if raw.OutputTokens != nil {
		output = *raw.OutputTokens
	}
	if raw.CacheCreationTokens != nil {
		cacheCreate = *raw.CacheCreationTokens
	}
	if raw.CacheReadTokens != nil {
		cacheRead = *raw.CacheReadTokens
	}
	return input, output, cacheCreate, cacheRead, true
}

// resolveCost trusts an explicit cost/costUSD field when present and
// non-null; otherwise computes it from the pricing table.
func resolveCost(raw rawEntry, tokens usage.TokenUsage, model string) float64 {
	if raw.Cost != nil {
		return *raw.Cost
	}
	if raw.CostUSD != nil {
		return *raw.CostUSD
	}
	p, ok := pricing.Lookup(model)
	if !ok {
		telemetry.LogUnknownModelOnce(model)
	}
	return pricing.Cost(tokens, p)
}

// parseTimestamp normalizes an ISO-8601 timestamp (with "Z" or an offset)
// to UTC.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}
