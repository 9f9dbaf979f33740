package ingest

import (
	"testing"

	"github.com/riftlabs/tokenpulse/internal/usage"
)

func TestParseLineMessageUsageTakesPrecedence(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":50}},"input_tokens":999}`)
	rec, evt, ok, err := parseLine(usage.Claude, line, false)
	if err != nil {
		t.Fatalf("parseLine error: %v", err)
	}
	if !ok || evt != nil {
		t.Fatalf("ok=%v evt=%v, want ok=true evt=nil", ok, evt)
	}
	if rec.Tokens.Input != 100 {
		t.Errorf("Tokens.Input = %d, want 100 (message.usage should win over the top-level fallback)", rec.Tokens.Input)
	}
	if rec.MessageID != "msg_1" {
		t.Errorf("MessageID = %q, want msg_1", rec.MessageID)
	}
	if rec.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want claude-sonnet-4-5", rec.Model)
	}
}

func TestParseLineFallsBackToTopLevelFields(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"gpt-4","input_tokens":10,"output_tokens":5,"request_id":"req_1"}`)
	rec, _, ok, err := parseLine(usage.Codex, line, true)
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Tokens.Input != 10 || rec.Tokens.Output != 5 {
		t.Errorf("Tokens = %+v, want Input=10 Output=5", rec.Tokens)
	}
	if rec.RequestID != "req_1" {
		t.Errorf("RequestID = %q, want req_1", rec.RequestID)
	}
}

func TestParseLineNoUsageFieldIsSkippedNotError(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","type":"assistant"}`)
	_, evt, ok, err := parseLine(usage.Claude, line, false)
	if err != nil {
		t.Fatalf("parseLine should not error on a usage-less line: %v", err)
	}
	if ok || evt != nil {
		t.Error("a line with no usage field should be skipped, not treated as a record or limit event")
	}
}

func TestParseLineMalformedJSONIsError(t *testing.T) {
	_, _, ok, err := parseLine(usage.Claude, []byte(`{not json`), false)
	if err == nil {
		t.Error("parseLine should error on malformed JSON")
	}
	if ok {
		t.Error("ok should be false on a parse error")
	}
}

func TestParseLineMissingTimestampIsError(t *testing.T) {
	line := []byte(`{"input_tokens":10,"output_tokens":5}`)
	_, _, ok, err := parseLine(usage.Claude, line, false)
	if err == nil {
		t.Error("parseLine should error when timestamp is missing but usage is present")
	}
	if ok {
		t.Error("ok should be false on a timestamp error")
	}
}

func TestParseLineRateLimitSystemMessageYieldsLimitEvent(t *testing.T) {
	line := []byte(`{"type":"system","timestamp":"2026-01-01T10:00:00Z","content":"Claude token limit reached for this session"}`)
	rec, evt, ok, err := parseLine(usage.Claude, line, false)
	if err != nil {
		t.Fatalf("parseLine error: %v", err)
	}
	if ok {
		t.Error("a rate-limit system message should not be treated as a usage record")
	}
	if evt == nil {
		t.Fatal("expected a LimitEvent for a rate-limit system message")
	}
	if rec != (usage.Record{}) {
		t.Error("rec should be zero value when a LimitEvent is returned")
	}
}

func TestParseLineCodexDropsCacheFields(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"gpt-4","input_tokens":10,"cache_creation_tokens":5,"cache_read_tokens":3}`)
	rec, _, ok, err := parseLine(usage.Codex, line, true)
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Tokens.CacheCreation != 0 || rec.Tokens.CacheRead != 0 {
		t.Errorf("Codex cache fields = %+v, want both zeroed out", rec.Tokens)
	}
}

func TestParseLineExplicitCostOverridesTable(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"claude-sonnet-4-5","input_tokens":1000000,"cost":0.01}`)
	rec, _, ok, err := parseLine(usage.Claude, line, false)
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Cost != 0.01 {
		t.Errorf("Cost = %v, want the explicit 0.01 field, not a pricing-table computation", rec.Cost)
	}
}

func TestParseLineCostUSDFallsBackWhenCostAbsent(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"claude-sonnet-4-5","input_tokens":10,"costUSD":0.05}`)
	rec, _, ok, err := parseLine(usage.Claude, line, false)
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Cost != 0.05 {
		t.Errorf("Cost = %v, want 0.05 from costUSD", rec.Cost)
	}
}

func TestParseLineComputesCostFromPricingTableWhenAbsent(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"gpt-4","input_tokens":1000000}`)
	rec, _, ok, err := parseLine(usage.Codex, line, true)
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Cost != 30.00 {
		t.Errorf("Cost = %v, want 30.00 (gpt-4 input rate per 1M tokens)", rec.Cost)
	}
}

func TestParseLineInvalidUsageFailsValidation(t *testing.T) {
	line := []byte(`{"timestamp":"2026-01-01T10:00:00Z","model":"gpt-4","input_tokens":-5}`)
	_, _, ok, err := parseLine(usage.Codex, line, true)
	if err == nil {
		t.Error("parseLine should surface Record.Validate()'s error for negative token counts")
	}
	if ok {
		t.Error("ok should be false when validation fails")
	}
}
