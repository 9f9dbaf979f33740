package usage

import "testing"

func TestTokenUsageTotal(t *testing.T) {
	tok := TokenUsage{Input: 100, Output: 50, CacheCreation: 10, CacheRead: 5}
	if got := tok.Total(); got != 165 {
		t.Errorf("Total() = %d, want 165", got)
	}
}

func TestTokenUsageAdd(t *testing.T) {
	a := TokenUsage{Input: 10, Output: 5}
	b := TokenUsage{Input: 3, CacheRead: 2}
	got := a.Add(b)
	want := TokenUsage{Input: 13, Output: 5, CacheRead: 2}
	if got != want {
		t.Errorf("Add() = %+v, want %+v", got, want)
	}
}

func TestTokenUsageNegative(t *testing.T) {
	cases := []struct {
		name string
		tok  TokenUsage
		want bool
	}{
		{"all zero", TokenUsage{}, false},
		{"negative input", TokenUsage{Input: -1}, true},
		{"negative cache read", TokenUsage{CacheRead: -1}, true},
		{"all positive", TokenUsage{Input: 1, Output: 1, CacheCreation: 1, CacheRead: 1}, false},
	}
	for _, c := range cases {
		if got := c.tok.Negative(); got != c.want {
			t.Errorf("%s: Negative() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRecordDedupKey(t *testing.T) {
	r := Record{MessageID: "m1", RequestID: "r1"}
	key, empty := r.DedupKey()
	if empty {
		t.Fatal("DedupKey reported empty for a record with both IDs set")
	}
	if key != [2]string{"m1", "r1"} {
		t.Errorf("DedupKey() = %v, want [m1 r1]", key)
	}
}

func TestRecordDedupKeyEmpty(t *testing.T) {
	r := Record{Provider: Claude}
	_, empty := r.DedupKey()
	if !empty {
		t.Error("DedupKey reported non-empty for a record with no message/request ID")
	}
}

func TestRecordValidate(t *testing.T) {
	cases := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid claude", Record{Provider: Claude, Tokens: TokenUsage{Input: 1}}, false},
		{"valid codex", Record{Provider: Codex}, false},
		{"negative tokens", Record{Provider: Claude, Tokens: TokenUsage{Input: -1}}, true},
		{"unknown provider", Record{Provider: "bogus"}, true},
	}
	for _, c := range cases {
		err := c.rec.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func TestProviderValid(t *testing.T) {
	if !Codex.Valid() || !Claude.Valid() {
		t.Error("Codex and Claude should be valid providers")
	}
	if Provider("openai").Valid() {
		t.Error("unrecognized provider reported as valid")
	}
}
