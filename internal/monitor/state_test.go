package monitor

import "testing"

func TestMultiPlatformStateTotalsSumBothProviders(t *testing.T) {
	m := &MultiPlatformState{
		Codex:  &MonitorState{WindowTotal: UsageStatsView{TotalTokens: 100, TotalCost: 1.0}},
		Claude: &MonitorState{WindowTotal: UsageStatsView{TotalTokens: 200, TotalCost: 2.0}},
	}
	if got := m.TotalTokens(); got != 300 {
		t.Errorf("TotalTokens() = %d, want 300", got)
	}
	if got := m.TotalCost(); got != 3.0 {
		t.Errorf("TotalCost() = %v, want 3.0", got)
	}
}

func TestMultiPlatformStateTotalsToleratesMissingSlot(t *testing.T) {
	m := &MultiPlatformState{Claude: &MonitorState{WindowTotal: UsageStatsView{TotalTokens: 50, TotalCost: 0.5}}}
	if got := m.TotalTokens(); got != 50 {
		t.Errorf("TotalTokens() with nil Codex slot = %d, want 50", got)
	}
	if got := m.TotalCost(); got != 0.5 {
		t.Errorf("TotalCost() with nil Codex slot = %v, want 0.5", got)
	}
}

func TestMultiPlatformStateZeroValueTotalsAreZero(t *testing.T) {
	m := &MultiPlatformState{}
	if m.TotalTokens() != 0 || m.TotalCost() != 0 {
		t.Error("a zero-value MultiPlatformState should report zero totals")
	}
}
