package cli

import "testing"

func TestFormatTokensScalesSuffix(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{500, "500"},
		{1_500, "1.5K"},
		{2_500_000, "2.50M"},
		{3_200_000_000, "3.20B"},
	}
	for _, c := range cases {
		if got := FormatTokens(c.n); got != c.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestFormatCostPrecisionScalesWithMagnitude(t *testing.T) {
	cases := []struct {
		cost float64
		want string
	}{
		{0.00123, "$0.0012"},
		{5.4321, "$5.43"},
		{150.9, "$151"},
	}
	for _, c := range cases {
		if got := FormatCost(c.cost); got != c.want {
			t.Errorf("FormatCost(%v) = %q, want %q", c.cost, got, c.want)
		}
	}
}

func TestFormatDurationOmitsHoursWhenZero(t *testing.T) {
	if got := FormatDuration(90); got != "1m" {
		t.Errorf("FormatDuration(90) = %q, want 1m", got)
	}
}

func TestFormatDurationIncludesHours(t *testing.T) {
	if got := FormatDuration(2*3600 + 15*60); got != "2h15m" {
		t.Errorf("FormatDuration(2h15m) = %q, want 2h15m", got)
	}
}

func TestFormatNumberAddsCommaGrouping(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{7, "7"},
		{950, "950"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.n); got != c.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestFormatPercentRoundsToWholeNumber(t *testing.T) {
	if got := FormatPercent(49.6); got != "50%" {
		t.Errorf("FormatPercent(49.6) = %q, want 50%%", got)
	}
}

func TestFormatDeltaNAWhenPreviousIsZero(t *testing.T) {
	if got := FormatDelta(10, 0); got != "n/a" {
		t.Errorf("FormatDelta(10, 0) = %q, want n/a", got)
	}
}

func TestFormatDeltaSignsIncreaseAndDecrease(t *testing.T) {
	if got := FormatDelta(150, 100); got != "+50.0%" {
		t.Errorf("FormatDelta(150, 100) = %q, want +50.0%%", got)
	}
	if got := FormatDelta(50, 100); got != "-50.0%" {
		t.Errorf("FormatDelta(50, 100) = %q, want -50.0%%", got)
	}
}

func TestFormatETAUnderAnHourIsMinutes(t *testing.T) {
	if got := FormatETA(45); got != "45m" {
		t.Errorf("FormatETA(45) = %q, want 45m", got)
	}
}

func TestFormatETABetweenOneHourAndOneDayIsHours(t *testing.T) {
	if got := FormatETA(180); got != "3.0h" {
		t.Errorf("FormatETA(180) = %q, want 3.0h", got)
	}
}

func TestFormatETAOverOneDayIsDays(t *testing.T) {
	if got := FormatETA(2880); got != "2.0d" {
		t.Errorf("FormatETA(2880) = %q, want 2.0d", got)
	}
}

func TestFormatETAUnboundedIsNA(t *testing.T) {
	if got := FormatETA(1e18); got != "n/a" {
		t.Errorf("FormatETA(+Inf-like) = %q, want n/a", got)
	}
}

func TestFormatETANegativeIsNA(t *testing.T) {
	if got := FormatETA(-1); got != "n/a" {
		t.Errorf("FormatETA(-1) = %q, want n/a", got)
	}
}
