package config

// PlanLimits is a named usage budget. A zero TokenLimit/CostLimit paired
// with its Unlimited flag means that metric has no ceiling. The "custom"
// plan's TokenLimit is not user input - it is overwritten each tick with
// the P90 calculator's output.
type PlanLimits struct {
	Name              string
	TokenLimit        int64
	TokenUnlimited    bool
	CostLimit         float64
	CostUnlimited     bool
	WarningThresholds [4]int
}

var defaultThresholds = [4]int{50, 75, 90, 95}

// Named plan presets. Token limits are in raw tokens per session block;
// cost limits in USD.
var (
	PlanFree = PlanLimits{Name: "free", TokenLimit: 40_000, CostLimit: 0, WarningThresholds: defaultThresholds}
	PlanPAYG = PlanLimits{Name: "payg", TokenUnlimited: true, CostLimit: 50.00, WarningThresholds: defaultThresholds}
	PlanTier1 = PlanLimits{Name: "tier1", TokenLimit: 44_000, CostLimit: 5.00, WarningThresholds: defaultThresholds}
	PlanTier2 = PlanLimits{Name: "tier2", TokenLimit: 88_000, CostLimit: 20.00, WarningThresholds: defaultThresholds}
	PlanPro   = PlanLimits{Name: "pro", TokenLimit: 44_000, CostLimit: 18.00, WarningThresholds: defaultThresholds}
	PlanMax5  = PlanLimits{Name: "max5", TokenLimit: 88_000, CostLimit: 35.00, WarningThresholds: defaultThresholds}
	PlanMax20 = PlanLimits{Name: "max20", TokenLimit: 220_000, CostLimit: 140.00, WarningThresholds: defaultThresholds}
)

// NamedPlans indexes the fixed presets by name; "custom" is handled
// separately since its token limit is computed, not looked up.
var NamedPlans = map[string]PlanLimits{
	PlanFree.Name:  PlanFree,
	PlanPAYG.Name:  PlanPAYG,
	PlanTier1.Name: PlanTier1,
	PlanTier2.Name: PlanTier2,
	PlanPro.Name:   PlanPro,
	PlanMax5.Name:  PlanMax5,
	PlanMax20.Name: PlanMax20,
}

// CustomPlan builds the "custom" plan's limits: token_limit comes from the
// P90 calculator (tokenLimit), while cost_limit remains whatever the user
// specified via --custom-limit-cost. Only the token ceiling is P90-derived.
func CustomPlan(tokenLimit int64, costLimit float64, costUnlimited bool) PlanLimits {
	return PlanLimits{
		Name:              "custom",
		TokenLimit:        tokenLimit,
		CostLimit:         costLimit,
		CostUnlimited:     costUnlimited,
		WarningThresholds: defaultThresholds,
	}
}

// ResolvePlan returns the named preset, or, if name is "custom", a
// CustomPlan built from the given token and cost limits.
func ResolvePlan(name string, customTokenLimit int64, customCostLimit float64, customCostUnlimited bool) (PlanLimits, bool) {
	if name == "custom" {
		return CustomPlan(customTokenLimit, customCostLimit, customCostUnlimited), true
	}
	p, ok := NamedPlans[name]
	return p, ok
}
