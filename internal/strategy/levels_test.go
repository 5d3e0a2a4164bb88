package strategy

import (
	"math/rand"
	"sort"
	"testing"

	"SwingScreener/internal/model"
)

func detection(close, atr float64, supports, resistances []float64) model.Detection {
	return model.Detection{
		Passed:      true,
		Latest:      model.Snapshot{Close: close, ATR: model.Some(atr)},
		Supports:    supports,
		Resistances: resistances,
	}
}

func TestComputeLevels_SupportAndResistance(t *testing.T) {
	det := detection(97, 2, []float64{95}, []float64{110})
	plan, ok := ComputeLevels(det, DefaultParams())
	if !ok {
		t.Fatal("expected a plan")
	}

	// Support at 95 is 2.1% below the close, too far to snap the entry.
	if plan.Entry != 97 {
		t.Errorf("expected entry 97, got %.2f", plan.Entry)
	}
	// max(97 - 1.5*2, 95*0.995) = 94.525
	if !approx(plan.StopLoss, 94.525, 0.0051) {
		t.Errorf("expected stop ~94.525, got %.2f", plan.StopLoss)
	}
	if !approx(plan.Target1, 101.95, 0.011) {
		t.Errorf("expected target_1 ~101.95, got %.2f", plan.Target1)
	}
	if plan.Target2 != 110 || plan.PrimaryTarget != 110 {
		t.Errorf("expected target_2 and primary 110, got %.2f / %.2f", plan.Target2, plan.PrimaryTarget)
	}
	if !approx(plan.RiskReward, 5.25, 0.011) {
		t.Errorf("expected R:R ~5.25, got %.2f", plan.RiskReward)
	}
}

func TestComputeLevels_EntrySnapsToSupport(t *testing.T) {
	det := detection(100.5, 2, []float64{100}, nil)
	plan, ok := ComputeLevels(det, DefaultParams())
	if !ok {
		t.Fatal("expected a plan")
	}
	if plan.Entry != 100 {
		t.Errorf("expected entry to snap to 100, got %.2f", plan.Entry)
	}
	// No support below entry*0.99, so the ATR stop applies.
	if plan.StopLoss != 97 {
		t.Errorf("expected stop 97, got %.2f", plan.StopLoss)
	}
	// No resistance: target_2 = target_1 * 1.02
	if plan.Target1 != 106 || plan.Target2 != 108.12 {
		t.Errorf("expected targets 106 / 108.12, got %.2f / %.2f", plan.Target1, plan.Target2)
	}
	if plan.PrimaryTarget != plan.Target2 {
		t.Errorf("expected primary = target_2, got %.2f", plan.PrimaryTarget)
	}
}

func TestComputeLevels_NoPlan(t *testing.T) {
	p := DefaultParams()

	missingATR := model.Detection{Latest: model.Snapshot{Close: 100, ATR: model.None()}}
	if _, ok := ComputeLevels(missingATR, p); ok {
		t.Error("missing ATR should yield no plan")
	}

	zeroATR := detection(100, 0, nil, nil)
	if _, ok := ComputeLevels(zeroATR, p); ok {
		t.Error("zero ATR should yield no plan")
	}

	// Risk of 0.0015 rounds to zero.
	tinyATR := detection(100, 0.001, nil, nil)
	if _, ok := ComputeLevels(tinyATR, p); ok {
		t.Error("risk that rounds to zero should yield no plan")
	}
}

func TestComputeLevels_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	p := DefaultParams()
	for i := 0; i < 500; i++ {
		close := 20 + r.Float64()*980
		atr := close * (0.005 + r.Float64()*0.05)
		var supports, resistances []float64
		for j := 0; j < 3; j++ {
			supports = append(supports, close*(0.85+r.Float64()*0.15))
			resistances = append(resistances, close*(1+r.Float64()*0.2))
		}
		det := detection(close, atr, sortedCopy(supports), sortedCopy(resistances))

		plan, ok := ComputeLevels(det, p)
		if !ok {
			continue
		}
		if plan.StopLoss >= plan.Entry {
			t.Fatalf("case %d: stop %.2f not below entry %.2f", i, plan.StopLoss, plan.Entry)
		}
		if plan.Entry > model.Round(close, 2) {
			t.Fatalf("case %d: entry %.2f above close %.2f", i, plan.Entry, close)
		}
		if plan.PrimaryTarget < plan.Target1 || plan.PrimaryTarget < plan.Target2 {
			t.Fatalf("case %d: primary %.2f below a target", i, plan.PrimaryTarget)
		}
		if plan.RiskReward < p.MinRiskReward {
			t.Fatalf("case %d: R:R %.2f below minimum", i, plan.RiskReward)
		}
	}
}

func sortedCopy(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	return out
}
