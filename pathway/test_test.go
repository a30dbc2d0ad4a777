package pathway

import (
	"math"
	"testing"

	"github.com/scmetab/scmetab"
)

func TestWelchTester(t *testing.T) {
	a := []float64{2.1, 2.3, 2.0, 2.4, 2.2}
	b := []float64{1.0, 1.2, 0.9, 1.1, 1.0}

	res, err := WelchTester{}.Test(a, b)
	if err != nil {
		t.Fatal(err)
	}

	if res.Effect <= 0 {
		t.Errorf("effect: %v", res.Effect)
	}
	if res.TStat <= 0 {
		t.Errorf("t: %v", res.TStat)
	}
	if res.PValue <= 0 || res.PValue >= 0.01 {
		t.Errorf("p: %v", res.PValue)
	}
	if res.FisherP <= 0 || res.FisherP > 1 {
		t.Errorf("fisher p: %v", res.FisherP)
	}
}

func TestWelchTesterSymmetric(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{4, 3, 2, 1}

	res, err := WelchTester{}.Test(a, b)
	if err != nil {
		t.Fatal(err)
	}

	if res.Effect != 0 {
		t.Errorf("effect: %v", res.Effect)
	}
	if res.TStat != 0 {
		t.Errorf("t: %v", res.TStat)
	}
	if math.Abs(res.PValue-1) > 1e-12 {
		t.Errorf("p: %v", res.PValue)
	}
}

func TestWelchTesterConstantSides(t *testing.T) {
	res, err := WelchTester{}.Test([]float64{2, 2, 2}, []float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	if res.PValue != 1 {
		t.Errorf("p: %v", res.PValue)
	}
	if res.Effect != 1 {
		t.Errorf("effect: %v", res.Effect)
	}
}

func TestWelchTesterTooFewObservations(t *testing.T) {
	if _, err := (WelchTester{}).Test([]float64{1}, []float64{1, 2, 3}); !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestAdjustBH(t *testing.T) {
	in := []float64{0.01, 0.04, 0.03, 0.005}
	out := AdjustBH(in)

	// R: p.adjust(c(0.01, 0.04, 0.03, 0.005), method = "BH")
	want := []float64{0.02, 0.04, 0.04, 0.02}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: got %v want %v", i, out[i], want[i])
		}
	}
}

func TestAdjustBHEmpty(t *testing.T) {
	if out := AdjustBH(nil); out != nil {
		t.Errorf("got %v", out)
	}
}

func TestAdjustBHMonotone(t *testing.T) {
	out := AdjustBH([]float64{0.5, 0.5, 0.5})
	for i, p := range out {
		if p != 0.5 {
			t.Errorf("index %d: %v", i, p)
		}
	}
}
