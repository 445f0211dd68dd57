package sim

import "testing"

func TestRangeSource_StaysWithinBounds(t *testing.T) {
	source := NewRangeSource(20.0, 15.0, 25.0, 50.0) // huge variation forces clamping

	for i := 0; i < 200; i++ {
		v, err := source.Sample()
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		value, ok := v.(float64)
		if !ok {
			t.Fatalf("Sample returned %T, want float64", v)
		}
		if value < 15.0 || value > 25.0 {
			t.Fatalf("sample %d escaped bounds: %v", i, value)
		}
	}
}

func TestRangeSource_InitialValueClamped(t *testing.T) {
	source := NewRangeSource(200.0, 0.0, 100.0, 10.0)

	if got := source.Value(); got != 100.0 {
		t.Errorf("Value() = %v, want clamped 100.0", got)
	}
}

func TestRangeSource_ShiftClamps(t *testing.T) {
	source := NewRangeSource(24.0, 15.0, 25.0, 2.0)

	source.Shift(0.5)
	if got := source.Value(); got != 24.5 {
		t.Errorf("Value() after shift = %v, want 24.5", got)
	}

	source.Shift(10.0)
	if got := source.Value(); got != 25.0 {
		t.Errorf("Value() after oversized shift = %v, want clamped 25.0", got)
	}

	source.Shift(-100.0)
	if got := source.Value(); got != 15.0 {
		t.Errorf("Value() after negative shift = %v, want clamped 15.0", got)
	}
}

func TestMotionSource_ProbabilityExtremes(t *testing.T) {
	never := NewMotionSource(0.0)
	always := NewMotionSource(1.0)

	for i := 0; i < 100; i++ {
		v, _ := never.Sample()
		if v != false {
			t.Fatal("probability 0.0 must never report motion")
		}

		v, _ = always.Sample()
		if v != true {
			t.Fatal("probability 1.0 must always report motion")
		}
	}
}
