package roi

import (
	"errors"
	"testing"
)

func TestRoundToDivisor(t *testing.T) {
	cases := []struct {
		name    string
		value   float64
		divisor int
		policy  RoundPolicy
		want    int
	}{
		{"ceil 7/5", 7, 5, RoundCeil, 10},
		{"floor 7/5", 7, 5, RoundFloor, 5},
		{"nearest 7/5", 7, 5, RoundNearest, 5},
		{"nearest 8/5", 8, 5, RoundNearest, 10},
		{"nearest tie rounds to even multiple", 25, 10, RoundNearest, 20},
		{"nearest tie above even multiple", 35, 10, RoundNearest, 40},
		{"nearest negative tie", -25, 10, RoundNearest, -20},
		{"exact multiple", 20, 5, RoundCeil, 20},
		{"zero value", 0, 8, RoundNearest, 0},
		{"negative floor", -7, 5, RoundFloor, -10},
		{"negative ceil", -7, 5, RoundCeil, -5},
		{"divisor one", 3.7, 1, RoundFloor, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RoundToDivisor(tc.value, tc.divisor, tc.policy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("RoundToDivisor(%v, %d, %s) = %d, want %d",
					tc.value, tc.divisor, tc.policy, got, tc.want)
			}
		})
	}
}

func TestRoundToDivisor_InvalidArguments(t *testing.T) {
	if _, err := RoundToDivisor(7, 0, RoundCeil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero divisor: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := RoundToDivisor(7, -5, RoundCeil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative divisor: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := RoundToDivisor(7, 5, RoundPolicy(42)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad policy: expected ErrInvalidArgument, got %v", err)
	}
}

func TestRoundSliceToDivisor(t *testing.T) {
	got, err := RoundSliceToDivisor([]float64{7, 8, 12.5, -3}, 5, RoundNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{5, 10, 10, -5}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %d, want %d", i, got[i], want[i])
		}
	}
}
