package lifecycle

import (
	"errors"
	"testing"

	"bharosepe/internal/models"
)

func TestApportionFull(t *testing.T) {
	br, sr, err := Apportion(models.ProposalReleaseFull, 1000, 1000)
	if err != nil || br != 0 || sr != 1000 {
		t.Errorf("release_full: got (%d, %d, %v)", br, sr, err)
	}

	br, sr, err = Apportion(models.ProposalRefundFull, 1000, 1000)
	if err != nil || br != 1000 || sr != 0 {
		t.Errorf("refund_full: got (%d, %d, %v)", br, sr, err)
	}

	if _, _, err := Apportion(models.ProposalReleaseFull, 500, 1000); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("full release below total: want ErrInvalidGuard, got %v", err)
	}
}

// Conservation must hold exactly for every partial amount in range.
func TestApportionPartialConservation(t *testing.T) {
	const total = 1000
	for _, pt := range []models.ProposalType{models.ProposalReleasePartial, models.ProposalRefundPartial} {
		for amount := int64(1); amount < total; amount++ {
			br, sr, err := Apportion(pt, amount, total)
			if err != nil {
				t.Fatalf("Apportion(%s, %d): %v", pt, amount, err)
			}
			if br+sr != total {
				t.Fatalf("Apportion(%s, %d): %d + %d != %d", pt, amount, br, sr, total)
			}
			if br < 0 || sr < 0 {
				t.Fatalf("Apportion(%s, %d): negative share", pt, amount)
			}
		}
	}
}

func TestApportionPartialBounds(t *testing.T) {
	cases := []int64{0, -1, 1000, 1500}
	for _, amount := range cases {
		if _, _, err := Apportion(models.ProposalReleasePartial, amount, 1000); !errors.Is(err, ErrInvalidGuard) {
			t.Errorf("partial %d: want ErrInvalidGuard, got %v", amount, err)
		}
	}
}

func TestApportionDirections(t *testing.T) {
	br, sr, err := Apportion(models.ProposalReleasePartial, 600, 1000)
	if err != nil || sr != 600 || br != 400 {
		t.Errorf("release_partial 600: got refund=%d release=%d err=%v", br, sr, err)
	}

	br, sr, err = Apportion(models.ProposalRefundPartial, 400, 1000)
	if err != nil || br != 400 || sr != 600 {
		t.Errorf("refund_partial 400: got refund=%d release=%d err=%v", br, sr, err)
	}
}

func TestApportionRejectsBadTotals(t *testing.T) {
	if _, _, err := Apportion(models.ProposalReleaseFull, 0, 0); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("zero total: want ErrInvalidGuard, got %v", err)
	}
	if _, _, err := Apportion(models.ProposalType("weird"), 100, 1000); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("unknown type: want ErrInvalidGuard, got %v", err)
	}
}
