package linearcount

import (
	"errors"
	"fmt"
	"testing"
)

func TestPopCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word uint32
		want uint32
	}{
		{0x00000000, 0},
		{0xFFFFFFFF, 32},
		{0xFF0F0F00, 16},
		{0x00000001, 1},
		{0x80000000, 1},
	}

	for _, testCase := range tests {
		got := popCount(testCase.word)
		if got != testCase.want {
			t.Errorf("popCount(%#08x) = %d, want %d", testCase.word, got, testCase.want)
		}
	}
}

func TestEmptyCounterEstimatesZero(t *testing.T) {
	t.Parallel()

	counter, err := New(1000)
	if err != nil {
		t.Fatal(err)
	}

	if got := counter.Estimate(); got != 0 {
		t.Errorf("Estimate() = %d, want 0", got)
	}

	if got := counter.popCount(); got != 0 {
		t.Errorf("popCount() = %d, want 0", got)
	}
}

func TestSmallDistinctCountsAreExact(t *testing.T) {
	t.Parallel()

	for i := 1; i <= 9; i++ {
		counter, err := New(1_000_000)
		if err != nil {
			t.Fatal(err)
		}

		for j := 0; j < i; j++ {
			counter.Offer(fmt.Sprintf("str%d", j))
		}

		if got := counter.Estimate(); got != uint32(i) {
			t.Errorf("Estimate() after %d distinct offers = %d, want %d", i, got, i)
		}
	}
}

func TestSmallDistinctCountsAreExactWithXXHash(t *testing.T) {
	t.Parallel()

	for i := 1; i <= 9; i++ {
		counter, err := NewWithHash(1_000_000, XXHash)
		if err != nil {
			t.Fatal(err)
		}

		for j := 0; j < i; j++ {
			counter.Offer(fmt.Sprintf("str%d", j))
		}

		if got := counter.Estimate(); got != uint32(i) {
			t.Errorf("Estimate() after %d distinct offers = %d, want %d", i, got, i)
		}
	}
}

func TestOfferIsIdempotent(t *testing.T) {
	t.Parallel()

	counter, err := New(1000)
	if err != nil {
		t.Fatal(err)
	}

	counter.Offer("Hello")
	once := counter.popCount()

	counter.Offer("Hello")
	twice := counter.popCount()

	if once != 1 || twice != 1 {
		t.Errorf("popCount after repeated offer = %d, %d, want 1, 1", once, twice)
	}
}

func TestPopCountNeverDecreases(t *testing.T) {
	t.Parallel()

	counter, err := New(64)
	if err != nil {
		t.Fatal(err)
	}

	var prev uint32

	for i := 0; i < 1000; i++ {
		counter.Offer(fmt.Sprintf("line-%d", i%137))

		current := counter.popCount()
		if current < prev {
			t.Fatalf("popCount decreased from %d to %d after offer %d", prev, current, i)
		}

		prev = current
	}
}

func TestOversizeBitmapFailsConstruction(t *testing.T) {
	t.Parallel()

	_, err := New(MaxWords + 1)
	if !errors.Is(err, ErrOversizeBitmap) {
		t.Errorf("New(MaxWords+1) error = %v, want ErrOversizeBitmap", err)
	}
}

func TestOccupancy(t *testing.T) {
	t.Parallel()

	counter, err := New(1)
	if err != nil {
		t.Fatal(err)
	}

	if got := counter.Occupancy(); got != 0 {
		t.Errorf("Occupancy() = %v, want 0", got)
	}

	counter.Offer("Hello")

	if got := counter.Occupancy(); got != 1.0/32 {
		t.Errorf("Occupancy() = %v, want 1/32", got)
	}
}
