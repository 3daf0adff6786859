package streamsummary

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestZeroCapacityFailsConstruction(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	if !errors.Is(err, ErrZeroCapacity) {
		t.Errorf("New(0) error = %v, want ErrZeroCapacity", err)
	}
}

func TestFirstOccurrence(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 1000)

	if got := summary.Offer("Hello"); got != 1 {
		t.Errorf(`Offer("Hello") = %d, want 1`, got)
	}

	want := []Item{{Data: "Hello", Count: 1, Epsilon: 0}}
	if diff := cmp.Diff(want, summary.Top()); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatedOccurrencesCountUp(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 1000)

	for i := uint64(1); i <= 10; i++ {
		if got := summary.Offer("Hello"); got != i {
			t.Errorf("offer %d returned %d, want %d", i, got, i)
		}
	}
}

func TestTopIsSortedByDescendingCount(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 1000)
	summary.Offer("Hello")
	summary.Offer("world")
	summary.Offer("world")

	want := []Item{
		{Data: "world", Count: 2, Epsilon: 0},
		{Data: "Hello", Count: 1, Epsilon: 0},
	}
	if diff := cmp.Diff(want, summary.Top()); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}
}

func TestEvictionInheritsVictimCount(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 2)

	for i := 0; i < 4; i++ {
		summary.Offer("foo")
	}

	summary.Offer("bar")
	summary.Offer("bar")

	// baz displaces bar (count 2): it starts at count 3 with the whole
	// victim count as possible overestimate.
	if got := summary.Offer("baz"); got != 1 {
		t.Errorf(`Offer("baz") = %d, want 1`, got)
	}

	want := []Item{
		{Data: "foo", Count: 4, Epsilon: 0},
		{Data: "baz", Count: 3, Epsilon: 2},
	}
	if diff := cmp.Diff(want, summary.Top()); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}
}

func TestUnboundedStreamStaysAtCapacity(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 2)

	for i := 1; i <= 99; i++ {
		summary.Offer(fmt.Sprintf("%d", i))
		checkInvariants(t, summary)
	}

	if summary.Len() != 2 {
		t.Errorf("Len() = %d, want 2", summary.Len())
	}

	for _, item := range summary.Top() {
		if item.Epsilon < 1 {
			t.Errorf("item %q epsilon = %d, want >= 1", item.Data, item.Epsilon)
		}
	}
}

func TestCapacityAndErrorBounds(t *testing.T) {
	t.Parallel()

	// A skewed deterministic stream: "hot" dominates, the tail churns.
	const capacity = 8

	summary := mustNew(t, capacity)
	trueCounts := map[string]uint64{}

	offer := func(line string) {
		summary.Offer(line)
		trueCounts[line]++

		require.LessOrEqual(t, summary.Len(), capacity)
	}

	for i := 0; i < 400; i++ {
		offer("hot")

		if i%2 == 0 {
			offer("warm")
		}

		offer(fmt.Sprintf("cold-%d", i%97))
	}

	checkInvariants(t, summary)

	var observed uint64
	for _, n := range trueCounts {
		observed += n
	}
	require.Equal(t, observed, summary.Observed())

	var lowerBoundSum uint64

	snapshot := map[string]Item{}
	for _, item := range summary.Top() {
		snapshot[item.Data] = item
		lowerBoundSum += item.Count - item.Epsilon

		// count - epsilon <= true <= count for every tracked item.
		require.GreaterOrEqual(t, item.Count, trueCounts[item.Data],
			"count must not underestimate %q", item.Data)
		require.LessOrEqual(t, item.Count-item.Epsilon, trueCounts[item.Data],
			"count-epsilon must not overestimate %q", item.Data)
	}

	// The guaranteed-count mass cannot exceed the stream length.
	require.LessOrEqual(t, lowerBoundSum, observed)

	// Anything with true frequency above N/capacity must be tracked.
	threshold := observed / capacity
	for line, n := range trueCounts {
		if n > threshold {
			require.Contains(t, snapshot, line,
				"heavy hitter %q (count %d > %d) must be tracked", line, n, threshold)
		}
	}
}

func TestTopDoesNotMutate(t *testing.T) {
	t.Parallel()

	summary := mustNew(t, 4)
	summary.Offer("a")
	summary.Offer("a")
	summary.Offer("b")

	first := summary.Top()
	second := summary.Top()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Top() calls differ (-first +second):\n%s", diff)
	}

	if got := summary.Offer("a"); got != 3 {
		t.Errorf(`Offer("a") after Top() = %d, want 3`, got)
	}
}

func mustNew(t *testing.T, capacity int) *Summary {
	t.Helper()

	summary, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}

	return summary
}

// checkInvariants verifies the bucket bookkeeping: every item's handle sits
// in the bucket for its count, buckets are never empty, and bucket contents
// exactly cover the monitored set.
func checkInvariants(t *testing.T, s *Summary) {
	t.Helper()

	for key, item := range s.monitored {
		require.Equal(t, key, item.data)
		require.GreaterOrEqual(t, item.count, uint64(1))
		require.GreaterOrEqual(t, item.count, item.epsilon)
		require.NotNil(t, item.node)
		require.Equal(t, key, item.node.Value())

		b, ok := s.buckets.Get(&bucket{count: item.count})
		require.True(t, ok, "bucket for count %d must exist", item.count)
		require.Contains(t, b.items.Values(), key)
	}

	total := 0
	prev := uint64(0)

	s.buckets.Ascend(func(b *bucket) bool {
		require.False(t, b.items.Empty(), "bucket %d must not be empty", b.count)
		require.Greater(t, b.count, prev)

		prev = b.count
		total += b.items.Len()

		return true
	})

	require.Equal(t, len(s.monitored), total)
}
