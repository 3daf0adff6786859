// Package streamsummary implements the Space-Saving top-K heavy hitter
// estimator of Metwally, Agrawal and El Abbadi.
//
// A summary tracks at most capacity items regardless of stream length. Items
// sharing a count are grouped into a bucket; buckets are kept in a tree
// ordered by count so the minimum-frequency victim is found in O(log B),
// where B is the number of distinct counts present. Moving an item between
// buckets is O(1) through the node handle stored on the item.
//
// For any tracked item, Count overestimates the true occurrence count by at
// most Epsilon, and after N observations every item whose true frequency
// exceeds N/capacity is guaranteed to be tracked.
package streamsummary

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/btree"

	"github.com/bazhenov/fast-estimate/pkg/orderedlist"
)

// ErrZeroCapacity indicates a summary constructed with capacity zero.
var ErrZeroCapacity = errors.New("streamsummary: capacity must be at least 1")

// bucketDegree is the btree branching factor; B stays small (at most
// capacity distinct counts), so a low degree is fine.
const bucketDegree = 4

// Item is a snapshot of one tracked line.
//
// Count - Epsilon <= true count <= Count. Epsilon is zero for an item that
// was never inserted over an evicted victim.
type Item struct {
	Data    string
	Count   uint64
	Epsilon uint64
}

// tracked is the live record behind an Item. node addresses the item's
// position inside the bucket for its current count.
type tracked struct {
	data    string
	count   uint64
	epsilon uint64
	node    *orderedlist.Node
}

// bucket holds the keys of all items currently sharing one count.
type bucket struct {
	count uint64
	items *orderedlist.List
}

func bucketLess(a, b *bucket) bool {
	return a.count < b.count
}

// Summary is a bounded-memory top-K estimator. It is not safe for
// concurrent use.
type Summary struct {
	capacity  int
	monitored map[string]*tracked
	buckets   *btree.BTreeG[*bucket]
	observed  uint64
}

// New returns an empty summary tracking at most capacity items.
func New(capacity int) (*Summary, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrZeroCapacity, capacity)
	}

	return &Summary{
		capacity:  capacity,
		monitored: make(map[string]*tracked, capacity),
		buckets:   btree.NewG(bucketDegree, bucketLess),
	}, nil
}

// Offer observes one occurrence of line and returns the count now stored
// for it. For a line that displaced a tracked item the return value is 1,
// the occurrences of this line itself, even though the stored count
// inherits the victim's overestimate.
func (s *Summary) Offer(line string) uint64 {
	s.observed++

	// Already tracked: move it up one bucket.
	if item, ok := s.monitored[line]; ok {
		s.unlink(item)
		item.count++
		item.node = s.link(item.count, line)

		return item.count
	}

	// Room available: start tracking at count 1.
	if len(s.monitored) < s.capacity {
		item := &tracked{data: line, count: 1}
		item.node = s.link(1, line)
		s.monitored[line] = item

		return 1
	}

	// At capacity: replace the least frequent item. The new line inherits
	// the victim's count as an overestimate, recorded in epsilon.
	victim := s.evictMin()

	item := &tracked{data: line, count: victim.count + 1, epsilon: victim.count}
	item.node = s.link(item.count, line)
	s.monitored[line] = item

	return 1
}

// Top returns a snapshot of every tracked item sorted by descending count.
// Tie order is arbitrary but consistent within the returned slice. Top does
// not mutate the summary.
func (s *Summary) Top() []Item {
	items := make([]Item, 0, len(s.monitored))
	for _, item := range s.monitored {
		items = append(items, Item{Data: item.data, Count: item.count, Epsilon: item.epsilon})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})

	return items
}

// Len returns the number of currently tracked items.
func (s *Summary) Len() int {
	return len(s.monitored)
}

// Observed returns the total number of offers seen.
func (s *Summary) Observed() uint64 {
	return s.observed
}

// evictMin removes the head of the minimum-count bucket from the summary
// and returns its record.
func (s *Summary) evictMin() *tracked {
	min, ok := s.buckets.Min()
	if !ok {
		panic("streamsummary: summary at capacity has no buckets")
	}

	key, ok := min.items.PopFront()
	if !ok {
		panic(fmt.Sprintf("streamsummary: empty bucket for count %d", min.count))
	}

	if min.items.Empty() {
		s.buckets.Delete(min)
	}

	victim, ok := s.monitored[key]
	if !ok {
		panic(fmt.Sprintf("streamsummary: bucket entry %q has no monitored item", key))
	}

	delete(s.monitored, key)
	victim.node = nil

	return victim
}

// unlink removes item from the bucket for its current count, dropping the
// bucket once it empties.
func (s *Summary) unlink(item *tracked) {
	b, ok := s.buckets.Get(&bucket{count: item.count})
	if !ok {
		panic(fmt.Sprintf("streamsummary: missing bucket for count %d", item.count))
	}

	b.items.Remove(item.node)
	item.node = nil

	if b.items.Empty() {
		s.buckets.Delete(b)
	}
}

// link appends line to the bucket for count, creating the bucket if absent,
// and returns the node handle.
func (s *Summary) link(count uint64, line string) *orderedlist.Node {
	b, ok := s.buckets.Get(&bucket{count: count})
	if !ok {
		b = &bucket{count: count, items: orderedlist.New()}
		s.buckets.ReplaceOrInsert(b)
	}

	return b.items.PushBack(line)
}
