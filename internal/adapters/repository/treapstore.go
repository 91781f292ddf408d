package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then competitor id ASC (deterministic). In-order
// traversal yields the standings from best to worst; subtree sizes give the
// number of competitors rated strictly higher in O(log n).

type record struct {
	name   string
	rating float64
	races  int
}

type node struct {
	id     string
	rating float64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aRating, aID) ranks before (bRating, bID).
func less(aRating float64, aID string, bRating float64, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.rating, fresh.id, n.rating, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case rating == n.rating && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	case less(rating, id, n.rating, n.id):
		n.left = deleteNode(n.left, id, rating)
	default:
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a rating strictly greater than r.
func countAbove(n *node, r float64) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in standings order.
func collectTopN(n *node, limit int, byID map[string]record, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		rec := byID[n.id]
		*out = append(*out, types.Entry{CompetitorID: n.id, Name: rec.name, Rating: rec.rating, Races: rec.races})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore is safe for concurrent use.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	seed uint64
	rng  *rand.Rand
}

// NewTreapStore constructs an empty standings store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{byID: make(map[string]record)}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == 0 {
		s.seed = rand.Uint64()
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	return s
}

func validStanding(st Standing) error {
	if st.CompetitorID == "" {
		return ErrEmptyID
	}
	if math.IsNaN(st.Rating) || math.IsInf(st.Rating, 0) {
		return fmt.Errorf("%w: %s", ErrInvalidRating, st.CompetitorID)
	}
	return nil
}

// Replace implements Store.Replace.
func (s *TreapStore) Replace(_ context.Context, entries []Standing) error {
	for _, st := range entries {
		if err := validStanding(st); err != nil {
			metrics.RecordErrorByComponent("repository", "invalid_standing")
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = nil
	s.byID = make(map[string]record, len(entries))
	for _, st := range entries {
		s.upsertLocked(st)
	}
	return nil
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, st Standing) error {
	if err := validStanding(st); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_standing")
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(st)
	return nil
}

func (s *TreapStore) upsertLocked(st Standing) {
	if old, ok := s.byID[st.CompetitorID]; ok {
		s.root = deleteNode(s.root, st.CompetitorID, old.rating)
	}
	s.byID[st.CompetitorID] = record{name: st.Name, rating: st.Rating, races: st.Races}
	s.root = insert(s.root, &node{id: st.CompetitorID, rating: st.Rating, prio: s.rng.Uint64(), size: 1})
}

// Rank implements Store.Rank in O(log n) expected time.
func (s *TreapStore) Rank(_ context.Context, competitorID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[competitorID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, competitorID)
	}
	return types.Entry{
		Rank:         countAbove(s.root, rec.rating) + 1,
		CompetitorID: competitorID,
		Name:         rec.name,
		Rating:       rec.rating,
		Races:        rec.races,
	}, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if size := nsize(s.root); n > size {
		n = size
	}
	out := make([]types.Entry, 0, n)
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies gives equal ratings the same rank; the next distinct
// rating takes its 1-based position. entries must start at the top.
func assignRanksWithTies(entries []types.Entry) {
	for i := range entries {
		if i > 0 && entries[i].Rating == entries[i-1].Rating {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
