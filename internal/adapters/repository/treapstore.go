package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/metrics"
)

// Treap-based, in-memory Store. Each job has its own treap whose in-order
// traversal is the shortlist: eligible first, score DESC, candidate id ASC
// (see types.Entry.Before). Nodes carry subtree sizes so Rank is O(log n).

type node struct {
	entry types.Entry
	prio  uint64
	left  *node
	right *node
	size  int
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

func insert(n *node, e types.Entry, prio uint64) *node {
	if n == nil {
		return &node{entry: e, prio: prio, size: 1}
	}
	if e.Before(n.entry) {
		n.left = insert(n.left, e, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, e, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, e types.Entry) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.entry.CandidateID == e.CandidateID:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, e)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, e)
		}
	case e.Before(n.entry):
		n.left = deleteNode(n.left, e)
	default:
		n.right = deleteNode(n.right, e)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order index of e, which must be in the tree.
func position(n *node, e types.Entry) int {
	pos := 0
	for n != nil {
		switch {
		case n.entry.CandidateID == e.CandidateID:
			return pos + nsize(n.left) + 1
		case e.Before(n.entry):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collect appends up to limit entries in shortlist order.
func collect(n *node, limit int, eligibleOnly bool, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, eligibleOnly, out)
	if len(*out) >= limit || (eligibleOnly && !n.entry.Eligible) {
		return
	}
	e := n.entry
	e.Rank = len(*out) + 1
	*out = append(*out, e)
	collect(n.right, limit, eligibleOnly, out)
}

type shortlist struct {
	root *node
	byID map[string]types.Entry
}

// TreapStore implements Store.
type TreapStore struct {
	mu    sync.RWMutex
	lists map[string]*shortlist

	nextPrio              func() uint64
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		lists:                 make(map[string]*shortlist),
		nextPrio:              rand.Uint64,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops background goroutines.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, jobID string, e types.Entry) (bool, error) {
	if jobID == "" || e.CandidateID == "" {
		return false, fmt.Errorf("%w: job and candidate ids are required", ErrInvalidEntry)
	}
	start := time.Now()
	defer func() {
		metrics.RecordShortlistUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	e.Rank = 0

	s.mu.Lock()
	sl, ok := s.lists[jobID]
	if !ok {
		sl = &shortlist{byID: make(map[string]types.Entry)}
		s.lists[jobID] = sl
	}
	old, existed := sl.byID[e.CandidateID]
	if existed {
		sl.root = deleteNode(sl.root, old)
	}
	sl.byID[e.CandidateID] = e
	sl.root = insert(sl.root, e, s.nextPrio())
	s.mu.Unlock()

	metrics.RecordShortlistUpdate()
	return !existed, nil
}

// Rank implements Store.Rank in O(log n) expected time.
func (s *TreapStore) Rank(_ context.Context, jobID, candidateID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordShortlistQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.lists[jobID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	e, ok := sl.byID[candidateID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("candidate %q for job %q: %w", candidateID, jobID, ErrNotFound)
	}
	e.Rank = position(sl.root, e)
	return e, nil
}

// TopN implements Store.TopN. An unknown job has an empty shortlist.
func (s *TreapStore) TopN(_ context.Context, jobID string, n int, eligibleOnly bool) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordShortlistQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.lists[jobID]
	if !ok {
		return []types.Entry{}, nil
	}
	out := make([]types.Entry, 0, min(n, len(sl.byID)))
	collect(sl.root, n, eligibleOnly, &out)
	return out, nil
}

// Count returns the number of candidates on a job's shortlist.
func (s *TreapStore) Count(_ context.Context, jobID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl, ok := s.lists[jobID]; ok {
		return len(sl.byID)
	}
	return 0
}

// Jobs returns job ids in sorted order.
func (s *TreapStore) Jobs(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.lists))
	for id := range s.lists {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Totals returns the number of entries across all jobs and the number of jobs.
func (s *TreapStore) Totals() (entries, jobs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.lists {
		entries += len(sl.byID)
	}
	return entries, len(s.lists)
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateShortlistTotals(s.Totals())
			}
		}
	}()
}
