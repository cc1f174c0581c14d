package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/placement/internal/domain/types"
)

func entry(id string, score float64, eligible bool) types.Entry {
	return types.Entry{CandidateID: id, Score: score, Eligible: eligible, Verdict: "High"}
}

func newStore(t *testing.T) *TreapStore {
	t.Helper()
	s := NewTreapStore(context.Background(), WithMetricsUpdateInterval(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if count := store.Count(ctx, "job1"); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	added, err := store.Upsert(ctx, "job1", entry("c1", 85.5, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Error("expected first upsert to add the candidate")
	}
	if count := store.Count(ctx, "job1"); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	e, err := store.Rank(ctx, "job1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Rank != 1 {
		t.Errorf("expected rank 1, got %d", e.Rank)
	}
	if e.Score != 85.5 {
		t.Errorf("expected score 85.5, got %f", e.Score)
	}

	entries, err := store.TopN(ctx, "job1", 10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].CandidateID != "c1" {
		t.Errorf("expected [c1], got %+v", entries)
	}
}

func TestTreapStore_LatestScreeningReplaces(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.Upsert(ctx, "job1", entry("c1", 90, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Upsert(ctx, "job1", entry("c2", 60, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A lower re-screen still replaces the previous result.
	added, err := store.Upsert(ctx, "job1", entry("c1", 40, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("expected re-screen to replace, not add")
	}
	if count := store.Count(ctx, "job1"); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	e, _ := store.Rank(ctx, "job1", "c1")
	if e.Rank != 2 || e.Score != 40 {
		t.Errorf("expected c1 at rank 2 with 40, got rank %d score %f", e.Rank, e.Score)
	}
	e, _ = store.Rank(ctx, "job1", "c2")
	if e.Rank != 1 {
		t.Errorf("expected c2 at rank 1, got %d", e.Rank)
	}
}

func TestTreapStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	in := []types.Entry{
		entry("d", 95, false),
		entry("b", 70, true),
		entry("a", 70, true),
		entry("c", 88, true),
		entry("e", 20, false),
	}
	for _, e := range in {
		if _, err := store.Upsert(ctx, "job1", e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := store.TopN(ctx, "job1", 10, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c", "a", "b", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].CandidateID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].CandidateID)
		}
		if got[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, got[i].Rank)
		}
		r, err := store.Rank(ctx, "job1", id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Rank != i+1 {
			t.Errorf("Rank(%s): expected %d, got %d", id, i+1, r.Rank)
		}
	}
}

func TestTreapStore_EligibleOnly(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, _ = store.Upsert(ctx, "job1", entry("x", 99, false))
	_, _ = store.Upsert(ctx, "job1", entry("y", 50, true))
	_, _ = store.Upsert(ctx, "job1", entry("z", 45, true))

	got, err := store.TopN(ctx, "job1", 10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].CandidateID != "y" || got[1].CandidateID != "z" {
		t.Errorf("expected [y z], got %+v", got)
	}

	got, _ = store.TopN(ctx, "job1", 1, false)
	if len(got) != 1 || got[0].CandidateID != "y" {
		t.Errorf("expected [y], got %+v", got)
	}
}

func TestTreapStore_JobsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, _ = store.Upsert(ctx, "job-b", entry("c1", 10, true))
	_, _ = store.Upsert(ctx, "job-a", entry("c1", 90, true))
	_, _ = store.Upsert(ctx, "job-a", entry("c2", 80, true))

	if n := store.Count(ctx, "job-a"); n != 2 {
		t.Errorf("expected 2 on job-a, got %d", n)
	}
	if n := store.Count(ctx, "job-b"); n != 1 {
		t.Errorf("expected 1 on job-b, got %d", n)
	}
	e, _ := store.Rank(ctx, "job-b", "c1")
	if e.Score != 10 {
		t.Errorf("expected job-b score 10, got %f", e.Score)
	}
	jobs := store.Jobs(ctx)
	if len(jobs) != 2 || jobs[0] != "job-a" || jobs[1] != "job-b" {
		t.Errorf("expected [job-a job-b], got %v", jobs)
	}
	entries, njobs := store.Totals()
	if entries != 3 || njobs != 2 {
		t.Errorf("expected totals 3/2, got %d/%d", entries, njobs)
	}
}

func TestTreapStore_EdgeCases(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.Rank(ctx, "missing", "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown job, got %v", err)
	}
	_, _ = store.Upsert(ctx, "job1", entry("c1", 10, true))
	if _, err := store.Rank(ctx, "job1", "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown candidate, got %v", err)
	}
	for _, n := range []int{0, -3} {
		if _, err := store.TopN(ctx, "job1", n, false); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("TopN(%d): expected ErrInvalidLimit, got %v", n, err)
		}
	}
	got, err := store.TopN(ctx, "missing", 5, false)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty shortlist for unknown job, got %v, %v", got, err)
	}
	if _, err := store.Upsert(ctx, "", entry("c1", 1, true)); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry for empty job id, got %v", err)
	}
	if _, err := store.Upsert(ctx, "job1", entry("", 1, true)); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry for empty candidate id, got %v", err)
	}
}

func TestTreapStore_RankCorrectnessUnderStress(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	var seq uint64
	store := NewTreapStore(ctx, WithPriorities(func() uint64 { seq++; return rng.Uint64() ^ seq }))
	defer store.Close()

	latest := make(map[string]types.Entry)
	for i := 0; i < 3000; i++ {
		id := fmt.Sprintf("c%03d", rng.Intn(400))
		e := entry(id, float64(rng.Intn(101)), rng.Intn(3) > 0)
		if _, err := store.Upsert(ctx, "job1", e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		latest[id] = e
	}

	want := make([]types.Entry, 0, len(latest))
	for _, e := range latest {
		want = append(want, e)
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Before(want[j]) })

	if n := store.Count(ctx, "job1"); n != len(want) {
		t.Fatalf("expected count %d, got %d", len(want), n)
	}
	got, err := store.TopN(ctx, "job1", len(want), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if got[i].CandidateID != want[i].CandidateID || got[i].Score != want[i].Score {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
		r, err := store.Rank(ctx, "job1", want[i].CandidateID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Rank != i+1 {
			t.Fatalf("Rank(%s): expected %d, got %d", want[i].CandidateID, i+1, r.Rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	const writers = 8
	const perWriter = 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-c%d", w, i)
				if _, err := store.Upsert(ctx, "job1", entry(id, float64(i%100), i%2 == 0)); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				_, _ = store.TopN(ctx, "job1", 5, true)
			}
		}(w)
	}
	wg.Wait()

	if n := store.Count(ctx, "job1"); n != writers*perWriter {
		t.Errorf("expected %d entries, got %d", writers*perWriter, n)
	}
}

func TestTreapStore_CloseBehavior(t *testing.T) {
	store := NewTreapStore(context.Background(), WithMetricsUpdateInterval(time.Millisecond))
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second close is a no-op.
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestTreapStore_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewTreapStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	cancel()

	done := make(chan struct{})
	go func() {
		store.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("metrics updater did not stop after context cancellation")
	}
	_ = store.Close()
}
