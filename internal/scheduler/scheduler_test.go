package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/forgegrid/internal/graph"
)

// fakeCollab is a fully scripted collaborator set. Zero values pass every
// phase; individual behaviors are overridden per test.
type fakeCollab struct {
	mu sync.Mutex

	scaffoldErr map[string]error
	checkFail   map[string]CheckKind // package to kind that fails
	// qualityFailures is the number of quality runs that fail before one
	// passes, per package.
	qualityFailures map[string]int
	qualityRuns     map[string]int
	remediate       func(u UnitContext, failure string) (RemediationResult, error)

	inFlight atomic.Int32
	peak     atomic.Int32
	order    []string
	starts   map[string]time.Time
	ends     map[string]time.Time
	delay    time.Duration
}

func newFakeCollab() *fakeCollab {
	return &fakeCollab{
		scaffoldErr:     map[string]error{},
		checkFail:       map[string]CheckKind{},
		qualityFailures: map[string]int{},
		qualityRuns:     map[string]int{},
		starts:          map[string]time.Time{},
		ends:            map[string]time.Time{},
	}
}

func (f *fakeCollab) Scaffold(ctx context.Context, u UnitContext) error {
	cur := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	f.mu.Lock()
	f.order = append(f.order, u.Package)
	f.starts[u.Package] = time.Now()
	f.mu.Unlock()
	return f.scaffoldErr[u.Package]
}

func (f *fakeCollab) Run(ctx context.Context, u UnitContext, kind CheckKind) (CheckResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return CheckResult{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkFail[u.Package] == kind {
		return CheckResult{Passed: false, Output: string(kind) + " broke"}, nil
	}
	if kind == CheckQuality {
		f.qualityRuns[u.Package]++
		if f.qualityRuns[u.Package] <= f.qualityFailures[u.Package] {
			return CheckResult{Passed: false, Output: "lint findings"}, nil
		}
	}
	return CheckResult{Passed: true}, nil
}

func (f *fakeCollab) Remediate(ctx context.Context, u UnitContext, failure string) (RemediationResult, error) {
	if f.remediate != nil {
		return f.remediate(u, failure)
	}
	return RemediationResult{Success: true, ChangeSummary: "adjusted lint config"}, nil
}

func (f *fakeCollab) Publish(ctx context.Context, u UnitContext) error {
	f.mu.Lock()
	f.ends[u.Package] = time.Now()
	f.mu.Unlock()
	f.inFlight.Add(-1)
	return nil
}

func (f *fakeCollab) Commit(ctx context.Context, u UnitContext, message string) error { return nil }

func (f *fakeCollab) collaborators() Collaborators {
	return Collaborators{
		Scaffolder: f,
		Checks:     f,
		Remediator: f,
		Publisher:  f,
		Committer:  f,
	}
}

func mustGraph(t *testing.T, decls ...graph.Declaration) *graph.Graph {
	t.Helper()
	g, err := graph.Build(decls)
	require.NoError(t, err)
	return g
}

func TestRun_DiamondBuildsEverything(t *testing.T) {
	g := mustGraph(t,
		graph.Declaration{Name: "a"},
		graph.Declaration{Name: "b", Dependencies: []string{"a"}},
		graph.Declaration{Name: "c", Dependencies: []string{"a"}},
		graph.Declaration{Name: "d", Dependencies: []string{"b", "c"}},
	)
	collab := newFakeCollab()
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 2})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, []string{"a", "b", "c", "d"}, report.Built)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Blocked)
}

// The root builds alone first, then its dependents run concurrently
// under a cap of 2.
func TestRun_RootBuildsAloneThenDependentsInParallel(t *testing.T) {
	g := mustGraph(t,
		graph.Declaration{Name: "a"},
		graph.Declaration{Name: "b", Dependencies: []string{"a"}},
		graph.Declaration{Name: "c", Dependencies: []string{"a"}},
	)
	collab := newFakeCollab()
	collab.delay = 20 * time.Millisecond
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 2})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, report.Built)
	assert.Equal(t, "a", collab.order[0], "the root must start first and alone")
	// B and C must both have started before either finished.
	bStart, cStart := collab.starts["b"], collab.starts["c"]
	bEnd, cEnd := collab.ends["b"], collab.ends["c"]
	assert.True(t, bStart.Before(cEnd) && cStart.Before(bEnd),
		"b and c should overlap: b=%v..%v c=%v..%v", bStart, bEnd, cStart, cEnd)
}

func TestRun_ConcurrencyCapIsNeverExceeded(t *testing.T) {
	declsList := []graph.Declaration{}
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"} {
		declsList = append(declsList, graph.Declaration{Name: name})
	}
	g := mustGraph(t, declsList...)
	collab := newFakeCollab()
	collab.delay = 5 * time.Millisecond
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 3})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Built, 8)
	assert.LessOrEqual(t, collab.peak.Load(), int32(3))
}

func TestRun_FailedDependencyBlocksDependents(t *testing.T) {
	g := mustGraph(t,
		graph.Declaration{Name: "base"},
		graph.Declaration{Name: "lib", Dependencies: []string{"base"}},
		graph.Declaration{Name: "app", Dependencies: []string{"lib"}},
		graph.Declaration{Name: "other"},
	)
	collab := newFakeCollab()
	collab.checkFail["lib"] = CheckBuild
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 2})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"base", "other"}, report.Built)
	assert.Equal(t, []string{"lib"}, report.Failed)
	assert.Equal(t, []string{"app"}, report.Blocked, "app was never attempted, so it is blocked, not failed")
	_, attempted := report.Units["app"]
	assert.False(t, attempted)
	assert.False(t, report.Success())
}

// Quality fails twice and the third run passes, so the unit lands done
// with exactly two remediations recorded.
func TestRun_QualityRecoversWithinBudget(t *testing.T) {
	g := mustGraph(t, graph.Declaration{Name: "pkg"})
	collab := newFakeCollab()
	collab.qualityFailures["pkg"] = 2
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 1})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"pkg"}, report.Built)
	unit := report.Units["pkg"]
	assert.Equal(t, PhaseDone, unit.Phase)
	assert.Equal(t, 2, unit.RemediationAttempts)
	assert.Len(t, unit.RemediationSummaries, 2)
}

// Quality fails on all allowed attempts: the unit escalates and its
// dependents end blocked.
func TestRun_QualityEscalationBlocksDependents(t *testing.T) {
	g := mustGraph(t,
		graph.Declaration{Name: "pkg"},
		graph.Declaration{Name: "child", Dependencies: []string{"pkg"}},
	)
	collab := newFakeCollab()
	collab.qualityFailures["pkg"] = 99
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 2, MaxQualityAttempts: 3})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"pkg"}, report.Failed)
	assert.Equal(t, []string{"child"}, report.Blocked)
	unit := report.Units["pkg"]
	assert.Equal(t, PhaseQualityCheck, unit.FailedPhase)
	assert.Contains(t, unit.Reason, "escalation")
	assert.Equal(t, 2, unit.RemediationAttempts, "remediation runs between attempts, not after the last")
	assert.Equal(t, 3, collab.qualityRuns["pkg"])
}

func TestRun_BuildFailureDoesNotRemediate(t *testing.T) {
	g := mustGraph(t, graph.Declaration{Name: "pkg"})
	collab := newFakeCollab()
	collab.checkFail["pkg"] = CheckBuild
	remediations := 0
	collab.remediate = func(u UnitContext, failure string) (RemediationResult, error) {
		remediations++
		return RemediationResult{Success: true}, nil
	}
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 1})
	require.NoError(t, err)

	report, err := s.Run(context.Background())

	require.NoError(t, err)
	unit := report.Units["pkg"]
	assert.Equal(t, PhaseBuilding, unit.FailedPhase)
	assert.Zero(t, remediations, "build failures fail immediately, remediation is quality-only")
}

func TestRun_CancellationDrainsInFlightUnits(t *testing.T) {
	g := mustGraph(t,
		graph.Declaration{Name: "slow1"},
		graph.Declaration{Name: "slow2"},
		graph.Declaration{Name: "late", Dependencies: []string{"slow1", "slow2"}},
	)
	collab := newFakeCollab()
	collab.delay = 200 * time.Millisecond
	s, err := New(g, collab.collaborators(), Config{MaxConcurrent: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	report, err := s.Run(ctx)

	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Contains(t, report.Blocked, "late", "nothing new may launch after cancellation")
	// Both in-flight units must have been reaped before Run returned.
	require.Contains(t, report.Units, "slow1")
	require.Contains(t, report.Units, "slow2")
	assert.True(t, report.Units["slow1"].Failed())
	assert.True(t, report.Units["slow2"].Failed())
}

func TestNew_RejectsBadConfig(t *testing.T) {
	g := mustGraph(t, graph.Declaration{Name: "a"})
	collab := newFakeCollab()

	_, err := New(g, collab.collaborators(), Config{MaxConcurrent: 0})
	assert.Error(t, err)

	_, err = New(g, Collaborators{}, Config{MaxConcurrent: 1})
	assert.Error(t, err)

	_, err = New(nil, collab.collaborators(), Config{MaxConcurrent: 1})
	assert.Error(t, err)
}
