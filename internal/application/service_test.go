package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

func TestServiceTestKeepsTargetOrder(t *testing.T) {
	f := newFixture()
	svc := f.service()

	outcomes, err := svc.Test(context.Background(), TestOptions{
		Targets: []string{"py", "nomake", "mk"},
		Config:  Config{Parallel: 3},
	})

	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.EcosystemPython, outcomes[0].Ecosystem)
	assert.Equal(t, domain.VerdictUnsupported, outcomes[1].Verdict)
	assert.Equal(t, domain.EcosystemMake, outcomes[2].Ecosystem)
}

func TestServiceTestRequiresTarget(t *testing.T) {
	_, err := newFixture().service().Test(context.Background(), TestOptions{})
	assert.Error(t, err)
}

func TestServiceDetect(t *testing.T) {
	f := newFixture()
	delete(f.prober, "cargo")

	res, err := f.service().Detect(context.Background(), DetectOptions{Target: "mixed"})

	require.NoError(t, err)
	assert.Equal(t, domain.EcosystemPython, res.Selected)
	assert.Equal(t, []domain.ToolMissingError{{Ecosystem: domain.EcosystemRust, Tool: "cargo"}}, res.Missing)
	assert.Empty(t, f.executor.calls)
}

type fakeWatcher struct {
	dirs   []string
	events chan struct{}
}

func (w *fakeWatcher) WatchDir(root string) error {
	w.dirs = append(w.dirs, root)
	return nil
}

func (w *fakeWatcher) Events(ctx context.Context) <-chan struct{} { return w.events }

func (w *fakeWatcher) Close() error { return nil }

func TestServiceWatchRerunsOnChange(t *testing.T) {
	f := newFixture()
	w := &fakeWatcher{events: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var runs []int
	err := f.service().Watch(ctx, TestOptions{Targets: []string{"py"}}, w, func(run int, outcomes []domain.DispatchOutcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		runs = append(runs, run)
		require.Len(t, outcomes, 1)
		switch run {
		case 1:
			w.events <- struct{}{}
		case 2:
			close(w.events)
		}
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, runs)
	assert.Len(t, w.dirs, 1)
}
