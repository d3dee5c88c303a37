package session

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
	"github.com/standardbeagle/webdriver-mcp/internal/browser/browsertest"
)

func TestRegistryDriverRequiresCurrent(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)

	_, err := reg.Driver()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	d := browsertest.NewDriver(browser.Chrome)
	reg.AddDriver("a", d)
	_, err = reg.Driver()
	assert.ErrorIs(t, err, ErrNoActiveSession, "added but not current")

	reg.SetCurrentSession("a")
	got, err := reg.Driver()
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestRegistrySetCurrentDoesNotValidate(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)

	reg.SetCurrentSession("ghost")
	id, ok := reg.CurrentSession()
	assert.True(t, ok)
	assert.Equal(t, "ghost", id)

	_, err := reg.Driver()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestRegistryAddOverwrites(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)

	first := browsertest.NewDriver(browser.Chrome)
	second := browsertest.NewDriver(browser.Firefox)
	reg.AddDriver("a", first)
	reg.AddDriver("a", second)

	assert.Equal(t, 1, reg.Len())
	got, ok := reg.Lookup("a")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryRemoveClearsMatchingCurrent(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	reg.AddDriver("a", browsertest.NewDriver(browser.Chrome))
	reg.AddDriver("b", browsertest.NewDriver(browser.Firefox))
	reg.SetCurrentSession("b")

	reg.RemoveDriver("a")
	id, ok := reg.CurrentSession()
	assert.True(t, ok)
	assert.Equal(t, "b", id)

	reg.RemoveDriver("b")
	_, ok = reg.CurrentSession()
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	reg.RemoveDriver("missing")
}

func TestRegistryClearAndReset(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	reg.AddDriver("a", browsertest.NewDriver(browser.Chrome))
	reg.AddDriver("b", browsertest.NewDriver(browser.Chrome))
	reg.SetCurrentSession("a")

	reg.ClearDrivers()
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.CurrentSession()
	assert.True(t, ok, "ClearDrivers leaves current alone")

	reg.ResetCurrentSession()
	_, ok = reg.CurrentSession()
	assert.False(t, ok)
}

func TestRegistryIDsSortedAndSnapshotIsCopy(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	for _, id := range []string{"c", "a", "b"} {
		reg.AddDriver(id, browsertest.NewDriver(browser.Chrome))
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.IDs())

	snap := reg.Snapshot()
	delete(snap, "a")
	assert.Equal(t, 3, reg.Len())
}

// Driver succeeds exactly when current is set and names a present entry,
// whatever sequence of registry operations led there.
func TestRegistryDriverMatchesModel(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	ids := []string{"s1", "s2", "s3", "s4"}

	for run := 0; run < 50; run++ {
		reg := NewRegistry(nil)
		present := map[string]bool{}
		current := ""

		for step := 0; step < 40; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(6) {
			case 0:
				reg.AddDriver(id, browsertest.NewDriver(browser.Chrome))
				present[id] = true
			case 1:
				reg.SetCurrentSession(id)
				current = id
			case 2:
				reg.RemoveDriver(id)
				delete(present, id)
				if current == id {
					current = ""
				}
			case 3:
				if rng.Intn(4) == 0 {
					reg.ClearDrivers()
					present = map[string]bool{}
				}
			case 4:
				if rng.Intn(4) == 0 {
					reg.ResetCurrentSession()
					current = ""
				}
			case 5:
				reg.AddDriver(id, browsertest.NewDriver(browser.Firefox))
				reg.SetCurrentSession(id)
				present[id] = true
				current = id
			}

			_, err := reg.Driver()
			want := current != "" && present[current]
			require.Equal(t, want, err == nil, "run %d step %d current=%q present=%v", run, step, current, present)
			require.Equal(t, len(present), reg.Len())
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("s%d_%d", i, j)
				reg.AddDriver(id, browsertest.NewDriver(browser.Chrome))
				reg.SetCurrentSession(id)
				_, _ = reg.Driver()
				_ = reg.IDs()
				reg.RemoveDriver(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Len())
}
