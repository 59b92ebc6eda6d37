package reqctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWithoutScopeIsNoop(t *testing.T) {
	ctx := context.Background()
	Record(ctx, "orders")
	assert.Nil(t, FromContext(ctx))
	assert.Equal(t, "", RequestID(ctx))
}

func TestScopeDeduplicatesAndKeepsOrder(t *testing.T) {
	ctx, scope := Open(context.Background())
	Record(ctx, "orders")
	Record(ctx, "users")
	Record(ctx, "orders")
	Record(ctx, "  ")

	assert.Equal(t, []string{"orders", "users"}, scope.Resources())
	assert.NotEmpty(t, scope.RequestID())
	assert.Equal(t, scope.RequestID(), RequestID(ctx))
}

func TestFreezeStopsRecording(t *testing.T) {
	ctx, scope := Open(context.Background())
	Record(ctx, "orders")

	frozen := scope.Freeze()
	Record(ctx, "users")

	assert.True(t, scope.Frozen())
	assert.Equal(t, []string{"orders"}, frozen)
	assert.Equal(t, []string{"orders"}, scope.Freeze())
}

func TestResourcesReturnsCopy(t *testing.T) {
	ctx, scope := Open(context.Background())
	Record(ctx, "orders")

	got := scope.Resources()
	got[0] = "mutated"
	assert.Equal(t, []string{"orders"}, scope.Resources())
}

func TestOpenWithIDFallsBackToGenerated(t *testing.T) {
	_, scope := OpenWithID(context.Background(), "req-1")
	assert.Equal(t, "req-1", scope.RequestID())

	_, scope = OpenWithID(context.Background(), " ")
	assert.NotEmpty(t, scope.RequestID())
}

func TestDerivedContextsShareScope(t *testing.T) {
	ctx, scope := Open(context.Background())
	child, cancel := context.WithCancel(ctx)
	defer cancel()

	Record(child, "orders")
	assert.Equal(t, []string{"orders"}, scope.Resources())
}

// Two requests alternate strictly, each recording from its own call chain.
// Neither may observe the other's resources.
func TestInterleavedRequestsAreIsolated(t *testing.T) {
	turnA := make(chan struct{}, 1)
	turnB := make(chan struct{}, 1)
	var wg sync.WaitGroup
	results := make([][]string, 2)

	request := func(idx int, names []string, mine, other chan struct{}) {
		defer wg.Done()
		ctx, scope := Open(context.Background())
		for _, name := range names {
			<-mine
			deepDataAccess(ctx, name)
			other <- struct{}{}
		}
		results[idx] = scope.Freeze()
	}

	wg.Add(2)
	go request(0, []string{"orders", "payments"}, turnA, turnB)
	go request(1, []string{"users", "sessions"}, turnB, turnA)

	turnA <- struct{}{}
	wg.Wait()

	require.Len(t, results, 2)
	assert.Equal(t, []string{"orders", "payments"}, results[0])
	assert.Equal(t, []string{"users", "sessions"}, results[1])
}

func TestManyConcurrentScopes(t *testing.T) {
	const n = 64
	var wg sync.WaitGroup
	errs := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, scope := Open(context.Background())
			name := "res-" + scope.RequestID()
			var inner sync.WaitGroup
			for j := 0; j < 4; j++ {
				inner.Add(1)
				go func() {
					defer inner.Done()
					Record(ctx, name)
				}()
			}
			inner.Wait()
			got := scope.Freeze()
			if len(got) != 1 || got[0] != name {
				errs <- scope.RequestID()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for id := range errs {
		t.Errorf("scope %s observed foreign resources", id)
	}
}

func deepDataAccess(ctx context.Context, name string) {
	func(ctx context.Context) {
		Record(ctx, name)
	}(ctx)
}
