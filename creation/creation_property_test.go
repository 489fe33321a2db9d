package creation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fibanez/agentcore/agent"
)

// TestRequestIDsAreUniqueAcrossConcurrentSubmitters verifies that every
// RequestCreation call, no matter how many goroutines race to submit at
// once, is assigned a distinct request ID: the manager's consumer contract
// (exactly one Response per Request) depends on IDs never colliding.
func TestRequestIDsAreUniqueAcrossConcurrentSubmitters(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("assigned request IDs are unique across concurrent submitters", prop.ForAll(
		func(n int) bool {
			bus := NewBus(Options{ResponseTimeout: 2 * time.Second})

			var mu sync.Mutex
			var seenIDs []uint64

			consumerDone := make(chan struct{})
			go func() {
				defer close(consumerDone)
				for i := 0; i < n; i++ {
					req := <-bus.Receive()
					mu.Lock()
					seenIDs = append(seenIDs, req.ID)
					mu.Unlock()
					bus.Respond(req.ID, SuccessResponse(agent.NewID()))
				}
			}()

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					bus.RequestCreation(context.Background(), Request{ShortDescription: "x", TaskDescription: "y"})
				}()
			}
			wg.Wait()
			<-consumerDone

			if len(seenIDs) != n {
				return false
			}
			unique := make(map[uint64]bool, n)
			for _, id := range seenIDs {
				if id == 0 || unique[id] {
					return false
				}
				unique[id] = true
			}
			return true
		},
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

// TestRequestIDsStrictlyIncreaseUnderSequentialSubmission verifies the
// narrower, sequential case: issued one at a time, IDs increase by exactly
// one each call, matching the "monotonically increasing" doc comment on
// Request.ID.
func TestRequestIDsStrictlyIncreaseUnderSequentialSubmission(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("sequential request IDs increase by exactly one", prop.ForAll(
		func(n int) bool {
			bus := NewBus(Options{ResponseTimeout: time.Second})
			seenIDs := make([]uint64, 0, n)
			go func() {
				for i := 0; i < n; i++ {
					req := <-bus.Receive()
					seenIDs = append(seenIDs, req.ID)
					bus.Respond(req.ID, SuccessResponse(agent.NewID()))
				}
			}()

			for i := 0; i < n; i++ {
				req := Request{ShortDescription: "x", TaskDescription: "y"}
				if _, err := bus.RequestCreation(context.Background(), req); err != nil {
					return false
				}
			}

			if len(seenIDs) != n {
				return false
			}
			for i := 1; i < len(seenIDs); i++ {
				if seenIDs[i] != seenIDs[i-1]+1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
