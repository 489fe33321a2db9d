package hooks

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fibanez/agentcore/agent"
)

// TestTryRecvPreservesSendOrder verifies that Bus is strictly FIFO: for any
// sequence of Send calls from a single goroutine, TryRecv yields events
// back in exactly the order they were enqueued.
func TestTryRecvPreservesSendOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("events drain in the order they were sent", prop.ForAll(
		func(descriptions []string) bool {
			bus := NewBus()
			for i, d := range descriptions {
				bus.Send(NewWorkerStarted(agent.NewID(), agent.NewID(), d, i))
			}

			for i, want := range descriptions {
				event, ok := bus.TryRecv()
				if !ok || event.ShortDescription != want || event.MessageIndex != i {
					return false
				}
			}
			_, ok := bus.TryRecv()
			return !ok
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestDrainAllReturnsExactlyWhatWasSent verifies DrainAll's convenience
// wrapper matches repeated TryRecv calls one-for-one, in the same order,
// and empties the queue.
func TestDrainAllReturnsExactlyWhatWasSent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("DrainAll returns every sent event once, in order, then empties the bus", prop.ForAll(
		func(n int) bool {
			bus := NewBus()
			ids := make([]agent.ID, n)
			for i := 0; i < n; i++ {
				ids[i] = agent.NewID()
				bus.Send(NewAgentCompleted(ids[i]))
			}

			drained := DrainAll(bus)
			if len(drained) != n {
				return false
			}
			for i, event := range drained {
				if event.AgentID != ids[i] {
					return false
				}
			}
			return bus.Len() == 0
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
