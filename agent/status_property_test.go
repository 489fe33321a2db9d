package agent

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// statusGen builds an arbitrary Status from a small discriminator plus a
// failure message, covering every constructor this package exports.
func statusGen() gopter.Gen {
	return gen.IntRange(0, 4).FlatMap(func(v interface{}) gopter.Gen {
		discriminator := v.(int)
		return gen.AlphaString().Map(func(msg string) Status {
			switch discriminator {
			case 0:
				return StatusRunning
			case 1:
				return StatusPaused
			case 2:
				return StatusCompleted
			case 3:
				return StatusCancelled
			default:
				return StatusFailed(msg)
			}
		})
	}, reflect.TypeOf(Status{}))
}

// TestTerminalStatusNeverTransitionsOut verifies that once a Status reaches
// a terminal state (Completed, Failed, or Cancelled), CanTransitionTo
// refuses every candidate next state, including the terminal state itself.
func TestTerminalStatusNeverTransitionsOut(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a terminal status permits no further transition", prop.ForAll(
		func(from, to Status) bool {
			if !from.IsTerminal() {
				return true // only constrains terminal starting states
			}
			return !from.CanTransitionTo(to)
		},
		statusGen(), statusGen(),
	))

	properties.TestingRun(t)
}

// TestNonTerminalStatusCanTransitionAnywhere verifies the complementary
// half of the invariant: a non-terminal status may move to any other
// status, including back to Running from Paused.
func TestNonTerminalStatusCanTransitionAnywhere(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a non-terminal status permits any transition", prop.ForAll(
		func(from, to Status) bool {
			if from.IsTerminal() {
				return true
			}
			return from.CanTransitionTo(to)
		},
		statusGen(), statusGen(),
	))

	properties.TestingRun(t)
}

// TestStatusFailedAlwaysCarriesNonEmptyMessage verifies spec's invariant
// that a Failed status never carries an empty message, even when
// constructed with one.
func TestStatusFailedAlwaysCarriesNonEmptyMessage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("StatusFailed never carries an empty message", prop.ForAll(
		func(msg string) bool {
			return StatusFailed(msg).Message() != ""
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
