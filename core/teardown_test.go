package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/trident/core"
)

func TestTeardownReverseOrder(t *testing.T) {
	c := qt.New(t)

	var released []string
	var td core.Teardown
	for _, name := range []string{"instance", "surface", "device", "swapchain", "pipeline"} {
		name := name
		td.Push(name, func() { released = append(released, name) })
	}
	c.Assert(td.Len(), qt.Equals, 5)

	td.Run()
	c.Assert(released, qt.DeepEquals, []string{"pipeline", "swapchain", "device", "surface", "instance"})
	c.Assert(td.Len(), qt.Equals, 0)
}

func TestTeardownExactlyOnce(t *testing.T) {
	c := qt.New(t)

	counts := map[string]int{}
	var td core.Teardown
	td.Push("a", func() { counts["a"]++ })
	td.Push("b", func() { counts["b"]++ })

	td.Run()
	td.Run()
	c.Assert(counts, qt.DeepEquals, map[string]int{"a": 1, "b": 1})
}

func TestTeardownPartial(t *testing.T) {
	c := qt.New(t)

	// stages pushed after a previous Run are released on their own
	var released []string
	var td core.Teardown
	td.Push("first", func() { released = append(released, "first") })
	td.Run()
	td.Push("second", func() { released = append(released, "second") })
	td.Push("third", func() { released = append(released, "third") })
	td.Run()

	c.Assert(released, qt.DeepEquals, []string{"first", "third", "second"})
}

type countingStage struct{ destroyed int }

func (s *countingStage) Destroy() { s.destroyed++ }

func TestTeardownStage(t *testing.T) {
	c := qt.New(t)

	stage := &countingStage{}
	var td core.Teardown
	td.PushStage("stage", stage)
	td.Run()
	td.Run()
	c.Assert(stage.destroyed, qt.Equals, 1)
}
