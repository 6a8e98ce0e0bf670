/*
Package dsl provides a fluent builder for constructing state graphs in Go.

It is the programmatic counterpart of definition files: useful for tests,
generated graphs, and hosts that wire gameplay hooks directly onto states.

Example usage:

	b := dsl.New("Idle")

	b.State("Idle").On("go", "Moving")
	b.State("Moving").
		OnEnter(func(s *domain.State) { log.Println("moving") }).
		On("stop", "Idle").
		Duration(500 * time.Millisecond)

	b.AnyState("any")
	b.Transition("panic").From("any").To("Idle").Label("reset")

	graph, err := b.Build()
	// ... pass graph to vsm.New(graph)
*/
package dsl
