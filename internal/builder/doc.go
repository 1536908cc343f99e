/*
Package builder turns a loaded config.Model into a search space: a tunable
node tree rooted at an experiment's root function, together with the
evaluator that scores it.

Construction runs in three passes:

 1. Linking: every declared function becomes a vertex of a dag.Graph and
    every `use`, `repeat` and `list` reference becomes an edge. References
    to undeclared functions are collected and reported together.

 2. Ordering: the graph is sorted topologically. A function that refers to
    itself, directly or through other functions, is rejected here, before
    any node exists.

 3. Node creation: functions are built dependencies-first, so every
    reference resolves to an already built node. Each declared function
    yields exactly one *tunable.Function; referring to it from several
    places reuses that node, and its parameters then appear once per path.

The finished tree is validated with tunable.Validate before it is returned.
*/
package builder
