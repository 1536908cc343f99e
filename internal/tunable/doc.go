// Package tunable declares composable search spaces and resolves them
// against optimizer suggestions.
//
// # Declaring
//
// A search space is a tree of Tunable nodes built once at startup. Leaves
// (IntParam, DoubleParam, CategoricalParam, TransformedParam) are the search
// dimensions handed to the optimizer. Composites (ListTunable,
// RepeatedTunable, Function) combine the values of their children. Constant
// pins a slot to a fixed value. Nodes are immutable after construction and
// every constructor validates its input, so a tree that builds is well formed.
//
//	convBlock := tunable.Tune(buildConv, map[string]tunable.Tunable{
//	    "filters":    tunable.MustInt(64, 8, 128),
//	    "activation": tunable.MustCategorical("relu", "relu", "tanh"),
//	})
//	space := tunable.Tune(train, map[string]tunable.Tunable{
//	    "blocks":        tunable.MustRepeat(convBlock, tunable.MustInt(2, 0, 4)),
//	    "learning_rate": tunable.MustLog10(-3, -6, 0),
//	})
//
// # Flattening
//
// Parameters walks the node tree and returns one Descriptor per reachable
// leaf, named by joining the child names on the path from the root with ":"
// (e.g. "blocks:repeat[1]:filters"). This list is what gets registered with
// the optimizer.
//
// # Resolving
//
// Each optimization round gets its own Root holding that round's Assignment
// and its own Context tree mirroring the node tree. Context.Value resolves a
// node lazily, exactly once per round: leaves read the assignment (falling
// back to their default) and composites pull their children's values. A node
// that ends up depending on its own value fails with ErrRecursiveEvaluation.
// Starting the next round through Rounds expires the previous Root, after
// which every Context bound to it fails with ErrStaleContext.
//
// Resolution is synchronous and not safe for concurrent use. Node trees may be
// shared freely between rounds.
package tunable
