// Package schema holds the gohcl decoding targets for declaration files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a declaration file. Any file
// may contain any mix of blocks; anything else is rejected.
type File struct {
	Experiments []*Experiment `hcl:"experiment,block"`
	Functions   []*Function   `hcl:"function,block"`
}

// Experiment represents an `experiment` block: which function the search
// space is rooted at, how to score it, and how many rounds to spend.
type Experiment struct {
	Name      string `hcl:"name,label"`
	Root      string `hcl:"root"`
	Evaluator string `hcl:"evaluator"`
	Budget    int    `hcl:"budget,optional"`
}

// Function represents a `function` block, a registered Go handler whose
// arguments are declared by the nested blocks.
type Function struct {
	Name        string      `hcl:"name,label"`
	Handler     string      `hcl:"handler"`
	Description string      `hcl:"description,optional"`
	Params      []*Param    `hcl:"param,block"`
	Constants   []*Constant `hcl:"constant,block"`
	Uses        []*Use      `hcl:"use,block"`
	Repeats     []*Repeat   `hcl:"repeat,block"`
	Lists       []*List     `hcl:"list,block"`
}

// Param defines a leaf argument. Default, min and max are expressions
// because their type depends on the declared parameter type.
type Param struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default"`
	Min         hcl.Expression `hcl:"min,optional"`
	Max         hcl.Expression `hcl:"max,optional"`
	Choices     []string       `hcl:"choices,optional"`
	Transform   string         `hcl:"transform,optional"`
	Description string         `hcl:"description,optional"`
}

// Constant defines an argument fixed to a literal value.
type Constant struct {
	Name        string         `hcl:"name,label"`
	Value       hcl.Expression `hcl:"value"`
	Description string         `hcl:"description,optional"`
}

// Use defines an argument whose value is another declared function.
type Use struct {
	Name        string `hcl:"name,label"`
	Function    string `hcl:"function"`
	Description string `hcl:"description,optional"`
}

// Count is the integer parameter of a repeat block.
type Count struct {
	Default     int64  `hcl:"default"`
	Min         int64  `hcl:"min"`
	Max         int64  `hcl:"max"`
	Description string `hcl:"description,optional"`
}

// Repeat defines an argument resolving to a tunable number of repetitions
// of a function.
type Repeat struct {
	Name        string `hcl:"name,label"`
	Function    string `hcl:"function"`
	Count       *Count `hcl:"count,block"`
	Shared      bool   `hcl:"shared,optional"`
	Description string `hcl:"description,optional"`
}

// List defines an argument resolving to an ordered list of functions.
type List struct {
	Name        string   `hcl:"name,label"`
	Functions   []string `hcl:"functions"`
	Description string   `hcl:"description,optional"`
}
