// internal/paramid/doc.go

/*
Package paramid provides a structured representation for the paths that name
parameters in a tunable tree.

A path is a colon-separated sequence of segments, e.g.
`train_model:conv_layers:repeat[1]:filters`. The rendered form of a leaf's
path is the parameter name registered with the optimizer, so it must be
unique within one flattened parameter list.

This package centralizes all formatting and parsing of those names.
*/
package paramid
