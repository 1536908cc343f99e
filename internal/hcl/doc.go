// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, parsing and translating
// `function` and `experiment` blocks into the format-agnostic model.
package hcl
