// Package config defines the format-agnostic declaration model for search
// spaces, along with the Loader interface for reading declarations from
// various sources.
//
// The `config.Model` is the single source of truth for the `registry` and
// `builder` packages. Concrete loaders, such as for HCL, are provided in
// separate packages.
package config
