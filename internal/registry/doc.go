// Package registry provides the central "glue" for the module system.
//
// The Registry stores mappings between the string identifiers used in
// declaration files (e.g., handler = "ConvBlock", evaluator = "Accuracy")
// and the compiled Go functions that implement them.
//
// During application startup, the registry is populated by every Module and
// then validated against the loaded declarations, so that a mismatch between
// Go code and declaration files fails fast instead of in the middle of an
// experiment.
package registry
