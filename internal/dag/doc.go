// Package dag is a small directed graph of string IDs. The builder uses it to
// order declared functions so that every function is built after the
// functions it refers to, and to reject declarations that refer to
// themselves, directly or through other functions.
package dag
