// Package registry pairs declarative package definitions with the Go hook
// handlers compiled into the binary, and validates that the two sides agree
// before anything is installed or launched.
package registry
