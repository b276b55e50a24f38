// Package app wires the catalog, registry, installer, launcher and console
// bridge into one application instance and runs the requested command.
package app
