// Package config defines the format-agnostic model for the package catalog.
//
// Manifests on disk are written in HCL, but nothing outside the loader is
// allowed to know that. The loader translates every manifest into the types in
// this package, and the rest of the application (registry, installer, launcher)
// works exclusively against this model.
package config
