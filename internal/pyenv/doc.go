// Package pyenv manages the shared embedded interpreter runtime and the
// per-package virtual environments built on top of it.
//
// The runtime is a standalone CPython distribution downloaded once into the
// data dir and reused by every package. Ensuring it is single-flighted:
// concurrent installs wait for one download instead of racing.
package pyenv
