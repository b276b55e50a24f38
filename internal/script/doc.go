// Package script hosts an embedded Lua interpreter for manifest hooks and
// small automation scripts.
//
// The interpreter state is not safe for concurrent use, so every entry point
// serializes behind a single mutex: no two calls ever run at the same time,
// and a failed script leaves the state usable for the next call. The state is
// created lazily on first use and reused for the lifetime of the host.
package script
