//go:build !debug

package debug

// Debug controls whether stack traces are kept verbatim and whether the
// logger stays active under `go test`. Build with -tags=debug to enable.
const Debug = false
