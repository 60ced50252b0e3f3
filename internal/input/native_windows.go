//go:build windows

package input

// NativeSupported reports whether this build can inject real input.
const NativeSupported = true
