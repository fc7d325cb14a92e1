//go:build tinygo || !cgo

package glrender

// NativeGL is not available without CGo. Use a custom [GL] implementation instead.
func NativeGL() (GL, error) { return nil, errNoCGO }
