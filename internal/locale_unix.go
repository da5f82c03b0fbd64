//go:build !windows && !darwin

package internal

// osLocale has nothing beyond the environment on Unix-like systems
func osLocale() string { return "" }
