//go:build darwin

package internal

import (
	"os/exec"
	"strings"
)

// osLocale reads the macOS system preference, e.g. "sv_SE"
func osLocale() string {
	out, err := exec.Command("defaults", "read", "-g", "AppleLocale").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
