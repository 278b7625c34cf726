package ui

import (
	"os/exec"
	"strings"
	"sync"
)

const logoText = "kavita"

var (
	bannerOnce sync.Once
	bannerArt  string
)

// banner returns the figlet rendering of the logo for the empty panel,
// falling back to plain text when figlet is not installed.
func banner() string {
	bannerOnce.Do(func() {
		output, err := exec.Command("figlet", "-f", "slant", logoText).Output()
		if err == nil && len(strings.TrimSpace(string(output))) > 0 {
			bannerArt = strings.TrimRight(string(output), "\n")
			return
		}
		bannerArt = strings.ToUpper(logoText)
	})
	return bannerArt
}
