package ui

import "os"

// nfEnabled reports whether Nerd Font icons should be rendered.
// Default to enabled; disable via NERDFONT=0.
func nfEnabled() bool {
	return os.Getenv("NERDFONT") != "0"
}

func nf(icon, fallback string) string {
	if nfEnabled() {
		return icon
	}
	return fallback
}

func IconInstalled() string { return nf("", "✓") } // fa-check
func IconMissing() string   { return nf("", "×") } // fa-times
func IconKey() string       { return nf("", "*") } // fa-key
