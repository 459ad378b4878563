package system

import (
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger.
// It prints to stderr with timestamps enabled; user-facing results go to stdout.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "clirouter",
})

// SetLevel parses a level name ("debug", "info", "warn", "error") and applies it.
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return
	}
	lvl, err := clog.ParseLevel(name)
	if err != nil {
		Logger.Warn("unknown log level", "level", name)
		return
	}
	Logger.SetLevel(lvl)
}

// SetOutput redirects the shared logger, mainly for tests and `serve --log-json`.
func SetOutput(w io.Writer, json bool) {
	Logger.SetOutput(w)
	if json {
		Logger.SetFormatter(clog.JSONFormatter)
	} else {
		Logger.SetFormatter(clog.TextFormatter)
	}
}
