package log

import (
	"os"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// SetLevel parses a level name ("trace", "debug", "info", ...) and applies
// it to L. TRACE in the environment always wins.
func SetLevel(name string) error {
	if str := os.Getenv("TRACE"); str != "" {
		L.SetLevel(hclog.Trace)
		return nil
	}

	lvl := hclog.LevelFromString(name)
	if lvl == hclog.NoLevel {
		return errors.Errorf("unknown log level: %s", name)
	}

	L.SetLevel(lvl)
	return nil
}

func EnableDebug() {
	if !L.IsTrace() {
		L.SetLevel(hclog.Debug)
	}
}
