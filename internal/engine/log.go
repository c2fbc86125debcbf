package engine

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// log is the package-wide structured logger for the tree engine's
// internals (splits, repacks, node removal). Its level is controlled
// by HANN_SPHERETREE_LOG, mirroring the rest of the module's ambient
// logging configuration.
var log zerolog.Logger

func init() {
	mode := strings.TrimSpace(strings.ToLower(os.Getenv("HANN_SPHERETREE_LOG")))

	level := zerolog.InfoLevel
	switch mode {
	case "off", "0":
		level = zerolog.Disabled
	case "full":
		level = zerolog.DebugLevel
	}

	log = zerolog.New(os.Stderr).With().Timestamp().Str("component", "engine").Logger().Level(level)
}
