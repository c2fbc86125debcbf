package spheretree

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// log is the façade's structured logger: tree construction, batch
// adds, and repacks log here at Info, the way the teacher's
// NewHNSW/NewRPTIndex constructors log their configuration on
// construction.
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

	log = zerolog.New(os.Stderr).With().Timestamp().Str("component", "spheretree").Logger().Level(level)
}
