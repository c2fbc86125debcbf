package metric

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Seed returns a seed for the Splitter's random center selection. If
// SPHERETREE_SEED is set and parses as an integer, it is used (and
// logged) for reproducible benchmarking; otherwise the current wall
// clock seeds a non-deterministic build, same fallback the teacher's
// core.GetSeed applies.
func Seed() int64 {
	seedStr := os.Getenv("SPHERETREE_SEED")
	if seedStr != "" {
		if seed, err := strconv.ParseInt(seedStr, 10, 64); err == nil {
			log.Info().Msgf("metric: using seed from SPHERETREE_SEED: %d", seed)
			return seed
		}
		log.Warn().Msgf("metric: failed to parse SPHERETREE_SEED value: %s", seedStr)
	}

	seed := time.Now().UnixNano()
	log.Info().Msgf("metric: using current time as seed: %d", seed)
	return seed
}
