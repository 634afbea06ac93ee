package cmd

import (
	"github.com/jhollis/lc3sim/internal/ioline"
	"github.com/jhollis/lc3sim/internal/sim"
)

// wireIO connects a Simulator to channel: Step polls it once per tick for
// input (fanned out to every attached InputDriver, the bundled keyboard
// included) and the Simulator's Host forwards device output writes to it,
// per spec.md §2's run loop and §4.4's Host facade. No independent
// goroutine is needed; the Simulator's own tick loop drives both
// directions.
func wireIO(s *sim.Simulator, channel ioline.Channel) {
	s.SetChannel(channel)
}
