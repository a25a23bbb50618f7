package services

// rerouteGuard allows one outstanding route request at a time. Each
// acquisition gets a sequence number; only the owner's completion releases
// it, so a discarded request cannot clear a newer one's claim.
type rerouteGuard struct {
	inFlight bool
	owner    uint64
	seq      uint64
}

func (g *rerouteGuard) acquire() (uint64, bool) {
	if g.inFlight {
		return 0, false
	}
	g.seq++
	g.inFlight = true
	g.owner = g.seq
	return g.seq, true
}

func (g *rerouteGuard) release(seq uint64) {
	if g.inFlight && g.owner == seq {
		g.inFlight = false
		g.owner = 0
	}
}

// abandon drops the current claim; its completion will be ignored by release.
func (g *rerouteGuard) abandon() {
	g.inFlight = false
	g.owner = 0
}
