package walkset

import "github.com/minio/gwalker/internal/engine"

// Hottest returns the id of the block the given policy would activate
// next, and false if every block is empty (the run is complete). The
// block-activation strategy is a pluggable function of the per-block
// counters rather than one hard-coded rule.
func (m *Manager) Hottest(policy engine.BlockSelectionPolicy) (int, bool) {
	switch policy {
	case engine.PolicyMinStep:
		return m.hottestMinStep()
	case engine.PolicyMaxWeight:
		return m.hottestMaxWeight()
	default:
		return m.hottestMaxWalks()
	}
}

func (m *Manager) hottestMaxWalks() (int, bool) {
	best, bestN := -1, int64(0)
	for k := 0; k < m.nblocks; k++ {
		if n := m.queues[k].len(); n > bestN {
			best, bestN = k, n
		}
	}
	return best, best >= 0
}

// hottestMinStep favors the block whose resident walks are, on
// average, closest to their source, on the theory that finishing
// short walks quickly frees ring capacity sooner.
func (m *Manager) hottestMinStep() (int, bool) {
	best, bestAvg := -1, float64(1<<30)
	for k := 0; k < m.nblocks; k++ {
		n := m.queues[k].len()
		if n == 0 {
			continue
		}
		if avg := m.queues[k].avgHop(); best == -1 || avg < bestAvg {
			best, bestAvg = k, avg
		}
	}
	return best, best >= 0
}

// hottestMaxWeight composes walk count and average hop into one score:
// many walks that have also made few hops on average are activated
// first.
func (m *Manager) hottestMaxWeight() (int, bool) {
	best, bestScore := -1, float64(-1)
	for k := 0; k < m.nblocks; k++ {
		n := m.queues[k].len()
		if n == 0 {
			continue
		}
		avg := m.queues[k].avgHop()
		score := float64(n) / (avg + 1)
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, best >= 0
}
