package engine

import "go.uber.org/zap"

// drainLedger accumulates per-SKU origin drain for one day, remembering the
// order in which SKUs were first drained.
type drainLedger struct {
	order  []string
	amount map[string]float64
}

func newDrainLedger() *drainLedger {
	return &drainLedger{amount: make(map[string]float64)}
}

func (d *drainLedger) add(key string, qty float64) {
	if _, ok := d.amount[key]; !ok {
		d.order = append(d.order, key)
	}
	d.amount[key] += qty
}

// deplete steps day by day through the horizon and returns the number of days
// simulated. A SKU whose dependency runs out of origin stock on some day is
// excluded from every later day.
func (sim *simulation) deplete() int {
	days := 0
	for day := 1; day <= sim.policy.HorizonDays; day++ {
		if sim.exhaustedCount() == len(sim.order) {
			break
		}
		sim.step(day)
		days++
	}
	return days
}

func (sim *simulation) step(day int) {
	// 1. destination drawdown
	needOrder := make([]string, 0, len(sim.order))
	needs := make(map[string]float64, len(sim.order))
	sim.each(func(s *skuState) {
		if s.exhausted {
			return
		}
		if s.destStock >= s.destDemand {
			s.destStock -= s.destDemand
			needs[s.key()] = 0
		} else {
			needs[s.key()] = s.destDemand - s.destStock
			s.destStock = 0
		}
		needOrder = append(needOrder, s.key())
	})

	// 2. drain aggregation
	drain := newDrainLedger()
	for _, key := range needOrder {
		need := needs[key]
		if sim.graph.IsSet(key) {
			for _, c := range sim.graph.Components(key) {
				if _, ok := sim.states[c.Key]; !ok {
					continue
				}
				drain.add(c.Key, need*float64(c.QtyPerSet))
			}
			continue
		}
		drain.add(key, need)
	}
	sim.each(func(s *skuState) {
		if s.originDemand > 0 {
			drain.add(s.key(), s.originDemand)
		}
	})

	// 3. resolution
	failed := make(map[string]bool)
	for _, key := range drain.order {
		s, ok := sim.states[key]
		if !ok {
			continue
		}
		qty := drain.amount[key]
		if s.originStock >= qty {
			s.originStock -= qty
			continue
		}
		s.originStock = 0
		s.exhausted = true
		failed[key] = true
	}
	if len(failed) > 0 {
		sim.logger.Debug("origin stock ran out", zap.Int("day", day), zap.Int("components", len(failed)))
	}

	// 4. settlement
	for _, key := range needOrder {
		need := needs[key]
		s := sim.states[key]
		if need <= 0 || s.exhausted {
			continue
		}
		if sim.dependencyFailed(key, failed) {
			s.exhausted = true
			continue
		}
		s.transfer += need
	}
}

func (sim *simulation) dependencyFailed(key string, failed map[string]bool) bool {
	if !sim.graph.IsSet(key) {
		return failed[key]
	}
	for _, c := range sim.graph.Components(key) {
		if failed[c.Key] {
			return true
		}
	}
	return false
}
