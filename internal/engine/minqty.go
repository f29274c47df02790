package engine

import (
	"math"

	"go.uber.org/zap"
)

// guaranteeMinimum tops every eligible SKU up to the destination floor in one
// pass, drawing only on origin stock above the defense reserve.
func (sim *simulation) guaranteeMinimum() int {
	topped := 0
	sim.each(func(s *skuState) {
		if s.sweep || s.exhausted || s.missingCode {
			return
		}
		if s.destStock >= sim.policy.MinDestinationQty {
			return
		}

		needed := sim.policy.MinDestinationQty - s.destStock
		alloc := min(needed, sim.allocatable(s))
		if alloc <= 0 {
			return
		}

		s.transfer += alloc
		s.destStock += alloc

		if sim.graph.IsSet(s.key()) {
			for _, c := range sim.graph.Components(s.key()) {
				sim.states[c.Key].originStock -= alloc * float64(c.QtyPerSet)
			}
		} else {
			s.originStock -= alloc
		}

		topped++
		sim.logger.Debug("minimum quantity top-up", zap.String("sku", s.key()), zap.Float64("qty", alloc))
	})
	return topped
}

// allocatable is the top-up a SKU can take without breaching any defense
// reserve. For a set it is the bottleneck over its components.
func (sim *simulation) allocatable(s *skuState) float64 {
	if !sim.graph.IsSet(s.key()) {
		return sim.surplus(s)
	}

	sets := math.Inf(1)
	for _, c := range sim.graph.Components(s.key()) {
		comp, ok := sim.states[c.Key]
		if !ok {
			return 0
		}
		sets = min(sets, sim.surplus(comp)/float64(c.QtyPerSet))
	}
	return sets
}
