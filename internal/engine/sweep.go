package engine

import "go.uber.org/zap"

// sweep moves the whole origin balance of SKUs that have no set relationship,
// no reason to keep origin stock and a valid destination registration. Swept
// SKUs never enter the day-stepped simulation.
func (sim *simulation) sweep() int {
	swept := 0
	sim.each(func(s *skuState) {
		if sim.graph.IsRelated(s.key()) || s.defenseRequired || s.missingCode {
			return
		}

		s.transfer = s.originStock
		s.originStock = 0
		s.exhausted = true
		s.sweep = true
		swept++

		sim.logger.Debug("sku swept", zap.String("sku", s.key()), zap.Float64("qty", s.transfer))
	})
	return swept
}
