package engine

import (
	"math"

	"go.uber.org/zap"
)

type proposals struct {
	qty       map[string]int
	corrected []string
}

// correct rounds the simulated transfers and walks allocations back wherever
// the rounded totals would leave a defended SKU below the origin floor.
//
// For a violating component the SKUs that consume it are reduced one unit at a
// time: sets in the order they first appear in the BOM, then the component's
// own standalone transfer.
func (sim *simulation) correct() *proposals {
	p := &proposals{qty: make(map[string]int, len(sim.order))}
	seen := make(map[string]bool)
	sim.each(func(s *skuState) {
		p.qty[s.key()] = int(math.RoundToEven(s.transfer))
	})

	usage := sim.expandUsage(p.qty)

	type violation struct {
		key    string
		excess int
	}
	var violations []violation
	for _, key := range usage.order {
		s, ok := sim.states[key]
		if !ok || !s.defenseRequired {
			continue
		}
		limit := max(0, int(s.profile.Record.OriginStock-sim.policy.MinOriginStock))
		if used := int(usage.amount[key]); used > limit {
			violations = append(violations, violation{key: key, excess: used - limit})
		}
	}

	for _, v := range violations {
		sim.logger.Warn("origin floor violated, reducing transfers",
			zap.String("sku", v.key),
			zap.Int("excess", v.excess))

		excess := v.excess
		related := append([]string{}, sim.graph.UsedBy(v.key)...)
		related = append(related, v.key)

		for _, rel := range related {
			if excess <= 0 {
				break
			}
			if _, ok := sim.states[rel]; !ok {
				continue
			}

			perUnit := 1
			if sim.graph.IsSet(rel) {
				perUnit = sim.graph.QtyPer(rel, v.key)
			}

			qty := p.qty[rel]
			before := qty
			for qty > 0 && excess > 0 {
				qty--
				excess -= perUnit
			}
			p.qty[rel] = qty
			if qty != before && !seen[rel] {
				seen[rel] = true
				p.corrected = append(p.corrected, rel)
			}
		}
	}

	return p
}

// expandUsage projects positive transfers through the BOM onto origin stock.
func (sim *simulation) expandUsage(qty map[string]int) *drainLedger {
	usage := newDrainLedger()
	for _, key := range sim.order {
		q := qty[key]
		if q <= 0 {
			continue
		}
		if sim.graph.IsSet(key) {
			for _, c := range sim.graph.Components(key) {
				usage.add(c.Key, float64(q*c.QtyPerSet))
			}
			continue
		}
		usage.add(key, float64(q))
	}
	return usage
}
