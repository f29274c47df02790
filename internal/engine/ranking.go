package engine

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/mamadbah2/restock/internal/domain/models"
)

var groupOrdinalPattern = regexp.MustCompile(`^\d+_`)

// ProductGroup is the first two underscore-separated parts of a SKU key.
func ProductGroup(key string) string {
	parts := strings.Split(key, "_")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "_")
}

// DisplayGroup drops the leading ordinal ("1_") from a product group.
func DisplayGroup(group string) string {
	return groupOrdinalPattern.ReplaceAllString(group, "")
}

// DepletionDays estimates how long destination stock lasts, capped when the
// velocity gives no usable answer.
func DepletionDays(stock, velocity, capDays float64) float64 {
	days := stock / velocity
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return capDays
	}
	return days
}

func (sim *simulation) rank(p *proposals) []models.Recommendation {
	drain := sim.expandUsage(p.qty)

	var recs []models.Recommendation
	sim.each(func(s *skuState) {
		qty := p.qty[s.key()]
		if qty <= 0 {
			return
		}

		rec := s.profile.Record
		velocity := s.profile.DestinationVelocity
		days := DepletionDays(rec.DestinationStock, velocity, sim.policy.DepletionCapDays)

		target := velocity * float64(sim.policy.HorizonDays)
		if s.sweep {
			target = rec.DestinationStock + float64(qty)
		}

		group := ProductGroup(rec.Key)
		recs = append(recs, models.Recommendation{
			Key:                  rec.Key,
			Name:                 rec.Name,
			Group:                group,
			DisplayGroup:         DisplayGroup(group),
			TransferQty:          qty,
			Sweep:                s.sweep,
			DepletionDays:        days,
			DisplayDepletionDays: int(math.RoundToEven(days)),
			DestinationStock:     rec.DestinationStock,
			OriginStock:          rec.OriginStock,
			DestinationVelocity:  math.RoundToEven(velocity*10) / 10,
			OriginRetained:       max(0, rec.OriginStock-drain.amount[rec.Key]),
			DestinationTarget:    target,
		})
	})

	urgency := make(map[string]float64)
	for _, r := range recs {
		s := sim.states[r.Key]
		urgency[r.Group] += max(0, sim.policy.UrgencyHorizonDays-r.DepletionDays) * s.profile.DestinationVelocity
	}
	for i := range recs {
		recs[i].GroupUrgency = urgency[recs[i].Group]
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].DepletionDays != recs[j].DepletionDays {
			return recs[i].DepletionDays < recs[j].DepletionDays
		}
		return recs[i].TransferQty > recs[j].TransferQty
	})

	return recs
}
