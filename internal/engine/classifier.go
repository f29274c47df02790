package engine

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
)

var registrationPattern = regexp.MustCompile(`^\d{11}$`)

// Profile is a SKU record with its derived channel attributes.
type Profile struct {
	Record models.SKURecord

	ChannelExclusive  bool
	Discontinued      bool
	RegistrationValid bool
	DefenseRequired   bool

	// DestinationVelocity and OriginVelocity are blended units per day.
	DestinationVelocity float64
	OriginVelocity      float64

	// DestinationDemand and OriginDemand are what the simulation drains per day.
	DestinationDemand float64
	OriginDemand      float64
}

// Classify derives velocities, registration validity and defense requirements.
// Records sharing a key are merged into the first occurrence.
func Classify(records []models.SKURecord, lists ChannelLists, policy Policy, logger *zap.Logger) []Profile {
	if logger == nil {
		logger = zap.NewNop()
	}

	exclusive := toSet(lists.ChannelExclusive)
	discontinued := toSet(lists.Discontinued)

	merged := make([]models.SKURecord, 0, len(records))
	position := make(map[string]int, len(records))
	for _, rec := range records {
		if idx, dup := position[rec.Key]; dup {
			logger.Warn("duplicate sku in inventory, summing stock", zap.String("sku", rec.Key))
			merged[idx] = mergeRecords(merged[idx], rec)
			continue
		}
		position[rec.Key] = len(merged)
		merged = append(merged, rec)
	}

	profiles := make([]Profile, 0, len(merged))
	for _, rec := range merged {
		p := Profile{
			Record:              rec,
			ChannelExclusive:    exclusive[rec.Key],
			Discontinued:        discontinued[rec.Key],
			RegistrationValid:   ValidRegistration(rec.DestinationOptionCode),
			DestinationVelocity: DestinationVelocity(rec),
			OriginVelocity:      OriginVelocity(rec, policy.SpikeBlendWeight),
		}
		p.DefenseRequired = !(p.ChannelExclusive || p.Discontinued)

		if p.RegistrationValid {
			p.DestinationDemand = p.DestinationVelocity
		}
		if p.DefenseRequired {
			p.OriginDemand = p.OriginVelocity * policy.OriginDemandWeight
		}

		profiles = append(profiles, p)
	}

	return profiles
}

// DestinationVelocity prefers direct sales so that quantities redistributed
// from sets are not counted twice.
func DestinationVelocity(rec models.SKURecord) float64 {
	if rec.HasDirectSales {
		return rec.DirectDestinationSales30D / 30
	}
	return rec.DestinationSales30D / 30
}

// OriginVelocity leans toward the 7-day rate only when it exceeds the 30-day rate.
func OriginVelocity(rec models.SKURecord, spikeWeight float64) float64 {
	avg30 := rec.OriginSales30D / 30
	avg7 := rec.OriginSales7D / 7
	if avg7 > avg30 {
		return avg30*(1-spikeWeight) + avg7*spikeWeight
	}
	return avg30
}

// ValidRegistration reports whether code is an 11-digit destination option code.
func ValidRegistration(code string) bool {
	return registrationPattern.MatchString(strings.TrimSpace(code))
}

func mergeRecords(a, b models.SKURecord) models.SKURecord {
	a.OriginStock += b.OriginStock
	a.DestinationStock += b.DestinationStock
	a.DestinationSales7D += b.DestinationSales7D
	a.DestinationSales30D += b.DestinationSales30D
	a.DirectDestinationSales30D += b.DirectDestinationSales30D
	a.HasDirectSales = a.HasDirectSales || b.HasDirectSales
	a.OriginSales7D += b.OriginSales7D
	a.OriginSales30D += b.OriginSales30D
	if a.DestinationOptionCode == "" {
		a.DestinationOptionCode = b.DestinationOptionCode
	}
	if a.Name == "" {
		a.Name = b.Name
	}
	return a
}

func toSet(keys []string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			out[k] = true
		}
	}
	return out
}
