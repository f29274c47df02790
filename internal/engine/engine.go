// Package engine turns merged SKU records and bundle definitions into per-SKU
// transfer recommendations from the origin warehouse to the destination channel.
//
// A run is a fixed pipeline over one shared simulation state: classify, sweep,
// minimum-quantity top-up, day-stepped depletion, defense correction, ranking.
// The engine performs no I/O and is deterministic for identical input order.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
)

// Policy holds the tunable constants of a run.
type Policy struct {
	HorizonDays        int
	MinDestinationQty  float64
	OriginDefenseDays  float64
	MinOriginStock     float64
	OriginDemandWeight float64
	SpikeBlendWeight   float64
	UrgencyHorizonDays float64
	DepletionCapDays   float64
	BOMLayout          BOMLayout
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		HorizonDays:        60,
		MinDestinationQty:  2,
		OriginDefenseDays:  7,
		MinOriginStock:     2,
		OriginDemandWeight: 1.2,
		SpikeBlendWeight:   0.3,
		UrgencyHorizonDays: 7,
		DepletionCapDays:   999,
		BOMLayout:          DefaultBOMLayout(),
	}
}

// ChannelLists carries the operator-maintained SKU lists.
type ChannelLists struct {
	ChannelExclusive []string
	Discontinued     []string
}

// Input is everything a run consumes. A nil BOM switches the run to unit-only mode.
type Input struct {
	Records []models.SKURecord
	BOM     *BOMTable
	Lists   ChannelLists
}

// RunStats summarizes what each stage did.
type RunStats struct {
	SKUs          int
	Sets          int
	Swept         int
	ToppedUp      int
	DaysSimulated int
	Exhausted     int
	Corrected     []string
}

// Result is the output of a run.
type Result struct {
	Recommendations []models.Recommendation
	Stats           RunStats
}

// TotalQty sums the recommended transfer quantities.
func (r *Result) TotalQty() int {
	total := 0
	for _, rec := range r.Recommendations {
		total += rec.TransferQty
	}
	return total
}

// Engine runs the allocation pipeline.
type Engine struct {
	policy Policy
	logger *zap.Logger
}

// New builds an engine.
func New(policy Policy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{policy: policy, logger: logger}
}

// Policy returns the policy the engine runs with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Run executes the full pipeline.
func (e *Engine) Run(in Input) (*Result, error) {
	if e.policy.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", e.policy.HorizonDays)
	}

	graph, err := BuildGraph(in.BOM, e.policy.BOMLayout, e.logger)
	if err != nil {
		if !errors.Is(err, ErrNoBOMTable) {
			return nil, fmt.Errorf("build bom graph: %w", err)
		}
		e.logger.Warn("bom table missing, running in unit-only mode")
		graph = NewGraph()
	}

	result := &Result{Stats: RunStats{Sets: graph.Len()}}
	if len(in.Records) == 0 {
		e.logger.Info("no sku records to simulate")
		return result, nil
	}

	profiles := Classify(in.Records, in.Lists, e.policy, e.logger)
	sim := newSimulation(profiles, graph, e.policy, e.logger)

	result.Stats.SKUs = len(sim.order)
	result.Stats.Swept = sim.sweep()
	result.Stats.ToppedUp = sim.guaranteeMinimum()
	result.Stats.DaysSimulated = sim.deplete()
	result.Stats.Exhausted = sim.exhaustedCount()

	proposals := sim.correct()
	result.Stats.Corrected = proposals.corrected
	result.Recommendations = sim.rank(proposals)

	e.logger.Info("recommendation run finished",
		zap.Int("skus", result.Stats.SKUs),
		zap.Int("sets", result.Stats.Sets),
		zap.Int("swept", result.Stats.Swept),
		zap.Int("topped_up", result.Stats.ToppedUp),
		zap.Int("days", result.Stats.DaysSimulated),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Int("total_qty", result.TotalQty()))

	return result, nil
}
