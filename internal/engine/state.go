package engine

import "go.uber.org/zap"

// skuState is the mutable simulation record of one SKU. It is created once per
// run and then mutated in place by the sweep, top-up, depletion and
// correction stages.
type skuState struct {
	profile Profile

	destStock    float64
	originStock  float64
	destDemand   float64
	originDemand float64
	transfer     float64

	exhausted       bool
	sweep           bool
	missingCode     bool
	defenseRequired bool
}

func (s *skuState) key() string {
	return s.profile.Record.Key
}

type simulation struct {
	order  []string
	states map[string]*skuState
	graph  *Graph
	policy Policy
	logger *zap.Logger
}

func newSimulation(profiles []Profile, graph *Graph, policy Policy, logger *zap.Logger) *simulation {
	sim := &simulation{
		order:  make([]string, 0, len(profiles)),
		states: make(map[string]*skuState, len(profiles)),
		graph:  graph,
		policy: policy,
		logger: logger,
	}

	for _, p := range profiles {
		sim.order = append(sim.order, p.Record.Key)
		sim.states[p.Record.Key] = &skuState{
			profile:         p,
			destStock:       p.Record.DestinationStock,
			originStock:     p.Record.OriginStock,
			destDemand:      p.DestinationDemand,
			originDemand:    p.OriginDemand,
			missingCode:     !p.RegistrationValid,
			defenseRequired: p.DefenseRequired,
		}
	}

	return sim
}

func (sim *simulation) each(fn func(*skuState)) {
	for _, key := range sim.order {
		fn(sim.states[key])
	}
}

func (sim *simulation) exhaustedCount() int {
	n := 0
	sim.each(func(s *skuState) {
		if s.exhausted {
			n++
		}
	})
	return n
}

// defenseReserve is the origin stock a SKU must keep for its own channel.
func (sim *simulation) defenseReserve(s *skuState) float64 {
	if !s.defenseRequired {
		return 0
	}
	return max(s.originDemand*sim.policy.OriginDefenseDays, sim.policy.MinOriginStock)
}

// surplus is the origin stock available above the defense reserve.
func (sim *simulation) surplus(s *skuState) float64 {
	return max(0, s.originStock-sim.defenseReserve(s))
}
