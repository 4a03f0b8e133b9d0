package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// MutationKind is the outcome of the per-genome mutation draw.
type MutationKind int

const (
	NoMutation MutationKind = iota
	WeightMutation
	AddNodeMutation
	AddConnectionMutation
)

func (k MutationKind) String() string {
	switch k {
	case NoMutation:
		return "none"
	case WeightMutation:
		return "weights"
	case AddNodeMutation:
		return "add-node"
	case AddConnectionMutation:
		return "add-connection"
	}
	return fmt.Sprintf("MutationKind(%d)", int(k))
}

// SelectMutation maps one uniform draw onto the mutually exclusive mutation
// bands, checked in priority order: weights, add-node, add-connection.
// A draw past the sum of the three probabilities selects no mutation.
func SelectMutation(roll float64, config *GenomeConfig) MutationKind {
	bound := config.WeightMutateProb
	if roll < bound {
		return WeightMutation
	}
	bound += config.NodeAddProb
	if roll < bound {
		return AddNodeMutation
	}
	bound += config.ConnAddProb
	if roll < bound {
		return AddConnectionMutation
	}
	return NoMutation
}

// Mutate applies one mutation of the given kind to g.
func Mutate(g *Genome, kind MutationKind, rng *rand.Rand) {
	switch kind {
	case WeightMutation:
		g.MutateWeights(g.Config.WeightReplaceProb, rng)
	case AddNodeMutation:
		g.MutateAddNode(rng)
	case AddConnectionMutation:
		g.MutateAddConnection(rng)
	}
}

// EliteCount is floor(popSize * survivalRate).
func EliteCount(popSize int, survivalRate float64) int {
	return int(math.Floor(float64(popSize) * survivalRate))
}

// OffspringCounts splits the remaining slot budget across species in
// proportion to their shared fitness, floor(speciesFitness/total*remaining);
// fractional remainders are dropped. When the total is not positive every
// species gets an equal floor(remaining/len(species)) share instead, and
// uniform is reported true.
func OffspringCounts(species []*Species, remaining float64) (counts []int, uniform bool) {
	counts = make([]int, len(species))
	if len(species) == 0 {
		return counts, false
	}

	total := 0.0
	for _, s := range species {
		total += s.TotalFitness()
	}
	if !(total > 0) || math.IsInf(total, 0) {
		each := int(math.Floor(remaining / float64(len(species))))
		for i := range counts {
			counts[i] = each
		}
		return counts, true
	}

	for i, s := range species {
		n := int(math.Floor(s.TotalFitness() / total * remaining))
		if n < 0 {
			n = 0
		}
		counts[i] = n
	}
	return counts, false
}

// ReproductionResult describes how the next generation was composed.
type ReproductionResult struct {
	Elites          int
	Offspring       []int // per species, in species order
	UniformFallback bool  // total shared fitness was not positive
	Mutations       map[MutationKind]int
}

// Reproduce builds the next generation from a ranked state:
//
//  1. the generation counter is incremented;
//  2. floor(PopSize*SurvivalRate) elites are copied over unchanged;
//  3. each species breeds its OffspringCounts share of PopSize*(1-SurvivalRate),
//     crossing two members sampled with replacement, the one whose network
//     has the higher fitness as the dominant parent;
//  4. every new genome, elites included, gets one SelectMutation draw;
//  5. species are reset and the realised size becomes the new PopSize.
//
// Which end of the ranking the elites come from is set by
// ReproductionConfig.EliteSelection.
func Reproduce(st *GenerationState, config *Config, rng *rand.Rand) (*ReproductionResult, error) {
	if len(st.Ranking) != len(st.Genomes) {
		return nil, fmt.Errorf("ranking has %d networks for %d genomes", len(st.Ranking), len(st.Genomes))
	}
	survival := config.Reproduction.SurvivalRate
	st.Generation++

	result := &ReproductionResult{
		Elites:    EliteCount(st.PopSize, survival),
		Mutations: make(map[MutationKind]int),
	}
	if result.Elites > len(st.Ranking) {
		result.Elites = len(st.Ranking)
	}

	next := make([]*Genome, 0, st.PopSize)
	for _, net := range eliteSlice(st.Ranking, result.Elites, config.Reproduction.EliteSelection) {
		next = append(next, st.Genome(net.GenomeID()).Copy())
	}

	remaining := float64(st.PopSize) * (1 - survival)
	result.Offspring, result.UniformFallback = OffspringCounts(st.Species, remaining)
	for si, s := range st.Species {
		for k := 0; k < result.Offspring[si]; k++ {
			p1, p2 := s.SampleMember(rng), s.SampleMember(rng)
			if st.Networks[p1].Fitness() > st.Networks[p2].Fitness() {
				next = append(next, Crossover(st.Genome(p1), st.Genome(p2), rng))
			} else {
				next = append(next, Crossover(st.Genome(p2), st.Genome(p1), rng))
			}
		}
	}

	for _, g := range next {
		kind := SelectMutation(rng.Float64(), &config.Genome)
		Mutate(g, kind, rng)
		result.Mutations[kind]++
	}

	for _, s := range st.Species {
		s.Reset()
	}
	st.Genomes = next
	st.PopSize = len(next)
	st.SpeciesOf = nil
	st.Networks = nil
	st.Ranking = nil
	return result, nil
}

// eliteSlice picks n networks from an ascending ranking: the front for the
// literal policy, otherwise the back, best first.
func eliteSlice(ranking []Network, n int, policy string) []Network {
	if policy == EliteLiteral {
		return ranking[:n]
	}
	elites := make([]Network, 0, n)
	for i := len(ranking) - 1; i >= len(ranking)-n; i-- {
		elites = append(elites, ranking[i])
	}
	return elites
}
