package neat

import (
	"fmt"
	"math/rand"
)

// GenomeID is a handle to a genome of the current generation: its index in
// GenerationState.Genomes. Handles are only meaningful within one generation.
type GenomeID int

// Phase is a step of the per-generation state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSpeciating
	PhaseEvaluating
	PhaseRanking
	PhaseReproducing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSpeciating:
		return "speciating"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseRanking:
		return "ranking"
	case PhaseReproducing:
		return "reproducing"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// GenerationState is everything the phase functions (Speciate, Rank,
// Reproduce) read and write. SpeciesOf, Networks and Ranking are scoped to one
// generation: they are rebuilt from scratch by the phase that owns them and
// cleared by Reproduce.
type GenerationState struct {
	Generation int // starts at 1, incremented by Reproduce
	PopSize    int // realised size of the current generation

	Genomes []*Genome  // arena indexed by GenomeID
	Species []*Species // ordered; order is the first-match tie-break

	SpeciesOf map[GenomeID]*Species // built by Speciate
	Networks  map[GenomeID]Network  // built during evaluation
	Ranking   []Network             // ascending shared fitness, built by Rank

	nextSpeciesKey int
}

// NewGenerationState creates generation 1 with popSize minimal random genomes.
func NewGenerationState(config *GenomeConfig, history *InnovationHistory, popSize int, rng *rand.Rand) *GenerationState {
	st := &GenerationState{
		Generation:     1,
		nextSpeciesKey: 1,
	}
	st.seed(config, history, popSize, rng)
	return st
}

// seed replaces the genomes with a fresh random population and drops all species.
func (st *GenerationState) seed(config *GenomeConfig, history *InnovationHistory, popSize int, rng *rand.Rand) {
	st.Genomes = make([]*Genome, popSize)
	for i := range st.Genomes {
		st.Genomes[i] = NewGenome(config, history, rng)
	}
	st.PopSize = popSize
	st.Species = nil
	st.SpeciesOf = nil
	st.Networks = nil
	st.Ranking = nil
}

// Genome resolves a handle.
func (st *GenerationState) Genome(id GenomeID) *Genome {
	return st.Genomes[id]
}
