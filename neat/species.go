package neat

import (
	"fmt"
	"math/rand"
)

// Species groups structurally similar genomes around a representative
// ("mascot"). Members are kept in insertion order.
type Species struct {
	Key int // Unique identifier for the species.

	mascot  *Genome
	members []GenomeID
	fitness float64 // sum of the members' shared fitness
}

// NewSpecies creates an empty species represented by mascot.
func NewSpecies(key int, mascot *Genome) *Species {
	return &Species{
		Key:    key,
		mascot: mascot,
	}
}

// Mascot returns the genome new candidates are compared against.
func (s *Species) Mascot() *Genome {
	return s.mascot
}

// AddMember appends a genome. Callers guarantee a genome joins one species only.
func (s *Species) AddMember(id GenomeID) {
	s.members = append(s.members, id)
}

// Members returns a copy of the member handles in insertion order.
func (s *Species) Members() []GenomeID {
	return append([]GenomeID(nil), s.members...)
}

// MemberCount returns the number of members.
func (s *Species) MemberCount() int {
	return len(s.members)
}

// RandomMascot replaces the mascot with a uniformly chosen current member.
func (s *Species) RandomMascot(genomes []*Genome, rng *rand.Rand) {
	s.mascot = genomes[s.SampleMember(rng)]
}

// SampleMember returns a uniformly random member, with replacement.
// Sampling an empty species is an invariant violation and panics.
func (s *Species) SampleMember(rng *rand.Rand) GenomeID {
	if len(s.members) == 0 {
		panic(fmt.Sprintf("neat: %v: species %d has no members", ErrEmptySpecies, s.Key))
	}
	return s.members[rng.Intn(len(s.members))]
}

// AddFitness accumulates shared fitness.
func (s *Species) AddFitness(delta float64) {
	s.fitness += delta
}

// TotalFitness returns the accumulated shared fitness.
func (s *Species) TotalFitness() float64 {
	return s.fitness
}

// Reset clears membership and fitness. The mascot is kept for the next speciation pass.
func (s *Species) Reset() {
	s.members = s.members[:0]
	s.fitness = 0
}

// --------------------------- Speciation ---------------------------

// Speciate assigns every genome, in list order, to the first species whose
// mascot is closer than the compatibility threshold, founding a new species
// when none is. First match, not best match: the order of st.Species decides
// ties. Species left without members are pruned and every survivor re-rolls
// its mascot from its new membership, so the next pass compares against this
// generation's genomes.
//
// Membership from any earlier pass is cleared first, which makes repeated
// calls on an unchanged population safe.
func Speciate(st *GenerationState, config *Config, rng *rand.Rand) {
	gc := &config.Genome
	threshold := config.SpeciesSet.CompatibilityThreshold

	for _, s := range st.Species {
		s.Reset()
	}
	st.SpeciesOf = make(map[GenomeID]*Species, len(st.Genomes))

	for i, g := range st.Genomes {
		id := GenomeID(i)
		var home *Species
		for _, s := range st.Species {
			d := CompatibilityDistance(g, s.Mascot(),
				gc.CompatibilityExcessCoefficient, gc.CompatibilityDisjointCoefficient, gc.CompatibilityWeightCoefficient)
			if d < threshold {
				home = s
				break
			}
		}
		if home == nil {
			home = NewSpecies(st.nextSpeciesKey, g)
			st.nextSpeciesKey++
			st.Species = append(st.Species, home)
		}
		home.AddMember(id)
		st.SpeciesOf[id] = home
	}

	survivors := make([]*Species, 0, len(st.Species))
	for _, s := range st.Species {
		if s.MemberCount() == 0 {
			continue
		}
		s.RandomMascot(st.Genomes, rng)
		survivors = append(survivors, s)
	}
	st.Species = survivors
}
