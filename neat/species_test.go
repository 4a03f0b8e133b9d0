package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	config := DefaultConfig()
	config.Neat.PopSize = 20
	config.Neat.Seed = 1
	return config
}

func newTestState(t *testing.T, config *Config, seed int64) *GenerationState {
	t.Helper()
	h := NewInnovationHistory(config.Genome.NumInputs, config.Genome.NumOutputs)
	return NewGenerationState(&config.Genome, h, config.Neat.PopSize, rand.New(rand.NewSource(seed)))
}

func TestSpeciesMembership(t *testing.T) {
	mascot := genomeWith(conn(1, 0))
	s := NewSpecies(7, mascot)
	assert.Same(t, mascot, s.Mascot())
	assert.Zero(t, s.MemberCount())

	s.AddMember(3)
	s.AddMember(1)
	assert.Equal(t, []GenomeID{3, 1}, s.Members())

	members := s.Members()
	members[0] = 99
	assert.Equal(t, []GenomeID{3, 1}, s.Members(), "Members returns a copy")

	s.AddFitness(1.5)
	s.AddFitness(0.5)
	assert.Equal(t, 2.0, s.TotalFitness())

	s.Reset()
	assert.Zero(t, s.MemberCount())
	assert.Zero(t, s.TotalFitness())
	assert.Same(t, mascot, s.Mascot())
}

func TestSpeciesSampling(t *testing.T) {
	genomes := []*Genome{genomeWith(conn(1, 0)), genomeWith(conn(1, 1)), genomeWith(conn(1, 2))}
	s := NewSpecies(1, genomes[0])
	s.AddMember(1)
	s.AddMember(2)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		assert.Contains(t, []GenomeID{1, 2}, s.SampleMember(rng))
		s.RandomMascot(genomes, rng)
		assert.NotSame(t, genomes[0], s.Mascot())
	}

	empty := NewSpecies(2, genomes[0])
	assert.Panics(t, func() { empty.SampleMember(rng) })
}

func TestSpeciateEveryGenomeInExactlyOneSpecies(t *testing.T) {
	config := testConfig()
	config.SpeciesSet.CompatibilityThreshold = 0.3
	st := newTestState(t, config, 11)

	Speciate(st, config, rand.New(rand.NewSource(1)))

	seen := map[GenomeID]int{}
	for _, s := range st.Species {
		assert.Positive(t, s.MemberCount(), "empty species must be pruned")
		for _, id := range s.Members() {
			seen[id]++
			assert.Same(t, s, st.SpeciesOf[id])
		}
	}
	require.Len(t, seen, len(st.Genomes))
	for id, n := range seen {
		assert.Equal(t, 1, n, "genome %d", id)
	}
	assert.Len(t, st.SpeciesOf, len(st.Genomes))
}

func TestSpeciateFirstMatchWins(t *testing.T) {
	config := testConfig()
	config.SpeciesSet.CompatibilityThreshold = 1.0

	g := genomeWith(conn(1, 0), conn(2, 0))
	first := NewSpecies(1, genomeWith(conn(1, 0.5), conn(2, 0.5)))
	closer := NewSpecies(2, genomeWith(conn(1, 0), conn(2, 0)))
	st := &GenerationState{
		Generation:     1,
		PopSize:        1,
		Genomes:        []*Genome{g},
		Species:        []*Species{first, closer},
		nextSpeciesKey: 3,
	}

	Speciate(st, config, rand.New(rand.NewSource(1)))

	require.Len(t, st.Species, 1, "the unused species is pruned")
	assert.Same(t, first, st.Species[0])
	assert.Same(t, first, st.SpeciesOf[0])
	assert.Same(t, g, first.Mascot(), "mascot is re-rolled from the members")

	// Swapping the list order flips the outcome.
	st.Species = []*Species{closer, first}
	Speciate(st, config, rand.New(rand.NewSource(1)))
	require.Len(t, st.Species, 1)
	assert.Same(t, closer, st.Species[0])
}

func TestSpeciateFoundsNewSpecies(t *testing.T) {
	config := testConfig()
	config.SpeciesSet.CompatibilityThreshold = 1.0

	near := genomeWith(conn(1, 0))
	far := genomeWith(conn(1, 0), conn(2, 0), conn(3, 0))
	existing := NewSpecies(4, genomeWith(conn(1, 0.1)))
	st := &GenerationState{
		Genomes:        []*Genome{near, far},
		PopSize:        2,
		Species:        []*Species{existing},
		nextSpeciesKey: 5,
	}

	Speciate(st, config, rand.New(rand.NewSource(1)))

	require.Len(t, st.Species, 2)
	assert.Equal(t, 4, st.Species[0].Key)
	assert.Equal(t, 5, st.Species[1].Key)
	assert.Equal(t, []GenomeID{0}, st.Species[0].Members())
	assert.Equal(t, []GenomeID{1}, st.Species[1].Members())
	assert.Same(t, far, st.Species[1].Mascot())
}

func TestSpeciateIsRepeatable(t *testing.T) {
	config := testConfig()
	config.SpeciesSet.CompatibilityThreshold = 100
	st := newTestState(t, config, 13)

	Speciate(st, config, rand.New(rand.NewSource(1)))
	require.Len(t, st.Species, 1)
	first := st.Species[0].Members()

	// Lookups from an earlier pass never survive a new one.
	stale := NewSpecies(99, st.Genomes[0])
	st.SpeciesOf[GenomeID(len(st.Genomes))] = stale

	Speciate(st, config, rand.New(rand.NewSource(2)))
	require.Len(t, st.Species, 1)
	assert.Equal(t, first, st.Species[0].Members())
	assert.Equal(t, 1, st.Species[0].Key)
	assert.Len(t, st.SpeciesOf, len(st.Genomes))
	assert.NotContains(t, st.SpeciesOf, GenomeID(len(st.Genomes)))
}

func TestEndToEndSingleSpeciesRanking(t *testing.T) {
	config := DefaultConfig()
	config.Neat.PopSize = 4
	config.Genome.NumInputs, config.Genome.NumOutputs = 2, 1
	config.Genome.CompatibilityExcessCoefficient = 0.1
	config.Genome.CompatibilityDisjointCoefficient = 0.1
	config.Genome.CompatibilityWeightCoefficient = 0.1
	config.SpeciesSet.CompatibilityThreshold = 10
	st := newTestState(t, config, 21)

	Speciate(st, config, rand.New(rand.NewSource(1)))
	require.Len(t, st.Species, 1)
	assert.Equal(t, 4, st.Species[0].MemberCount())

	st.Networks = map[GenomeID]Network{}
	for i, f := range []float64{4, 3, 2, 1} {
		p := NewPhenotype(GenomeID(i))
		p.SetFitness(f)
		st.Networks[GenomeID(i)] = p
	}

	require.NoError(t, Rank(st))

	var order []GenomeID
	var shared []float64
	for _, n := range st.Ranking {
		order = append(order, n.GenomeID())
		shared = append(shared, n.Fitness())
	}
	assert.Equal(t, []GenomeID{3, 2, 1, 0}, order)
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75, 1.0}, shared, 1e-12)
	assert.InDelta(t, 2.5, st.Species[0].TotalFitness(), 1e-12)
}
