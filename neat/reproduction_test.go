package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMutation(t *testing.T) {
	cfg := testGenomeConfig()
	cfg.WeightMutateProb, cfg.NodeAddProb, cfg.ConnAddProb = 0.8, 0.03, 0.05

	tests := []struct {
		roll float64
		want MutationKind
	}{
		{0, WeightMutation},
		{0.5, WeightMutation},
		{0.81, AddNodeMutation},
		{0.84, AddConnectionMutation},
		{0.9, NoMutation},
		{1.0, NoMutation},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectMutation(tt.roll, cfg), "roll %v", tt.roll)
	}

	cfg.WeightMutateProb = 0
	assert.Equal(t, AddNodeMutation, SelectMutation(0, cfg))

	cfg.NodeAddProb, cfg.ConnAddProb = 0, 0
	assert.Equal(t, NoMutation, SelectMutation(0, cfg))
}

func TestEliteCount(t *testing.T) {
	assert.Equal(t, 0, EliteCount(4, 0.1))
	assert.Equal(t, 5, EliteCount(50, 0.1))
	assert.Equal(t, 3, EliteCount(15, 0.25))
	assert.Equal(t, 0, EliteCount(10, 0))
}

func speciesWithFitness(fitness ...float64) []*Species {
	out := make([]*Species, len(fitness))
	for i, f := range fitness {
		out[i] = NewSpecies(i+1, nil)
		out[i].AddFitness(f)
	}
	return out
}

func TestOffspringCounts(t *testing.T) {
	counts, uniform := OffspringCounts(speciesWithFitness(3, 1), 9)
	assert.Equal(t, []int{6, 2}, counts)
	assert.False(t, uniform)

	counts, uniform = OffspringCounts(speciesWithFitness(0, 0), 9)
	assert.Equal(t, []int{4, 4}, counts)
	assert.True(t, uniform)

	counts, uniform = OffspringCounts(speciesWithFitness(-2, 1), 9)
	assert.Equal(t, []int{4, 4}, counts)
	assert.True(t, uniform)

	counts, _ = OffspringCounts(nil, 9)
	assert.Empty(t, counts)
}

// rankedState builds a ranked generation of popSize genomes whose raw fitness
// comes from fitness(id), split into species by the groups of GenomeIDs.
func rankedState(t *testing.T, config *Config, fitness func(GenomeID) float64, groups ...[]GenomeID) *GenerationState {
	t.Helper()
	st := newTestState(t, config, 31)
	st.SpeciesOf = map[GenomeID]*Species{}
	st.Species = nil
	for i, group := range groups {
		s := NewSpecies(i+1, st.Genome(group[0]))
		for _, id := range group {
			s.AddMember(id)
			st.SpeciesOf[id] = s
		}
		st.Species = append(st.Species, s)
	}
	st.Networks = map[GenomeID]Network{}
	for i := range st.Genomes {
		p := NewPhenotype(GenomeID(i))
		p.SetFitness(fitness(GenomeID(i)))
		st.Networks[GenomeID(i)] = p
	}
	require.NoError(t, Rank(st))
	return st
}

func ids(from, to int) []GenomeID {
	out := []GenomeID{}
	for i := from; i < to; i++ {
		out = append(out, GenomeID(i))
	}
	return out
}

func noMutations(config *Config) {
	config.Genome.WeightMutateProb = 0
	config.Genome.NodeAddProb = 0
	config.Genome.ConnAddProb = 0
}

func TestReproduceElites(t *testing.T) {
	for _, policy := range []string{EliteFittest, EliteLiteral} {
		t.Run(policy, func(t *testing.T) {
			config := testConfig()
			config.Neat.PopSize = 10
			config.Reproduction.SurvivalRate = 0.2
			config.Reproduction.EliteSelection = policy
			noMutations(config)

			st := rankedState(t, config, func(id GenomeID) float64 { return float64(id + 1) }, ids(0, 10))
			old := append([]*Genome(nil), st.Genomes...)

			result, err := Reproduce(st, config, rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			assert.Equal(t, 2, result.Elites)
			assert.Equal(t, []int{8}, result.Offspring)
			assert.Equal(t, 10, st.PopSize)
			require.Len(t, st.Genomes, 10)
			assert.Equal(t, 2, st.Generation)
			assert.Equal(t, 10, result.Mutations[NoMutation])

			want := []*Genome{old[9], old[8]}
			if policy == EliteLiteral {
				want = []*Genome{old[0], old[1]}
			}
			for i, w := range want {
				assert.Equal(t, w, st.Genomes[i])
				assert.NotSame(t, w, st.Genomes[i], "elites are copies")
			}
		})
	}
}

func TestReproduceElitesDoNotAliasMascots(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 10
	config.Reproduction.SurvivalRate = 0.5
	config.Genome.WeightMutateProb = 1
	config.Genome.NodeAddProb, config.Genome.ConnAddProb = 0, 0

	st := rankedState(t, config, func(id GenomeID) float64 { return 1 }, ids(0, 10))
	mascot := st.Species[0].Mascot()
	before := mascot.Copy()

	_, err := Reproduce(st, config, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	assert.Equal(t, before, mascot, "mutating the next generation must not touch the old genomes")
	for _, g := range st.Genomes {
		assert.NotSame(t, mascot, g)
	}
}

func TestReproduceRoundingShrinksPopulation(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 10
	config.Reproduction.SurvivalRate = 0.1
	noMutations(config)

	st := rankedState(t, config, func(GenomeID) float64 { return 1 }, ids(0, 7), ids(7, 10))
	require.InDelta(t, 1.0, st.Species[0].TotalFitness(), 1e-12)
	require.InDelta(t, 1.0, st.Species[1].TotalFitness(), 1e-12)

	result, err := Reproduce(st, config, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Elites)
	assert.Equal(t, []int{4, 4}, result.Offspring)
	assert.False(t, result.UniformFallback)
	assert.Equal(t, 9, st.PopSize)
	assert.Len(t, st.Genomes, result.Elites+result.Offspring[0]+result.Offspring[1])

	for _, s := range st.Species {
		assert.Zero(t, s.MemberCount())
		assert.Zero(t, s.TotalFitness())
	}
	assert.Nil(t, st.SpeciesOf)
	assert.Nil(t, st.Networks)
	assert.Nil(t, st.Ranking)
}

func TestReproduceZeroFitnessFallsBackToUniform(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 10
	config.Reproduction.SurvivalRate = 0.1

	st := rankedState(t, config, func(GenomeID) float64 { return 0 }, ids(0, 7), ids(7, 10))
	result, err := Reproduce(st, config, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	assert.True(t, result.UniformFallback)
	assert.Equal(t, []int{4, 4}, result.Offspring)
	assert.Equal(t, 9, st.PopSize)
}

func TestReproduceCanGoExtinct(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 3
	config.Reproduction.SurvivalRate = 0.3

	st := rankedState(t, config, func(GenomeID) float64 { return 1 }, ids(0, 1), ids(1, 2), ids(2, 3))
	result, err := Reproduce(st, config, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	assert.Zero(t, result.Elites)
	assert.Equal(t, []int{0, 0, 0}, result.Offspring)
	assert.Zero(t, st.PopSize)
	assert.Empty(t, st.Genomes)
}

func TestReproduceRequiresRanking(t *testing.T) {
	config := testConfig()
	st := newTestState(t, config, 6)
	_, err := Reproduce(st, config, rand.New(rand.NewSource(6)))
	assert.Error(t, err)
	assert.Equal(t, 1, st.Generation)
}

func TestSingleMemberSpeciesBreedsWithItself(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 4
	config.Reproduction.SurvivalRate = 0
	noMutations(config)

	st := rankedState(t, config, func(GenomeID) float64 { return 1 }, ids(0, 1), ids(1, 4))
	only := st.Genome(0)

	result, err := Reproduce(st, config, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	// Each species holds half of the shared total.
	require.Equal(t, []int{2, 2}, result.Offspring)
	assert.Equal(t, only, st.Genomes[0])
	assert.Equal(t, only, st.Genomes[1])
}

func TestReproduceFitterSampleIsDominant(t *testing.T) {
	config := testConfig()
	config.Neat.PopSize = 2
	config.Reproduction.SurvivalRate = 0
	noMutations(config)

	// Genome 0 is fitter and carries an extra hidden node, so a child has its
	// node set exactly when genome 0 was the dominant parent.
	var fromFitter, total int
	for seed := int64(1); seed <= 100; seed++ {
		st := rankedState(t, config, func(id GenomeID) float64 { return float64(2 - id) }, ids(0, 2))
		require.True(t, st.Genome(0).MutateAddNode(rand.New(rand.NewSource(seed))))
		fitterNodes, otherNodes := len(st.Genome(0).Nodes), len(st.Genome(1).Nodes)
		require.Greater(t, fitterNodes, otherNodes)

		result, err := Reproduce(st, config, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Equal(t, []int{2}, result.Offspring)

		for _, child := range st.Genomes {
			switch len(child.Nodes) {
			case fitterNodes:
				fromFitter++
			case otherNodes:
			default:
				t.Fatalf("child has %d nodes, want %d or %d", len(child.Nodes), fitterNodes, otherNodes)
			}
			total++
		}
	}

	// Sampling with replacement picks genome 0 at least once in 3 of 4 draws;
	// it would dominate only 1 in 4 if the lower sample led.
	assert.Greater(t, float64(fromFitter)/float64(total), 0.6)
}

func TestMutateDispatch(t *testing.T) {
	cfg := testGenomeConfig()
	h := NewInnovationHistory(cfg.NumInputs, cfg.NumOutputs)
	rng := rand.New(rand.NewSource(8))
	g := NewGenome(cfg, h, rng)

	Mutate(g, NoMutation, rng)
	assert.Len(t, g.Nodes, 3)

	Mutate(g, AddNodeMutation, rng)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Connections, 4)

	Mutate(g, AddConnectionMutation, rng)
	assert.LessOrEqual(t, len(g.Connections), 5)
}
