package neat

import (
	"fmt"
	"sort"
)

// Rank applies explicit fitness sharing and sorts the cohort.
//
// Each network's raw fitness is divided by the member count of its species;
// the shared value replaces the network's fitness and is added to the species
// total. st.Ranking then holds every network in ascending shared fitness, so
// index 0 is the worst and the last index the best. Ties keep genome order.
func Rank(st *GenerationState) error {
	st.Ranking = make([]Network, 0, len(st.Genomes))
	for i := range st.Genomes {
		id := GenomeID(i)
		net, ok := st.Networks[id]
		if !ok {
			return fmt.Errorf("no network for genome %d", id)
		}
		s, ok := st.SpeciesOf[id]
		if !ok {
			return fmt.Errorf("genome %d has no species", id)
		}
		shared := net.Fitness() / float64(s.MemberCount())
		net.SetFitness(shared)
		s.AddFitness(shared)
		st.Ranking = append(st.Ranking, net)
	}
	sort.SliceStable(st.Ranking, func(i, j int) bool {
		return st.Ranking[i].Fitness() < st.Ranking[j].Fitness()
	})
	return nil
}
