package neat

// Network is the evaluated phenotype of one genome. The trainer only needs the
// link back to the genome and a fitness value the evaluator writes.
type Network interface {
	GenomeID() GenomeID
	Fitness() float64
	SetFitness(fitness float64)
}

// Builder constructs the network for a genome. One network is built per
// genome per generation.
type Builder interface {
	Build(id GenomeID, g *Genome) (Network, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(id GenomeID, g *Genome) (Network, error)

// Build calls f(id, g).
func (f BuilderFunc) Build(id GenomeID, g *Genome) (Network, error) {
	return f(id, g)
}

// DefaultBuilder builds bare Phenotypes.
var DefaultBuilder Builder = BuilderFunc(func(id GenomeID, _ *Genome) (Network, error) {
	return NewPhenotype(id), nil
})

// Phenotype is a minimal Network: a genome handle and a fitness accumulator.
// Embed it to attach an executable network.
type Phenotype struct {
	id      GenomeID
	fitness float64
}

// NewPhenotype returns a Phenotype with zero fitness.
func NewPhenotype(id GenomeID) *Phenotype {
	return &Phenotype{id: id}
}

func (p *Phenotype) GenomeID() GenomeID { return p.id }

func (p *Phenotype) Fitness() float64 { return p.fitness }

func (p *Phenotype) SetFitness(fitness float64) { p.fitness = fitness }

// AddFitness accumulates reward, e.g. once per simulation tick.
func (p *Phenotype) AddFitness(delta float64) { p.fitness += delta }
