package neat

import (
	"fmt"
	"math/rand"
)

// NodeKind tells input, output and hidden nodes apart.
type NodeKind int

const (
	InputNode NodeKind = iota
	OutputNode
	HiddenNode
)

func (k NodeKind) String() string {
	switch k {
	case InputNode:
		return "input"
	case OutputNode:
		return "output"
	case HiddenNode:
		return "hidden"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the genome.
type NodeGene struct {
	ID          int
	Kind        NodeKind
	Activation  string // Name of the activation function
	Aggregation string // Name of the aggregation function
}

// NewNodeGene creates a node with the configured default activation and aggregation.
func NewNodeGene(id int, kind NodeKind, config *GenomeConfig) *NodeGene {
	return &NodeGene{
		ID:          id,
		Kind:        kind,
		Activation:  config.ActivationDefault,
		Aggregation: config.AggregationDefault,
	}
}

// String returns a string representation of the NodeGene.
func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Kind: %s, Activation: %s, Aggregation: %s)",
		ng.ID, ng.Kind, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a weighted link between two nodes.
type ConnectionGene struct {
	Innovation int
	InNodeID   int
	OutNodeID  int
	Weight     float64
	Enabled    bool
}

// Key returns the endpoint pair of the connection.
func (cg *ConnectionGene) Key() ConnectionKey {
	return ConnectionKey{InNodeID: cg.InNodeID, OutNodeID: cg.OutNodeID}
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(#%d %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Innovation, cg.InNodeID, cg.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// mutateWeight replaces the weight with a fresh random one with probability
// replaceProb, otherwise nudges it by a gaussian step.
func (cg *ConnectionGene) mutateWeight(replaceProb float64, config *GenomeConfig, rng *rand.Rand) {
	if rng.Float64() < replaceProb {
		cg.Weight = randomWeight(config, rng)
		return
	}
	cg.Weight = clamp(cg.Weight+rng.NormFloat64()*config.WeightMutatePower, config.WeightMinValue, config.WeightMaxValue)
}

func randomWeight(config *GenomeConfig, rng *rand.Rand) float64 {
	w := (rng.Float64()*2 - 1) * config.WeightInitRange
	return clamp(w, config.WeightMinValue, config.WeightMaxValue)
}
