package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// maxAddConnectionAttempts bounds the random search for an unconnected node pair.
const maxAddConnectionAttempts = 20

// Genome is an evolvable network encoding: node genes plus innovation-numbered
// connection genes. Nodes are kept ordered by ID and connections by innovation.
type Genome struct {
	Nodes       []*NodeGene
	Connections []*ConnectionGene
	Config      *GenomeConfig

	history *InnovationHistory
}

// NewGenome creates a minimal random genome: every input connected to every
// output with a uniformly random weight.
func NewGenome(config *GenomeConfig, history *InnovationHistory, rng *rand.Rand) *Genome {
	g := &Genome{
		Nodes:       make([]*NodeGene, 0, config.NumInputs+config.NumOutputs),
		Connections: make([]*ConnectionGene, 0, config.NumInputs*config.NumOutputs),
		Config:      config,
		history:     history,
	}
	for i := 0; i < config.NumInputs; i++ {
		g.Nodes = append(g.Nodes, NewNodeGene(i, InputNode, config))
	}
	for o := 0; o < config.NumOutputs; o++ {
		g.Nodes = append(g.Nodes, NewNodeGene(config.NumInputs+o, OutputNode, config))
	}
	for _, in := range g.InputIDs() {
		for _, out := range g.OutputIDs() {
			g.addConnection(in, out, randomWeight(config, rng))
		}
	}
	return g
}

// InputIDs returns the IDs of the input nodes in ascending order.
func (g *Genome) InputIDs() []int {
	return g.nodeIDs(InputNode)
}

// OutputIDs returns the IDs of the output nodes in ascending order.
func (g *Genome) OutputIDs() []int {
	return g.nodeIDs(OutputNode)
}

func (g *Genome) nodeIDs(kind NodeKind) []int {
	ids := []int{}
	for _, n := range g.Nodes {
		if n.Kind == kind {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Node returns the node gene with the given ID, or nil.
func (g *Genome) Node(id int) *NodeGene {
	i := sort.Search(len(g.Nodes), func(i int) bool { return g.Nodes[i].ID >= id })
	if i < len(g.Nodes) && g.Nodes[i].ID == id {
		return g.Nodes[i]
	}
	return nil
}

// Connection returns the connection gene between in and out, or nil.
func (g *Genome) Connection(in, out int) *ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	for _, c := range g.Connections {
		if c.Key() == key {
			return c
		}
	}
	return nil
}

func (g *Genome) addNode(n *NodeGene) {
	i := sort.Search(len(g.Nodes), func(i int) bool { return g.Nodes[i].ID >= n.ID })
	g.Nodes = append(g.Nodes, nil)
	copy(g.Nodes[i+1:], g.Nodes[i:])
	g.Nodes[i] = n
}

func (g *Genome) addConnection(in, out int, weight float64) *ConnectionGene {
	c := &ConnectionGene{
		Innovation: g.history.Connection(in, out),
		InNodeID:   in,
		OutNodeID:  out,
		Weight:     weight,
		Enabled:    true,
	}
	i := sort.Search(len(g.Connections), func(i int) bool { return g.Connections[i].Innovation >= c.Innovation })
	g.Connections = append(g.Connections, nil)
	copy(g.Connections[i+1:], g.Connections[i:])
	g.Connections[i] = c
	return c
}

// Copy creates a deep copy of the genome sharing the same config and innovation history.
func (g *Genome) Copy() *Genome {
	c := &Genome{
		Nodes:       make([]*NodeGene, len(g.Nodes)),
		Connections: make([]*ConnectionGene, len(g.Connections)),
		Config:      g.Config,
		history:     g.history,
	}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.Copy()
	}
	for i, conn := range g.Connections {
		c.Connections[i] = conn.Copy()
	}
	return c
}

// String summarises the genome size.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Nodes: %d, Connections: %d)", len(g.Nodes), len(g.Connections))
}

// CompatibilityDistance measures how structurally different two genomes are:
// c1*excess + c2*disjoint + c3*(mean absolute weight difference of matching genes).
// Genes are aligned by innovation number; non-matching genes beyond the other
// genome's highest innovation are excess, the rest are disjoint.
func CompatibilityDistance(a, b *Genome, c1, c2, c3 float64) float64 {
	excess, disjoint, matching := 0, 0, 0
	weightDiff := 0.0

	i, j := 0, 0
	for i < len(a.Connections) && j < len(b.Connections) {
		ca, cb := a.Connections[i], b.Connections[j]
		switch {
		case ca.Innovation == cb.Innovation:
			matching++
			weightDiff += math.Abs(ca.Weight - cb.Weight)
			i++
			j++
		case ca.Innovation < cb.Innovation:
			disjoint++
			i++
		default:
			disjoint++
			j++
		}
	}
	// Whatever is left lies past the end of the exhausted genome.
	excess = (len(a.Connections) - i) + (len(b.Connections) - j)

	distance := c1*float64(excess) + c2*float64(disjoint)
	if matching > 0 {
		distance += c3 * weightDiff / float64(matching)
	}
	return distance
}

// Crossover builds a child from two parents. The fitter parent is dominant:
// the child takes its nodes and all of its disjoint and excess connections,
// while matching connections are inherited from either parent at random.
func Crossover(fitter, lessFit *Genome, rng *rand.Rand) *Genome {
	child := &Genome{
		Nodes:       make([]*NodeGene, len(fitter.Nodes)),
		Connections: make([]*ConnectionGene, 0, len(fitter.Connections)),
		Config:      fitter.Config,
		history:     fitter.history,
	}
	for i, n := range fitter.Nodes {
		child.Nodes[i] = n.Copy()
	}

	other := make(map[int]*ConnectionGene, len(lessFit.Connections))
	for _, c := range lessFit.Connections {
		other[c.Innovation] = c
	}
	for _, c := range fitter.Connections {
		gene := c
		if match, ok := other[c.Innovation]; ok && rng.Float64() < 0.5 {
			gene = match
		}
		child.Connections = append(child.Connections, gene.Copy())
	}
	return child
}

// MutateWeights perturbs every connection weight, replacing it with a fresh
// random value instead with probability randomProb.
func (g *Genome) MutateWeights(randomProb float64, rng *rand.Rand) {
	for _, c := range g.Connections {
		c.mutateWeight(randomProb, g.Config, rng)
	}
}

// MutateAddNode splits a random enabled connection in two: the old link is
// disabled, in->new gets weight 1 and new->out keeps the old weight.
// It reports whether a node was added.
func (g *Genome) MutateAddNode(rng *rand.Rand) bool {
	enabled := make([]*ConnectionGene, 0, len(g.Connections))
	for _, c := range g.Connections {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	split := enabled[rng.Intn(len(enabled))]
	split.Enabled = false

	id := g.history.Split(split.Innovation)
	if g.Node(id) != nil {
		// The same link was split before in this lineage and later re-enabled.
		id = g.history.NewNodeID()
	}
	g.addNode(NewNodeGene(id, HiddenNode, g.Config))
	g.addConnection(split.InNodeID, id, 1.0)
	g.addConnection(id, split.OutNodeID, split.Weight)
	return true
}

// MutateAddConnection links a random pair of previously unconnected nodes.
// Inputs are never targets and self loops are never created; with FeedForward
// set, links that would close a cycle are rejected. It reports whether a
// connection was added.
func (g *Genome) MutateAddConnection(rng *rand.Rand) bool {
	sources := make([]int, 0, len(g.Nodes))
	targets := make([]int, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		sources = append(sources, n.ID)
		if n.Kind != InputNode {
			targets = append(targets, n.ID)
		}
	}
	if len(targets) == 0 {
		return false
	}

	for attempt := 0; attempt < maxAddConnectionAttempts; attempt++ {
		in := sources[rng.Intn(len(sources))]
		out := targets[rng.Intn(len(targets))]
		if in == out || g.Connection(in, out) != nil {
			continue
		}
		if g.Config.FeedForward && g.createsCycle(in, out) {
			continue
		}
		g.addConnection(in, out, randomWeight(g.Config, rng))
		return true
	}
	return false
}

// Graph returns the genome topology as a gonum directed graph whose node IDs
// are the gene IDs. Disabled connections are included unless enabledOnly is set.
func (g *Genome) Graph(enabledOnly bool) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		dg.AddNode(simple.Node(n.ID))
	}
	for _, c := range g.Connections {
		if enabledOnly && !c.Enabled {
			continue
		}
		if c.InNodeID == c.OutNodeID {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(c.InNodeID), simple.Node(c.OutNodeID)))
	}
	return dg
}

// createsCycle reports whether adding in->out would let out reach in.
// Disabled links count too, since crossover may re-enable them.
func (g *Genome) createsCycle(in, out int) bool {
	if in == out {
		return true
	}
	return topo.PathExistsIn(g.Graph(false), simple.Node(out), simple.Node(in))
}
