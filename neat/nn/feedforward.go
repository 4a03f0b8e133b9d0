package nn

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/baldhumanity/neat-trainer/neat"
)

// neuralNode is a node prepared for activation, with its functions resolved.
type neuralNode struct {
	ID            int
	ActivationFn  neat.ActivationType
	AggregationFn neat.AggregationType
	Incoming      []link
}

type link struct {
	from   int
	weight float64
}

// FeedForwardNetwork is an executable phenotype of an acyclic genome.
type FeedForwardNetwork struct {
	InputIDs  []int
	OutputIDs []int
	EvalOrder []int // topologically sorted non-input nodes
	Nodes     map[int]neuralNode
}

// CreateFeedForwardNetwork builds a runnable network from the enabled genes
// of g. Nodes are evaluated in topological order, ties broken by node ID.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with FeedForward=false")
	}

	nodes := make(map[int]neuralNode, len(g.Nodes))
	for _, gn := range g.Nodes {
		actFn, err := neat.GetActivation(gn.Activation)
		if err != nil {
			return nil, fmt.Errorf("failed to get activation function '%s' for node %d: %w", gn.Activation, gn.ID, err)
		}
		aggFn, err := neat.GetAggregation(gn.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("failed to get aggregation function '%s' for node %d: %w", gn.Aggregation, gn.ID, err)
		}
		nodes[gn.ID] = neuralNode{ID: gn.ID, ActivationFn: actFn, AggregationFn: aggFn}
	}

	for _, c := range g.Connections {
		if !c.Enabled {
			continue
		}
		node, ok := nodes[c.OutNodeID]
		if !ok {
			return nil, fmt.Errorf("connection %d targets unknown node %d", c.Innovation, c.OutNodeID)
		}
		if _, ok := nodes[c.InNodeID]; !ok {
			return nil, fmt.Errorf("connection %d starts at unknown node %d", c.Innovation, c.InNodeID)
		}
		node.Incoming = append(node.Incoming, link{from: c.InNodeID, weight: c.Weight})
		nodes[c.OutNodeID] = node
	}

	sorted, err := topo.SortStabilized(g.Graph(true), byID)
	if err != nil {
		return nil, fmt.Errorf("failed topological sort: %w", err)
	}

	inputs := g.InputIDs()
	isInput := make(map[int]bool, len(inputs))
	for _, id := range inputs {
		isInput[id] = true
	}
	order := make([]int, 0, len(sorted))
	for _, n := range sorted {
		if id := int(n.ID()); !isInput[id] {
			order = append(order, id)
		}
	}

	return &FeedForwardNetwork{
		InputIDs:  inputs,
		OutputIDs: g.OutputIDs(),
		EvalOrder: order,
		Nodes:     nodes,
	}, nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// Activate computes the network's outputs for one input vector.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputIDs) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputIDs))
	}

	values := make(map[int]float64, len(net.Nodes))
	for i, id := range net.InputIDs {
		values[id] = inputs[i]
	}

	var buf []float64
	for _, id := range net.EvalOrder {
		node := net.Nodes[id]
		buf = buf[:0]
		for _, l := range node.Incoming {
			buf = append(buf, values[l.from]*l.weight)
		}
		values[id] = node.ActivationFn(node.AggregationFn(buf))
	}

	outputs := make([]float64, len(net.OutputIDs))
	for i, id := range net.OutputIDs {
		outputs[i] = values[id]
	}
	return outputs, nil
}
