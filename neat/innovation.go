package neat

// ConnectionKey identifies a connection by its endpoint node IDs.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// InnovationHistory hands out innovation numbers and node IDs for one run.
// The same structural change gets the same number no matter which genome makes
// it, which is what lets crossover and compatibility distance line genes up.
// It is not safe for concurrent use; reproduction is single threaded.
type InnovationHistory struct {
	nextInnovation int
	nextNodeID     int
	connections    map[ConnectionKey]int
	splits         map[int]int // split connection innovation -> hidden node ID
}

// NewInnovationHistory creates a history for genomes with the given input/output
// counts. Node IDs 0..numInputs-1 are inputs, the next numOutputs IDs are outputs.
func NewInnovationHistory(numInputs, numOutputs int) *InnovationHistory {
	return &InnovationHistory{
		nextInnovation: 1,
		nextNodeID:     numInputs + numOutputs,
		connections:    make(map[ConnectionKey]int),
		splits:         make(map[int]int),
	}
}

// Connection returns the innovation number for an in->out connection, assigning one if new.
func (h *InnovationHistory) Connection(in, out int) int {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	if innov, ok := h.connections[key]; ok {
		return innov
	}
	innov := h.nextInnovation
	h.nextInnovation++
	h.connections[key] = innov
	return innov
}

// Split returns the hidden node ID created by splitting the given connection.
func (h *InnovationHistory) Split(innovation int) int {
	if id, ok := h.splits[innovation]; ok {
		return id
	}
	id := h.NewNodeID()
	h.splits[innovation] = id
	return id
}

// NewNodeID allocates a node ID that no genome has used yet.
func (h *InnovationHistory) NewNodeID() int {
	id := h.nextNodeID
	h.nextNodeID++
	return id
}
