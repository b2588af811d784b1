package vfs

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/acristoffers/void/internal/errs"
)

// wire is the serialized shape of a Filesystem. The graph keys are
// strings because the journal is JSON. Encode after Sort() for a stable
// byte stream.
type wire struct {
	Data  []Chunk             `json:"data"`
	Nodes []node              `json:"nodes"`
	Graph map[string][]uint64 `json:"graph"`
}

// MarshalJSON implements json.Marshaler.
func (fs *Filesystem) MarshalJSON() ([]byte, error) {
	w := wire{
		Data:  fs.chunks,
		Nodes: fs.nodes,
		Graph: make(map[string][]uint64, len(fs.graph)),
	}
	for parent, children := range fs.graph {
		w.Graph[strconv.FormatUint(parent, 10)] = children
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (fs *Filesystem) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("filesystem: %w", errs.ErrCannotDeserialize)
	}
	fs.chunks = w.Data
	fs.nodes = w.Nodes
	fs.graph = make(map[uint64][]uint64, len(w.Graph))
	for key, children := range w.Graph {
		parent, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("graph key %q: %w", key, errs.ErrCannotDeserialize)
		}
		fs.graph[parent] = children
	}
	for i := range fs.nodes {
		if fs.nodes[i].Metadata == nil {
			fs.nodes[i].Metadata = map[string]string{}
		}
	}
	return nil
}
