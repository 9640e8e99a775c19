package graph

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// idNamespace scopes node IDs so the same path always yields the same ID.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/kerf/graph"))

// NodeID is a deterministic identifier derived from a node's DSL path.
type NodeID uuid.UUID

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID returns the ID for path, for example "solid/bracket".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(idNamespace, []byte(path)))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

func (id NodeID) String() string { return uuid.UUID(id).String() }

// Short returns the first six bytes of the ID in hex, for messages.
func (id NodeID) Short() string { return hex.EncodeToString(id[:6]) }

// MarshalText lets NodeID key JSON maps.
func (id NodeID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *NodeID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}
