package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/jhoicas/slipstream/internal/application/billing"
)

var _ billing.IDGenerator = (*Snowflake)(nil)

// Snowflake genera short ids ordenables en base58 (≈11 caracteres) para los links persistidos.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake nodeID entre 0 y 1023; cada réplica debe usar uno distinto.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake: nodo %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

// NewID devuelve un id nuevo.
func (s *Snowflake) NewID() string {
	return s.node.Generate().Base58()
}
