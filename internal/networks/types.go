package networks

import (
	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/constants"
)

type Store struct {
	Schema   int                             `json:"schema"`
	Networks map[string]chains.NetworkConfig `json:"networks"` // key = normalized name
}

func NewEmptyStore() Store {
	return Store{
		Schema:   constants.SchemaV1,
		Networks: map[string]chains.NetworkConfig{},
	}
}
