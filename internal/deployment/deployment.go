// Package deployment remembers the token deployed on each chain. There is at
// most one record per chain; a new deployment replaces it.
package deployment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/storage"
)

type Record struct {
	Deployer string `json:"deployer"`
	Contract string `json:"contract"`
	// Network is the decimal chain id.
	Network string `json:"network"`

	Name        string    `json:"name,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	IPFSHash    string    `json:"ipfsHash,omitempty"`
	TxHash      string    `json:"txHash,omitempty"`
	DeployedAt  time.Time `json:"deployedAt"`
}

func Key(chainID uint64) string {
	return constants.DeploymentKeyPrefix + strconv.FormatUint(chainID, 10)
}

type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Save overwrites the record for chainID.
func (s *Store) Save(ctx context.Context, chainID uint64, r Record) error {
	if r.Contract == "" {
		return fmt.Errorf("deployment record has no contract address")
	}
	if r.Network == "" {
		r.Network = strconv.FormatUint(chainID, 10)
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal deployment record: %w", err)
	}
	return s.kv.Set(ctx, Key(chainID), string(b))
}

// Load returns the record for chainID. A malformed value is logged and
// reported as absent.
func (s *Store) Load(ctx context.Context, chainID uint64) (*Record, bool, error) {
	raw, ok, err := s.kv.Get(ctx, Key(chainID))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil || r.Contract == "" {
		log.Warn("ignoring malformed deployment record", "key", Key(chainID), "error", err)
		return nil, false, nil
	}
	return &r, true, nil
}

func (s *Store) Clear(ctx context.Context, chainID uint64) error {
	return s.kv.Delete(ctx, Key(chainID))
}
