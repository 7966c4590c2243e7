package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/utils"
)

// Account is the part of Provider a Session reads.
type Account interface {
	Address() common.Address
	ChainID(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context) (*big.Int, error)
}

// NetworkResolver maps a chain id to a supported network.
type NetworkResolver interface {
	ResolveNetworkByChainID(chainID uint64) (chains.ResolvedChain, error)
}

type Status struct {
	Address        string                `json:"address"`
	Balance        string                `json:"balance"`
	Network        *chains.ResolvedChain `json:"network"`
	IsWrongNetwork bool                  `json:"isWrongNetwork"`
	IsNoWallet     bool                  `json:"isNoWallet"`
	IsConnected    bool                  `json:"isConnected"`
}

// Session is the connection state every screen reads: who is connected, on
// which network, with what balance.
type Session struct {
	resolver NetworkResolver

	mu      sync.RWMutex
	account Account
	status  Status
}

func NewSession(account Account, resolver NetworkResolver) *Session {
	return &Session{account: account, resolver: resolver}
}

// SetAccount swaps the wallet behind the session, e.g. after an unlock.
// Pass nil to model "no wallet installed".
func (s *Session) SetAccount(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = a
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	if st.Network != nil {
		n := *st.Network
		st.Network = &n
	}
	return st
}

// Connect reads address, chain and balance. Without a wallet the status has
// IsNoWallet set and no error is returned. An unsupported chain still
// connects but flags IsWrongNetwork and leaves Network empty.
func (s *Session) Connect(ctx context.Context) (Status, error) {
	s.mu.RLock()
	account := s.account
	s.mu.RUnlock()

	if account == nil {
		s.set(Status{IsNoWallet: true})
		return s.Status(), nil
	}

	st, err := s.read(ctx, account)
	if err != nil {
		log.Warn("failed to connect wallet", "error", err)
		s.set(Status{IsNoWallet: true})
		return s.Status(), err
	}

	s.set(st)
	log.Info("wallet connected", "address", st.Address, "wrongNetwork", st.IsWrongNetwork)
	return s.Status(), nil
}

func (s *Session) read(ctx context.Context, account Account) (Status, error) {
	var st Status

	chainID, err := account.ChainID(ctx)
	if err != nil {
		return Status{}, err
	}
	network, err := s.resolver.ResolveNetworkByChainID(chainID.Uint64())
	if err != nil {
		st.IsWrongNetwork = true
	} else {
		st.Network = &network
	}

	bal, err := account.Balance(ctx)
	if err != nil {
		return Status{}, err
	}

	st.Address = account.Address().Hex()
	st.Balance = utils.FormatEther(bal)
	st.IsConnected = true
	return st, nil
}

// Disconnect clears every field.
func (s *Session) Disconnect() {
	s.set(Status{})
}

// Reload resets and reconnects. It runs after a network switch and after
// every confirmed transaction so balances never go stale.
func (s *Session) Reload(ctx context.Context) (Status, error) {
	s.Disconnect()
	return s.Connect(ctx)
}

func (s *Session) set(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}
