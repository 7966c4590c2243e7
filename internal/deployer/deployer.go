// Package deployer runs the token deployment flow: validate, pin the logo,
// deploy, remember the contract for the chain, notify side channels, reload.
package deployer

import (
	"context"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/contracts/tickertoken"
	"github.com/tickertool/ticker-tool/internal/deployment"
	"github.com/tickertool/ticker-tool/internal/ipfs"
	"github.com/tickertool/ticker-tool/internal/notify"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

const (
	MsgActiveToken = "You have one active Token on this Network"
	MsgNoToken     = "No deployed contract found for this network."
)

var ErrInvalidRequest = errors.New("invalid deploy request")

type TokenService interface {
	Holder() common.Address
	Deploy(ctx context.Context, artifact *tickertoken.Artifact, p tickertoken.DeployParams) (common.Address, *types.Receipt, error)
	NeedsLiquidity(ctx context.Context, token common.Address) (bool, error)
}

type ActiveNetwork interface {
	ActiveNetwork() (chains.ResolvedChain, error)
}

type Reloader interface {
	Reload(ctx context.Context) (wallet.Status, error)
}

// ArtifactFunc returns the compiled token to deploy.
type ArtifactFunc func() (*tickertoken.Artifact, error)

type Config struct {
	Tokens   TokenService
	Chains   ActiveNetwork
	Records  *deployment.Store
	Artifact ArtifactFunc

	// Optional.
	Uploader ipfs.Uploader
	Notifier *notify.Fanout
	Session  Reloader
}

type Deployer struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) (*Deployer, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("deployer: missing token service")
	}
	if cfg.Chains == nil {
		return nil, errors.New("deployer: missing chain service")
	}
	if cfg.Records == nil {
		return nil, errors.New("deployer: missing record store")
	}
	if cfg.Artifact == nil {
		return nil, errors.New("deployer: missing artifact source")
	}
	return &Deployer{cfg: cfg, now: time.Now}, nil
}

type Request struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Description       string `json:"description"`
	LogoURL           string `json:"logoUrl"`
	CreatorFeePercent int64  `json:"creatorFeePercent"`

	// Initial reserves for contracts that seed the pool at construction, in wei.
	EthReserve   *big.Int `json:"ethReserve,omitempty"`
	TokenReserve *big.Int `json:"tokenReserve,omitempty"`

	// Logo, when set, is pinned and replaces LogoURL.
	Logo         io.Reader `json:"-"`
	LogoFilename string    `json:"-"`
}

func (r *Request) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
	if r.Name == "" {
		return errors.Wrap(ErrInvalidRequest, "token name is required")
	}
	if r.Symbol == "" {
		return errors.Wrap(ErrInvalidRequest, "token symbol is required")
	}
	if r.CreatorFeePercent < 0 || r.CreatorFeePercent > 100 {
		return errors.Wrap(ErrInvalidRequest, "creator fee must be between 0 and 100")
	}
	return nil
}

type Result struct {
	Record  deployment.Record    `json:"record"`
	TxHash  string               `json:"txHash"`
	Network chains.ResolvedChain `json:"network"`
}

func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	network, err := d.cfg.Chains.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	artifact, err := d.cfg.Artifact()
	if err != nil {
		return nil, errors.Wrap(err, "load token artifact")
	}

	var cid string
	if req.Logo != nil {
		if d.cfg.Uploader == nil {
			return nil, ipfs.ErrNotConfigured
		}
		cid, err = d.cfg.Uploader.Upload(ctx, req.LogoFilename, req.Logo)
		if err != nil {
			return nil, errors.Wrap(err, "upload logo")
		}
		req.LogoURL = ipfs.URI(cid)
	}

	addr, receipt, err := d.cfg.Tokens.Deploy(ctx, artifact, tickertoken.DeployParams{
		Name:              req.Name,
		Symbol:            req.Symbol,
		LogoURL:           req.LogoURL,
		Description:       req.Description,
		CreatorFeePercent: big.NewInt(req.CreatorFeePercent),
		EthReserve:        req.EthReserve,
		TokenReserve:      req.TokenReserve,
	})
	if err != nil {
		return nil, err
	}

	rec := deployment.Record{
		Deployer:    d.cfg.Tokens.Holder().Hex(),
		Contract:    addr.Hex(),
		Network:     strconv.FormatUint(network.ChainID, 10),
		Name:        req.Name,
		Symbol:      req.Symbol,
		LogoURL:     req.LogoURL,
		Description: req.Description,
		IPFSHash:    cid,
		TxHash:      receipt.TxHash.Hex(),
		DeployedAt:  d.now().UTC(),
	}
	log.Info("token deployed", "contract", rec.Contract, "network", network.NetworkName, "tx", rec.TxHash)

	if err := d.cfg.Records.Save(ctx, network.ChainID, rec); err != nil {
		return nil, errors.Wrapf(err, "contract deployed at %s but record not saved", rec.Contract)
	}

	if d.cfg.Notifier != nil {
		d.cfg.Notifier.Send(ctx, notify.Event{Deployer: rec.Deployer, Contract: rec.Contract, Network: rec.Network})
	}
	if d.cfg.Session != nil {
		if _, err := d.cfg.Session.Reload(ctx); err != nil {
			log.Warn("session reload after deploy failed", "error", err)
		}
	}

	return &Result{Record: rec, TxHash: rec.TxHash, Network: network}, nil
}

type Status struct {
	Network        chains.ResolvedChain `json:"network"`
	Record         *deployment.Record   `json:"record,omitempty"`
	HasToken       bool                 `json:"hasToken"`
	NeedsLiquidity bool                 `json:"needsLiquidity"`
	Message        string               `json:"message"`
}

// Status reports the token remembered for the active chain.
func (d *Deployer) Status(ctx context.Context) (*Status, error) {
	network, err := d.cfg.Chains.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	rec, ok, err := d.cfg.Records.Load(ctx, network.ChainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Status{Network: network, Message: MsgNoToken}, nil
	}

	st := &Status{Network: network, Record: rec, HasToken: true, Message: MsgActiveToken}
	need, err := d.cfg.Tokens.NeedsLiquidity(ctx, common.HexToAddress(rec.Contract))
	if err != nil {
		log.Warn("failed to read reserves", "contract", rec.Contract, "error", err)
	} else {
		st.NeedsLiquidity = need
	}
	return st, nil
}

// Forget drops the record for the active chain and returns what was removed,
// or nil when nothing was stored. The contract itself is untouched.
func (d *Deployer) Forget(ctx context.Context) (*deployment.Record, error) {
	network, err := d.cfg.Chains.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	rec, ok, err := d.cfg.Records.Load(ctx, network.ChainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if err := d.cfg.Records.Clear(ctx, network.ChainID); err != nil {
		return nil, errors.Wrapf(err, "forget contract %s", rec.Contract)
	}
	log.Info("deployment record cleared", "network", network.NetworkName, "contract", rec.Contract)
	return rec, nil
}
