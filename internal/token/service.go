// Package token reads and trades ticker tokens through the contract binding.
// Every write waits for its receipt and fails on revert.
package token

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/contracts/tickertoken"
	"github.com/tickertool/ticker-tool/internal/utils"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

var (
	ErrReverted         = errors.New("transaction reverted")
	ErrInvalidLiquidity = errors.New("please enter valid amounts")
)

// Reader yields the client used for read-only calls.
type Reader interface {
	ActiveClient(ctx context.Context) (chains.Client, error)
}

// TxProvider signs for the connected account. *wallet.Provider implements it.
type TxProvider interface {
	Address() common.Address
	TransactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, chains.Client, error)
}

type Config struct {
	IPFSGateway string

	// Swap guards. Zero values fall back to the constants package defaults.
	SlippagePercent     decimal.Decimal
	BuyCapSupplyPercent decimal.Decimal
	BuyCapSafetyPercent decimal.Decimal
	// MinLiquidityETH is the smallest ETH amount a pool may be seeded with.
	MinLiquidityETH decimal.Decimal
}

func (c Config) withDefaults() Config {
	if c.SlippagePercent.IsZero() {
		c.SlippagePercent = decimal.NewFromInt(constants.DefaultSlippagePercent)
	}
	if c.BuyCapSupplyPercent.IsZero() {
		c.BuyCapSupplyPercent = decimal.NewFromInt(constants.DefaultBuyCapSupplyPercent)
	}
	if c.BuyCapSafetyPercent.IsZero() {
		c.BuyCapSafetyPercent = decimal.NewFromInt(constants.DefaultBuyCapSafetyPercent)
	}
	if c.MinLiquidityETH.IsZero() {
		c.MinLiquidityETH = decimal.NewFromInt(constants.DefaultMinLiquidityETH)
	}
	return c
}

type Service struct {
	reader Reader
	cfg    Config
	tracer trace.Tracer

	mu          sync.RWMutex
	provider    TxProvider
	onConfirmed []func(ctx context.Context)
}

func NewService(reader Reader, provider TxProvider, cfg Config) *Service {
	return &Service{
		reader:   reader,
		provider: provider,
		cfg:      cfg.withDefaults(),
		tracer:   otel.Tracer("github.com/tickertool/ticker-tool/internal/token"),
	}
}

// OnConfirmed registers fn to run after every successful swap, liquidity,
// approve or royalty transaction.
func (s *Service) OnConfirmed(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfirmed = append(s.onConfirmed, fn)
}

func (s *Service) txProvider() (TxProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return nil, wallet.ErrNoWallet
	}
	return s.provider, nil
}

// Holder is the connected address, or the zero address without a wallet.
func (s *Service) Holder() common.Address {
	p, err := s.txProvider()
	if err != nil {
		return common.Address{}
	}
	return p.Address()
}

func (s *Service) caller(ctx context.Context, token common.Address) (*tickertoken.TickerTokenCaller, error) {
	client, err := s.reader.ActiveClient(ctx)
	if err != nil {
		return nil, err
	}
	return tickertoken.NewTickerTokenCaller(token, client)
}

func (s *Service) startSpan(ctx context.Context, op string, token common.Address) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "token."+op, trace.WithAttributes(attribute.String("token.address", token.Hex())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Buy swaps ethWei for at least minTokensOut.
func (s *Service) Buy(ctx context.Context, token common.Address, ethWei, minTokensOut *big.Int) (*types.Receipt, error) {
	return s.send(ctx, "Buy", token, ethWei, func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.SwapEthForTokens(opts, minTokensOut)
	})
}

// Sell swaps tokenWei for at least minEthOut.
func (s *Service) Sell(ctx context.Context, token common.Address, tokenWei, minEthOut *big.Int) (*types.Receipt, error) {
	return s.send(ctx, "Sell", token, nil, func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.SwapTokensForEth(opts, tokenWei, minEthOut)
	})
}

// AddLiquidity seeds the pool with tokenWei and ethWei. Both must be positive
// and ethWei at least the configured minimum.
func (s *Service) AddLiquidity(ctx context.Context, token common.Address, tokenWei, ethWei *big.Int) (*types.Receipt, error) {
	if err := CheckLiquidity(tokenWei, ethWei, s.cfg.MinLiquidityETH, s.nativeSymbol()); err != nil {
		return nil, err
	}
	return s.send(ctx, "AddLiquidity", token, ethWei, func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.InitializeLiquidity(opts, tokenWei)
	})
}

// CheckLiquidity validates a pool seed. Failures match ErrInvalidLiquidity.
func CheckLiquidity(tokenWei, ethWei *big.Int, minETH decimal.Decimal, symbol string) error {
	if tokenWei == nil || ethWei == nil || tokenWei.Sign() <= 0 || ethWei.Sign() <= 0 {
		return ErrInvalidLiquidity
	}
	if utils.ToDecimal(ethWei, constants.EtherDecimals).LessThan(minETH) {
		return &MinLiquidityError{MinETH: minETH, Symbol: symbol}
	}
	return nil
}

type MinLiquidityError struct {
	MinETH decimal.Decimal
	Symbol string
}

func (e *MinLiquidityError) Error() string {
	return fmt.Sprintf("at least %s %s is required to add liquidity", e.MinETH.String(), e.Symbol)
}

func (e *MinLiquidityError) Is(target error) bool { return target == ErrInvalidLiquidity }

func (s *Service) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return s.send(ctx, "Approve", token, nil, func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.Approve(opts, spender, amount)
	})
}

func (s *Service) PayRoyalty(ctx context.Context, token common.Address) (*types.Receipt, error) {
	return s.send(ctx, "PayRoyalty", token, nil, func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error) {
		return t.PayRoyalty(opts)
	})
}

// Deploy creates a token from artifact and waits for it to be mined. Unlike
// the other writes it does not run the OnConfirmed hooks; the deployer
// reloads once the record is saved.
func (s *Service) Deploy(ctx context.Context, artifact *tickertoken.Artifact, p tickertoken.DeployParams) (common.Address, *types.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "token.Deploy", trace.WithAttributes(attribute.String("token.symbol", p.Symbol)))
	addr, receipt, err := s.deploy(ctx, artifact, p)
	endSpan(span, err)
	return addr, receipt, err
}

func (s *Service) deploy(ctx context.Context, artifact *tickertoken.Artifact, p tickertoken.DeployParams) (common.Address, *types.Receipt, error) {
	provider, err := s.txProvider()
	if err != nil {
		return common.Address{}, nil, err
	}
	opts, client, err := provider.TransactOpts(ctx, nil)
	if err != nil {
		return common.Address{}, nil, err
	}

	addr, tx, _, err := tickertoken.Deploy(opts, client, artifact, p)
	if err != nil {
		return common.Address{}, nil, errors.Wrap(err, "deploy ticker token")
	}
	log.Info("token deployment sent", "address", addr.Hex(), "tx", tx.Hash().Hex())

	receipt, err := s.wait(ctx, client, tx)
	if err != nil {
		return common.Address{}, receipt, err
	}
	return addr, receipt, nil
}

func (s *Service) send(
	ctx context.Context,
	op string,
	token common.Address,
	value *big.Int,
	call func(t *tickertoken.TickerToken, opts *bind.TransactOpts) (*types.Transaction, error),
) (receipt *types.Receipt, err error) {
	ctx, span := s.startSpan(ctx, op, token)
	defer func() { endSpan(span, err) }()

	provider, err := s.txProvider()
	if err != nil {
		return nil, err
	}
	opts, client, err := provider.TransactOpts(ctx, value)
	if err != nil {
		return nil, err
	}
	t, err := tickertoken.NewTickerToken(token, client)
	if err != nil {
		return nil, err
	}

	tx, err := call(t, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", op, token.Hex())
	}
	span.SetAttributes(attribute.String("tx.hash", tx.Hash().Hex()))
	log.Info("transaction sent", "op", op, "token", token.Hex(), "tx", tx.Hash().Hex())

	receipt, err = s.wait(ctx, client, tx)
	if err != nil {
		return receipt, err
	}
	s.confirmed(ctx)
	return receipt, nil
}

func (s *Service) wait(ctx context.Context, client chains.Client, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait mined %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(ErrReverted, "tx=%s", tx.Hash().Hex())
	}
	return receipt, nil
}

func (s *Service) confirmed(ctx context.Context) {
	s.mu.RLock()
	hooks := append([]func(context.Context){}, s.onConfirmed...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}
