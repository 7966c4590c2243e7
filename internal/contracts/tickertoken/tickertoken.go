// Package tickertoken binds the ticker token contract: an ERC-20 that owns a
// constant-product ETH/token pool and charges a creator fee on every swap.
package tickertoken

import (
	_ "embed"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed tickertoken.abi.json
var tickerTokenABI string

// TickerTokenMetaData holds the call surface. Bytecode is not embedded: it
// comes from a build artifact, see LoadArtifact.
var TickerTokenMetaData = &bind.MetaData{
	ABI: tickerTokenABI,
}

type TickerToken struct {
	TickerTokenCaller     // Read-only binding to the contract
	TickerTokenTransactor // Write-only binding to the contract
	address               common.Address
}

type TickerTokenCaller struct {
	contract *bind.BoundContract
}

type TickerTokenTransactor struct {
	contract *bind.BoundContract
}

func NewTickerToken(address common.Address, backend bind.ContractBackend) (*TickerToken, error) {
	contract, err := bindTickerToken(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &TickerToken{
		TickerTokenCaller:     TickerTokenCaller{contract: contract},
		TickerTokenTransactor: TickerTokenTransactor{contract: contract},
		address:               address,
	}, nil
}

func NewTickerTokenCaller(address common.Address, caller bind.ContractCaller) (*TickerTokenCaller, error) {
	contract, err := bindTickerToken(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &TickerTokenCaller{contract: contract}, nil
}

func (t *TickerToken) Address() common.Address { return t.address }

func bindTickerToken(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := TickerTokenMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

func (c *TickerTokenCaller) callUint(opts *bind.CallOpts, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, method, args...); err != nil {
		return new(big.Int), err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *TickerTokenCaller) callString(opts *bind.CallOpts, method string) (string, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, method); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Name is a free data retrieval call binding the contract method 0x06fdde03.
func (c *TickerTokenCaller) Name(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "name")
}

// Symbol is a free data retrieval call binding the contract method 0x95d89b41.
func (c *TickerTokenCaller) Symbol(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "symbol")
}

func (c *TickerTokenCaller) TokenDescription(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "tokenDescription")
}

func (c *TickerTokenCaller) TokenImageUrl(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "tokenImageUrl")
}

// TotalSupply is a free data retrieval call binding the contract method 0x18160ddd.
func (c *TickerTokenCaller) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "totalSupply")
}

// BalanceOf is a free data retrieval call binding the contract method 0x70a08231.
func (c *TickerTokenCaller) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return c.callUint(opts, "balanceOf", account)
}

func (c *TickerTokenCaller) Allowance(opts *bind.CallOpts, owner, spender common.Address) (*big.Int, error) {
	return c.callUint(opts, "allowance", owner, spender)
}

func (c *TickerTokenCaller) Creator(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "creator"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *TickerTokenCaller) CreatorFeePercentage(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "creatorFeePercentage")
}

func (c *TickerTokenCaller) EthReserve(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "ethReserve")
}

func (c *TickerTokenCaller) TokenReserve(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "tokenReserve")
}

// GetTokenPrice returns the token price in ETH, 18 decimals.
func (c *TickerTokenCaller) GetTokenPrice(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "getTokenPrice")
}

// GetEthPrice returns the ETH price in tokens, 18 decimals.
func (c *TickerTokenCaller) GetEthPrice(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "getEthPrice")
}

func (c *TickerTokenCaller) TotalEthFeesCollected(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "totalEthFeesCollected")
}

func (c *TickerTokenCaller) TotalTokenFeesCollected(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "totalTokenFeesCollected")
}

func (c *TickerTokenCaller) TokenBurn(opts *bind.CallOpts) (*big.Int, error) {
	return c.callUint(opts, "tokenBurn")
}

// InitializeLiquidity is a paid mutator transaction; opts.Value carries the ETH side.
func (t *TickerTokenTransactor) InitializeLiquidity(opts *bind.TransactOpts, tokenAmount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "initializeLiquidity", tokenAmount)
}

// SwapEthForTokens is a paid mutator transaction; opts.Value is the ETH sold.
func (t *TickerTokenTransactor) SwapEthForTokens(opts *bind.TransactOpts, minTokensOut *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "swapEthForTokens", minTokensOut)
}

func (t *TickerTokenTransactor) SwapTokensForEth(opts *bind.TransactOpts, tokenAmount, minEthOut *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "swapTokensForEth", tokenAmount, minEthOut)
}

func (t *TickerTokenTransactor) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "approve", spender, amount)
}

func (t *TickerTokenTransactor) PayRoyalty(opts *bind.TransactOpts) (*types.Transaction, error) {
	return t.contract.Transact(opts, "payRoyalty")
}
