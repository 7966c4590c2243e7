package tickertoken

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Constructor variants shipped by different contract builds.
const (
	ConstructorBasic = 2 // (name, symbol)
	ConstructorFull  = 7 // (name, symbol, logoUrl, description, creatorFeePercent, ethReserve, tokenReserve)
)

// Artifact is a compiled contract as emitted by Hardhat or Foundry.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

type artifactJSON struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// LoadArtifact reads an artifact file. Both the Hardhat ("bytecode": "0x..")
// and Foundry ("bytecode": {"object": "0x.."}) shapes are accepted.
func LoadArtifact(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read artifact %s", path)
	}
	return ParseArtifact(b)
}

func ParseArtifact(b []byte) (*Artifact, error) {
	var raw artifactJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshal artifact")
	}
	if len(raw.ABI) == 0 {
		return nil, errors.New("artifact has no abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse artifact abi")
	}

	hexCode, err := bytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, err
	}
	code := common.FromHex(hexCode)
	if len(code) == 0 {
		return nil, errors.New("artifact has no bytecode")
	}

	return &Artifact{ContractName: raw.ContractName, ABI: parsed, Bytecode: code}, nil
}

func bytecodeHex(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errors.Wrap(err, "unmarshal artifact bytecode")
	}
	return strings.TrimSpace(obj.Object), nil
}

// ConstructorArity is the number of constructor inputs.
func (a *Artifact) ConstructorArity() int {
	return len(a.ABI.Constructor.Inputs)
}

type DeployParams struct {
	Name              string
	Symbol            string
	LogoURL           string
	Description       string
	CreatorFeePercent *big.Int
	EthReserve        *big.Int
	TokenReserve      *big.Int
}

// ConstructorArgs orders p for the artifact's constructor.
func (a *Artifact) ConstructorArgs(p DeployParams) ([]interface{}, error) {
	switch a.ConstructorArity() {
	case ConstructorBasic:
		return []interface{}{p.Name, p.Symbol}, nil
	case ConstructorFull:
		return []interface{}{
			p.Name, p.Symbol, p.LogoURL, p.Description,
			orZero(p.CreatorFeePercent), orZero(p.EthReserve), orZero(p.TokenReserve),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported constructor with %d inputs", a.ConstructorArity())
	}
}

// Deploy sends the creation transaction and binds the result. The caller
// waits for it to be mined.
func Deploy(auth *bind.TransactOpts, backend bind.ContractBackend, a *Artifact, p DeployParams) (common.Address, *types.Transaction, *TickerToken, error) {
	if a == nil {
		return common.Address{}, nil, nil, errors.New("nil artifact")
	}
	args, err := a.ConstructorArgs(p)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	address, tx, _, err := bind.DeployContract(auth, a.ABI, a.Bytecode, backend, args...)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	token, err := NewTickerToken(address, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, token, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
