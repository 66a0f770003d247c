package adapter

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/defibrain/advisory-engine/internal/config"
	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/models"
	"github.com/defibrain/advisory-engine/internal/retry"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// vaultABI is the minimal read surface of the DefiBrain vault contract.
const vaultABI = `[
  {"name":"totalAssets","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"currentAPY","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"strategyName","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"getTotalValue","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"totalDeposited","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"getPositions","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"symbols","type":"string[]"},{"name":"balances","type":"uint256[]"},{"name":"values","type":"uint256[]"}]}
]`

// EthereumLedgerReader implements LedgerReader against an EVM vault contract.
// All fixed-point values are scaled by the configured asset decimals before
// leaving this boundary; nothing downstream sees raw integer units.
type EthereumLedgerReader struct {
	client      *ethclient.Client
	vaultAddr   common.Address
	vaultABI    abi.ABI
	decimals    int32
	readTimeout time.Duration
	retryConfig *retry.Config
	logger      *zap.Logger
}

// NewEthereumLedgerReader creates a ledger reader connected to the configured
// RPC endpoint.
func NewEthereumLedgerReader(cfg *config.ChainConfig, logger *zap.Logger) (*EthereumLedgerReader, error) {
	if cfg.VaultAddress == "" {
		return nil, errors.New("vault address not configured")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial chain RPC %s", cfg.RPCURL)
	}

	parsed, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse vault ABI")
	}

	return &EthereumLedgerReader{
		client:      client,
		vaultAddr:   common.HexToAddress(cfg.VaultAddress),
		vaultABI:    parsed,
		decimals:    int32(cfg.AssetDecimals),
		readTimeout: cfg.ReadTimeout,
		retryConfig: retry.DefaultConfig(),
		logger:      logger.Named("ledger"),
	}, nil
}

// TotalValue reads value, deposited principal and share count for an address
func (r *EthereumLedgerReader) TotalValue(ctx context.Context, address string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.NewInvalidAddressError(address)
	}
	account := common.HexToAddress(address)

	value, err := r.callUint(ctx, "getTotalValue", account)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.NewLedgerUnavailableError("getTotalValue", err)
	}

	deposited, err := r.callUint(ctx, "totalDeposited", account)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.NewLedgerUnavailableError("totalDeposited", err)
	}

	shares, err := r.callUint(ctx, "balanceOf", account)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.NewLedgerUnavailableError("balanceOf", err)
	}

	return r.scale(value), r.scale(deposited), r.scale(shares), nil
}

// Positions reads the address's holdings from the vault contract
func (r *EthereumLedgerReader) Positions(ctx context.Context, address string) ([]RawPosition, error) {
	if !common.IsHexAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}

	out, err := r.call(ctx, "getPositions", common.HexToAddress(address))
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("getPositions", err)
	}
	if len(out) != 3 {
		return nil, apperrors.NewLedgerUnavailableError("getPositions",
			errors.Errorf("unexpected output arity %d", len(out)))
	}

	symbols, ok1 := out[0].([]string)
	balances, ok2 := out[1].([]*big.Int)
	values, ok3 := out[2].([]*big.Int)
	if !ok1 || !ok2 || !ok3 || len(symbols) != len(balances) || len(symbols) != len(values) {
		return nil, apperrors.NewLedgerUnavailableError("getPositions",
			errors.New("malformed position tuple"))
	}

	positions := make([]RawPosition, 0, len(symbols))
	for i, symbol := range symbols {
		positions = append(positions, RawPosition{
			TokenSymbol: symbol,
			Balance:     r.scale(balances[i]),
			Value:       r.scale(values[i]),
		})
	}

	return positions, nil
}

// VaultState reads aggregate vault data. SharePrice is derived here with a
// zero-shares guard so callers never divide by zero.
func (r *EthereumLedgerReader) VaultState(ctx context.Context) (*models.VaultState, error) {
	assets, err := r.callUint(ctx, "totalAssets")
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("totalAssets", err)
	}

	shares, err := r.callUint(ctx, "totalSupply")
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("totalSupply", err)
	}

	apy, err := r.callUint(ctx, "currentAPY")
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("currentAPY", err)
	}

	strategy, err := r.callString(ctx, "strategyName")
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("strategyName", err)
	}

	totalAssets := r.scale(assets)
	totalShares := r.scale(shares)

	sharePrice := decimal.Zero
	if totalShares.IsPositive() {
		sharePrice = totalAssets.Div(totalShares)
	}

	return &models.VaultState{
		TotalAssets: totalAssets,
		TotalShares: totalShares,
		SharePrice:  sharePrice,
		// APY is reported by the contract in basis points
		APY:           decimal.NewFromBigInt(apy, 0).Div(decimal.NewFromInt(100)),
		StrategyLabel: strategy,
	}, nil
}

// call packs and executes a view call against the vault contract, retrying
// transient RPC failures with backoff.
func (r *EthereumLedgerReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := r.vaultABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s call", method)
	}

	msg := ethereum.CallMsg{To: &r.vaultAddr, Data: input}

	var raw []byte
	err = retry.Do(ctx, r.retryConfig, r.logger, func(ctx context.Context, attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, r.readTimeout)
		defer cancel()

		var callErr error
		raw, callErr = r.client.CallContract(callCtx, msg, nil)
		return callErr
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s call failed", method)
	}

	out, err := r.vaultABI.Unpack(method, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s result", method)
	}

	return out, nil
}

// callUint executes a view call returning a single uint256
func (r *EthereumLedgerReader) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := r.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Errorf("%s returned %d values, want 1", method, len(out))
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("%s returned non-uint256 value", method)
	}

	return value, nil
}

// callString executes a view call returning a single string
func (r *EthereumLedgerReader) callString(ctx context.Context, method string, args ...interface{}) (string, error) {
	out, err := r.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", errors.Errorf("%s returned %d values, want 1", method, len(out))
	}

	value, ok := out[0].(string)
	if !ok {
		return "", errors.Errorf("%s returned non-string value", method)
	}

	return value, nil
}

// scale converts a raw fixed-point chain value to a decimal amount
func (r *EthereumLedgerReader) scale(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -r.decimals)
}

// Close releases the underlying RPC connection
func (r *EthereumLedgerReader) Close() {
	r.client.Close()
}
