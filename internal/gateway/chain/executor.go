// Package chain implements on-chain trade execution against a Uniswap V2
// style router. The executor exposes balance reads and buy/sell swaps and
// only returns success after the transaction is mined with a success status.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"vigil/internal/agent/interfaces"
	"vigil/internal/config"
	"vigil/internal/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const ethDecimals = 18

// Executor signs and submits swaps from a single hot wallet.
type Executor struct {
	client         *ethclient.Client
	privateKey     *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	router         common.Address
	token          common.Address
	weth           common.Address
	tokenDecimals  int
	slippagePct    float64
	confirmTimeout time.Duration
	erc20          abi.ABI
	routerContract abi.ABI
}

func NewExecutor(cfg config.ChainConfig) (*Executor, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", cfg.RPCURL, err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	router, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	return &Executor{
		client:         client,
		privateKey:     key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        big.NewInt(cfg.ChainID),
		router:         common.HexToAddress(cfg.RouterAddress),
		token:          common.HexToAddress(cfg.TokenAddress),
		weth:           common.HexToAddress(cfg.WETHAddress),
		tokenDecimals:  cfg.TokenDecimals,
		slippagePct:    cfg.SlippagePct,
		confirmTimeout: time.Duration(cfg.ConfirmTimeoutSeconds) * time.Second,
		erc20:          erc20,
		routerContract: router,
	}, nil
}

func (e *Executor) Close() {
	if e != nil && e.client != nil {
		e.client.Close()
	}
}

func (e *Executor) ETHBalance(ctx context.Context) (decimal.Decimal, error) {
	wei, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read eth balance: %w", err)
	}
	return fromUnits(wei, ethDecimals), nil
}

func (e *Executor) TokenBalance(ctx context.Context) (decimal.Decimal, error) {
	data, err := e.erc20.Pack("balanceOf", e.from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.token, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("call balanceOf: %w", err)
	}
	raw := new(big.Int).SetBytes(out)
	return fromUnits(raw, e.tokenDecimals), nil
}

// ExecuteBuy swaps spendETH worth of ETH into the target token.
func (e *Executor) ExecuteBuy(ctx context.Context, spendETH decimal.Decimal) (string, error) {
	valueWei := toUnits(spendETH, ethDecimals)
	if valueWei.Sign() <= 0 {
		return "", fmt.Errorf("buy amount must be positive, got %s", spendETH)
	}
	path := []common.Address{e.weth, e.token}
	minOut, err := e.minAmountOut(ctx, valueWei, path)
	if err != nil {
		return "", &interfaces.TradeExecutionError{Op: "buy", Err: err}
	}
	data, err := e.routerContract.Pack("swapExactETHForTokens", minOut, path, e.from, e.deadline())
	if err != nil {
		return "", fmt.Errorf("pack swapExactETHForTokens: %w", err)
	}
	hash, err := e.submit(ctx, e.router, valueWei, data)
	if err != nil {
		return "", &interfaces.TradeExecutionError{Op: "buy", Err: err}
	}
	return hash, nil
}

// ExecuteSell swaps the given token amount back into ETH, approving the
// router first if the current allowance does not cover the amount.
func (e *Executor) ExecuteSell(ctx context.Context, amount decimal.Decimal) (string, error) {
	amountIn := toUnits(amount, e.tokenDecimals)
	if amountIn.Sign() <= 0 {
		return "", fmt.Errorf("sell amount must be positive, got %s", amount)
	}
	if err := e.ensureAllowance(ctx, amountIn); err != nil {
		return "", &interfaces.TradeExecutionError{Op: "sell", Err: err}
	}
	path := []common.Address{e.token, e.weth}
	minOut, err := e.minAmountOut(ctx, amountIn, path)
	if err != nil {
		return "", &interfaces.TradeExecutionError{Op: "sell", Err: err}
	}
	data, err := e.routerContract.Pack("swapExactTokensForETH", amountIn, minOut, path, e.from, e.deadline())
	if err != nil {
		return "", fmt.Errorf("pack swapExactTokensForETH: %w", err)
	}
	hash, err := e.submit(ctx, e.router, big.NewInt(0), data)
	if err != nil {
		return "", &interfaces.TradeExecutionError{Op: "sell", Err: err}
	}
	return hash, nil
}

func (e *Executor) ensureAllowance(ctx context.Context, need *big.Int) error {
	data, err := e.erc20.Pack("allowance", e.from, e.router)
	if err != nil {
		return fmt.Errorf("pack allowance: %w", err)
	}
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.token, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call allowance: %w", err)
	}
	if new(big.Int).SetBytes(out).Cmp(need) >= 0 {
		return nil
	}
	logger.Infof("router allowance too low, approving %s", need)
	approveData, err := e.erc20.Pack("approve", e.router, need)
	if err != nil {
		return fmt.Errorf("pack approve: %w", err)
	}
	if _, err := e.submit(ctx, e.token, big.NewInt(0), approveData); err != nil {
		return fmt.Errorf("approve router: %w", err)
	}
	return nil
}

// minAmountOut quotes the swap and applies the configured slippage bound.
func (e *Executor) minAmountOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	data, err := e.routerContract.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}
	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.router, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("quote swap: %w", err)
	}
	var amounts []*big.Int
	if err := e.routerContract.UnpackIntoInterface(&amounts, "getAmountsOut", out); err != nil {
		return nil, fmt.Errorf("decode getAmountsOut: %w", err)
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("empty getAmountsOut result")
	}
	expected := amounts[len(amounts)-1]
	// minOut = expected * (1 - slippage), in basis points to stay integral.
	bps := int64((1 - e.slippagePct) * 10000)
	minOut := new(big.Int).Mul(expected, big.NewInt(bps))
	return minOut.Div(minOut, big.NewInt(10000)), nil
}

// submit builds, signs and sends a transaction, then blocks until it is
// mined or the confirmation window runs out.
func (e *Executor) submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (string, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch gas price: %w", err)
	}
	gasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  e.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}
	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(e.chainID), e.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}
	hash := signedTx.Hash()
	logger.Infof("submitted tx %s, waiting for receipt", hash.Hex())
	receipt, err := e.waitMined(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("confirm tx %s: %w", hash.Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("tx %s reverted", hash.Hex())
	}
	return hash.Hex(), nil
}

func (e *Executor) waitMined(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Executor) deadline() *big.Int {
	return big.NewInt(time.Now().Add(10 * time.Minute).Unix())
}

func toUnits(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

func fromUnits(raw *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, 0).Shift(int32(-decimals))
}
