package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/config"
)

// Backend is the on-chain surface the orchestrator drives. Amounts crossing
// it are always in the token's smallest unit.
type Backend interface {
	TokenBalance(ctx context.Context) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) (txHash string, err error)
	Deposit(ctx context.Context, amount *big.Int) (txHash string, err error)
	Claim(ctx context.Context, amount *big.Int, nonce string, signature string) (txHash string, err error)

	// WaitMined blocks until the transaction is mined, returning an error
	// if it reverted. It takes a hash rather than a transaction object so a
	// resumed operation can wait on a submission from a previous process.
	WaitMined(ctx context.Context, txHash string) error

	// WalletAddress is the sender identity, for allowance checks.
	WalletAddress() string
}

const erc20ABI = `[
	{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const casinoABI = `[
	{"name":"deposit","type":"function","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"claim","type":"function","inputs":[{"name":"amount","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]}
]`

const receiptPollInterval = 2 * time.Second

// EthBackend drives the token and casino contracts over JSON-RPC with a
// locally held signing key.
type EthBackend struct {
	client     *ethclient.Client
	opts       *bind.TransactOpts
	wallet     common.Address
	casinoAddr common.Address
	token      *bind.BoundContract
	casino     *bind.BoundContract
}

func NewEthBackend(cfg *config.Config) (*EthBackend, error) {
	client, err := ethclient.Dial(cfg.ChainRPCURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial chain rpc")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse wallet private key")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, errors.Wrap(err, "build transactor")
	}

	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse token abi")
	}
	gameABI, err := abi.JSON(strings.NewReader(casinoABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse casino abi")
	}

	casinoAddr := common.HexToAddress(cfg.CasinoAddress)
	return &EthBackend{
		client:     client,
		opts:       opts,
		wallet:     crypto.PubkeyToAddress(key.PublicKey),
		casinoAddr: casinoAddr,
		token:      bind.NewBoundContract(common.HexToAddress(cfg.TokenAddress), tokenABI, client, client, client),
		casino:     bind.NewBoundContract(casinoAddr, gameABI, client, client, client),
	}, nil
}

func (b *EthBackend) WalletAddress() string {
	return b.wallet.Hex()
}

func (b *EthBackend) TokenBalance(ctx context.Context) (*big.Int, error) {
	var out []any
	opts := &bind.CallOpts{Context: ctx}
	if err := b.token.Call(opts, &out, "balanceOf", b.wallet); err != nil {
		return nil, errors.Wrap(err, "balanceOf")
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf returned unexpected type")
	}
	return balance, nil
}

func (b *EthBackend) Approve(ctx context.Context, amount *big.Int) (string, error) {
	tx, err := b.token.Transact(b.txOpts(ctx), "approve", b.casinoAddr, amount)
	if err != nil {
		return "", errors.Wrap(err, "approve")
	}
	log.WithFields(log.Fields{"tx": tx.Hash().Hex(), "amount": amount.String()}).
		Info("approval submitted")
	return tx.Hash().Hex(), nil
}

func (b *EthBackend) Deposit(ctx context.Context, amount *big.Int) (string, error) {
	tx, err := b.casino.Transact(b.txOpts(ctx), "deposit", amount)
	if err != nil {
		return "", errors.Wrap(err, "deposit")
	}
	log.WithFields(log.Fields{"tx": tx.Hash().Hex(), "amount": amount.String()}).
		Info("deposit submitted")
	return tx.Hash().Hex(), nil
}

// parseVoucherNonce accepts both decimal and 0x-prefixed hex nonces, since
// backends disagree on which encoding a voucher carries.
func parseVoucherNonce(nonce string) (*big.Int, error) {
	digits, base := nonce, 10
	if strings.HasPrefix(nonce, "0x") || strings.HasPrefix(nonce, "0X") {
		digits, base = nonce[2:], 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.Errorf("malformed voucher nonce %q", nonce)
	}
	return n, nil
}

func (b *EthBackend) Claim(ctx context.Context, amount *big.Int, nonce string, signature string) (string, error) {
	nonceInt, err := parseVoucherNonce(nonce)
	if err != nil {
		return "", err
	}
	tx, err := b.casino.Transact(b.txOpts(ctx), "claim", amount, nonceInt, common.FromHex(signature))
	if err != nil {
		return "", errors.Wrap(err, "claim")
	}
	log.WithFields(log.Fields{"tx": tx.Hash().Hex(), "amount": amount.String()}).
		Info("claim submitted")
	return tx.Hash().Hex(), nil
}

// WaitMined polls for the receipt. A receipt with a failed status means the
// transaction reverted on-chain.
func (b *EthBackend) WaitMined(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == 0 {
				return errors.Errorf("transaction %s reverted", txHash)
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return errors.Wrapf(err, "receipt for %s", txHash)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (b *EthBackend) txOpts(ctx context.Context) *bind.TransactOpts {
	opts := *b.opts
	opts.Context = ctx
	return &opts
}
