// Package client talks to the chain. Client exposes only reads; SigningClient
// adds instruction submission and requires a wallet, so unauthenticated code
// paths cannot reach a signature at compile time.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
	"github.com/yashhsm/morpho-on-solana/internal/wallet"
)

var (
	ErrAccountNotFound  = errors.New("account not found on chain")
	ErrEmptyTransaction = errors.New("no instructions to submit")
)

// rpcAPI is the slice of the RPC client surface the console touches. Tests
// substitute an in-memory fake.
type rpcAPI interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Client is the read-only chain view.
type Client struct {
	rpc        rpcAPI
	commitment rpc.CommitmentType
	logger     *slog.Logger
}

func New(cfg config.ChainConfig, logger *slog.Logger) *Client {
	if !cfg.ProgramID.IsZero() {
		morpho.ProgramID = cfg.ProgramID
	}
	return &Client{
		rpc:        rpc.New(cfg.RPCURL),
		commitment: cfg.Commitment,
		logger:     logger,
	}
}

// SigningClient extends Client with submission. All reads remain available.
type SigningClient struct {
	*Client
	signer        wallet.Signer
	skipPreflight bool
	maxRetries    *uint
	txTimeout     time.Duration
}

func NewSigning(cfg config.ChainConfig, signer wallet.Signer, logger *slog.Logger) *SigningClient {
	return &SigningClient{
		Client:        New(cfg, logger),
		signer:        signer,
		skipPreflight: cfg.SkipPreflight,
		maxRetries:    cfg.MaxRetries,
		txTimeout:     cfg.TxTimeout,
	}
}

func (c *SigningClient) Signer() solana.PublicKey {
	return c.signer.PublicKey()
}

// account returns the full account record, mapping a missing account to
// ErrAccountNotFound.
func (c *Client) account(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return nil, fmt.Errorf("get account %s: %w", address, err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return result.Value, nil
}

func (c *Client) accountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	acc, err := c.account(ctx, address)
	if err != nil {
		return nil, err
	}
	return acc.Data.GetBinary(), nil
}

// AccountExists performs a bare existence probe.
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.account(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) FetchProtocol(ctx context.Context) (*morpho.Protocol, error) {
	address, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch protocol state: %w", err)
	}
	return morpho.ParseAccount_Protocol(data)
}

func (c *Client) FetchMarket(ctx context.Context, id morpho.MarketID) (*morpho.Market, error) {
	address, _, err := morpho.DeriveMarketPDA(id)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", id, err)
	}
	return morpho.ParseAccount_Market(data)
}

func (c *Client) FetchPosition(ctx context.Context, id morpho.MarketID, owner solana.PublicKey) (*morpho.Position, error) {
	address, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch position %s/%s: %w", id, owner, err)
	}
	return morpho.ParseAccount_Position(data)
}

// MarketEntry pairs a decoded market with its on-chain address.
type MarketEntry struct {
	Address solana.PublicKey
	Market  *morpho.Market
}

type PositionEntry struct {
	Address  solana.PublicKey
	Position *morpho.Position
}

// FetchAllMarkets scans the program for market accounts, filtered server-side
// on the account discriminator. Undecodable accounts are logged and skipped
// so one corrupt record cannot blank the whole market list.
func (c *Client) FetchAllMarkets(ctx context.Context) ([]MarketEntry, error) {
	accounts, err := c.scanProgramAccounts(ctx, morpho.Account_Market, nil)
	if err != nil {
		return nil, fmt.Errorf("scan market accounts: %w", err)
	}

	entries := make([]MarketEntry, 0, len(accounts))
	for _, item := range accounts {
		if item == nil || item.Account == nil {
			continue
		}
		market, err := morpho.ParseAccount_Market(item.Account.Data.GetBinary())
		if err != nil {
			c.logger.Warn("skipping undecodable market account", "pubkey", item.Pubkey, "err", err)
			continue
		}
		entries = append(entries, MarketEntry{Address: item.Pubkey, Market: market})
	}
	return entries, nil
}

// Position layout places the owner key immediately after the discriminator
// and bump, so owner filtering happens server-side.
const positionOwnerOffset = 8 + 1

func (c *Client) FetchPositionsByOwner(ctx context.Context, owner solana.PublicKey) ([]PositionEntry, error) {
	ownerFilter := rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{Offset: positionOwnerOffset, Bytes: solana.Base58(owner.Bytes())},
	}
	accounts, err := c.scanProgramAccounts(ctx, morpho.Account_Position, []rpc.RPCFilter{ownerFilter})
	if err != nil {
		return nil, fmt.Errorf("scan positions for %s: %w", owner, err)
	}

	entries := make([]PositionEntry, 0, len(accounts))
	for _, item := range accounts {
		if item == nil || item.Account == nil {
			continue
		}
		position, err := morpho.ParseAccount_Position(item.Account.Data.GetBinary())
		if err != nil {
			c.logger.Warn("skipping undecodable position account", "pubkey", item.Pubkey, "err", err)
			continue
		}
		entries = append(entries, PositionEntry{Address: item.Pubkey, Position: position})
	}
	return entries, nil
}

func (c *Client) scanProgramAccounts(ctx context.Context, discriminator [8]byte, extra []rpc.RPCFilter) (rpc.GetProgramAccountsResult, error) {
	filters := append([]rpc.RPCFilter{
		{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58(discriminator[:])}},
	}, extra...)
	return c.rpc.GetProgramAccountsWithOpts(ctx, morpho.ProgramID, &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Filters:    filters,
	})
}

// FetchOraclePrice reads one oracle account and decodes its price when
// the account is a static oracle.
func (c *Client) FetchOraclePrice(ctx context.Context, oracle solana.PublicKey) (*big.Int, error) {
	data, err := c.accountData(ctx, oracle)
	if err != nil {
		return nil, fmt.Errorf("fetch oracle %s: %w", oracle, err)
	}
	return morpho.OraclePrice(data)
}

// FetchOraclePrices batches price reads for a market list in one RPC call.
// Oracles that are missing or not decodable off chain are simply absent from
// the result.
func (c *Client) FetchOraclePrices(ctx context.Context, oracles []solana.PublicKey) (map[solana.PublicKey]*big.Int, error) {
	prices := make(map[solana.PublicKey]*big.Int, len(oracles))
	if len(oracles) == 0 {
		return prices, nil
	}
	result, err := c.rpc.GetMultipleAccountsWithOpts(ctx, oracles, &rpc.GetMultipleAccountsOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch oracle accounts: %w", err)
	}
	if result == nil {
		return prices, nil
	}
	for i, account := range result.Value {
		if i >= len(oracles) || account == nil {
			continue
		}
		price, err := morpho.OraclePrice(account.Data.GetBinary())
		if err != nil {
			continue
		}
		prices[oracles[i]] = price
	}
	return prices, nil
}
