package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const confirmationPollInterval = 700 * time.Millisecond

// Submit assembles, signs, sends, and confirms one transaction. Nil entries
// in the instruction list are skipped (optional prerequisites that turned out
// to be unnecessary); relative order of the rest is preserved. An all-nil or
// empty list fails before any network traffic. There is no automatic retry:
// resubmitting a failed financial instruction is the caller's decision.
func (c *SigningClient) Submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	compact := make([]solana.Instruction, 0, len(instructions))
	for _, ix := range instructions {
		if ix != nil {
			compact = append(compact, ix)
		}
	}
	if len(compact) == 0 {
		return solana.Signature{}, ErrEmptyTransaction
	}

	recent, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		compact,
		recent.Value.Blockhash,
		solana.TransactionPayer(c.signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(c.signer.PrivateKeyFor); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	opts := rpc.TransactionOpts{
		SkipPreflight:       c.skipPreflight,
		PreflightCommitment: c.commitment,
	}
	if c.maxRetries != nil {
		retries := *c.maxRetries
		opts.MaxRetries = &retries
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, annotateSendError(err)
	}

	c.logger.Info("transaction sent", "signature", sig, "instructions", len(compact))

	confirmCtx := ctx
	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}
	if err := c.waitForConfirmation(confirmCtx, sig); err != nil {
		return sig, fmt.Errorf("confirm transaction %s: %w", sig, err)
	}
	return sig, nil
}

func (c *SigningClient) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			result, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				continue
			}
			if len(result.Value) == 0 || result.Value[0] == nil {
				continue
			}
			status := result.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}
