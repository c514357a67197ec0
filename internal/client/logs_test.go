package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/require"
)

func simulationError(logs ...interface{}) error {
	return &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data:    map[string]interface{}{"logs": []interface{}(logs)},
	}
}

func TestAnnotateSendError(t *testing.T) {
	t.Run("appends instruction and error lines", func(t *testing.T) {
		cause := simulationError(
			"Program 8vdp9wEJrf5UW7o6u3YVSg5x1hkP6Gik5J3bvyNNEsuU invoke [1]",
			"Program log: Instruction: Borrow",
			"Program log: AnchorError occurred. Error Code: InsufficientCollateral. Error Number: 6007.",
			"Program 8vdp9wEJrf5UW7o6u3YVSg5x1hkP6Gik5J3bvyNNEsuU failed: custom program error: 0x1777",
		)

		annotated := annotateSendError(cause)
		require.ErrorContains(t, annotated, "Transaction simulation failed")
		require.ErrorContains(t, annotated, "invoke [1]")
		require.ErrorContains(t, annotated, "InsufficientCollateral")

		// The original error stays reachable for callers inspecting codes.
		var rpcErr *jsonrpc.RPCError
		require.ErrorAs(t, annotated, &rpcErr)
		require.Equal(t, -32002, rpcErr.Code)
	})

	t.Run("no logs leaves error untouched apart from context", func(t *testing.T) {
		cause := errors.New("connection refused")
		annotated := annotateSendError(fmt.Errorf("post: %w", cause))
		require.ErrorIs(t, annotated, cause)
		require.NotContains(t, annotated.Error(), "[")
	})

	t.Run("innermost invoke wins", func(t *testing.T) {
		summary := summarizeLogs([]string{
			"Program 11111111111111111111111111111111 invoke [1]",
			"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [2]",
			"Program log: Error: insufficient funds",
		})
		require.Contains(t, summary, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
		require.Contains(t, summary, "insufficient funds")
	})
}
