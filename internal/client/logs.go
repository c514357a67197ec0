package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// annotateSendError appends a summary of the on-chain execution logs to a
// submission error when the RPC response carries them. The original error is
// always preserved; the summary only narrows it down.
func annotateSendError(err error) error {
	summary := summarizeLogs(extractLogs(err))
	if summary == "" {
		return fmt.Errorf("send transaction: %w", err)
	}
	return fmt.Errorf("send transaction: %w [%s]", err, summary)
}

func extractLogs(err error) []string {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := data["logs"].([]interface{})
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(raw))
	for _, line := range raw {
		if text, ok := line.(string); ok {
			logs = append(logs, text)
		}
	}
	return logs
}

// summarizeLogs picks the line naming the instruction that was executing (the
// innermost program invoke) and the first line matching a program error, and
// joins them into one diagnostic string.
func summarizeLogs(logs []string) string {
	var invoke, failure string
	for _, line := range logs {
		if strings.Contains(line, "invoke [") {
			invoke = line
		}
		if failure == "" && isFailureLine(line) {
			failure = line
		}
	}

	switch {
	case invoke != "" && failure != "":
		return invoke + "; " + failure
	case failure != "":
		return failure
	case invoke != "":
		return invoke
	default:
		return ""
	}
}

func isFailureLine(line string) bool {
	return strings.Contains(line, "Error") ||
		strings.Contains(line, "error") ||
		strings.Contains(line, "failed")
}
