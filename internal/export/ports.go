package export

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound statement adapters.
type (
	// StatementWriter mirrors one ledger transaction to an external
	// statement, returning an adapter-specific row reference.
	StatementWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
