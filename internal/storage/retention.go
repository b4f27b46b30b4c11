package storage

import (
	"context"
	"fmt"
)

// RecordKind selects which capped collection a retention pass trims.
type RecordKind string

const (
	KindActivity RecordKind = "activity"
	KindComment  RecordKind = "comment"
)

var retentionTables = map[RecordKind]string{
	KindActivity: "activity_entries",
	KindComment:  "comment_entries",
}

// EnforceCap deletes the user's oldest entries of the given kind until
// at most cap remain. Count-then-delete can race a concurrent insert;
// the delete targets only rows older than the survivors it counted, so
// it tolerates finding fewer rows than expected and never removes an
// entry newer than the cutoff. Returns how many rows were deleted.
func (r *Repository) EnforceCap(ctx context.Context, kind RecordKind, userID string, cap int) (int, error) {
	table, ok := retentionTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown record kind %q", kind)
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ?`, table), userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s entries: %w", kind, err)
	}
	excess := count - cap
	if excess <= 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %[1]s WHERE id IN (
			SELECT id FROM %[1]s WHERE user_id = ?
			ORDER BY created_at ASC, id ASC LIMIT ?)`, table),
		userID, excess)
	if err != nil {
		return 0, fmt.Errorf("trim %s entries: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
