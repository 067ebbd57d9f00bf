package survey

import (
	"context"
	"database/sql"
	"fmt"
)

// orderedList maintains a dense, gapless 1-based rank over the rows of
// a table that share a group column value. Every mutation must run
// inside the caller's transaction: the shift UPDATEs read the current
// rank set, and two concurrent recomputes over the same group would
// otherwise produce duplicate or gapped ranks. On SQLite a write
// transaction holds the database write lock, which stands in for
// SELECT ... FOR UPDATE.
type orderedList struct {
	table    string
	idCol    string
	groupCol string
	rankCol  string
}

// questionRanks is the per-version ordering of question_order rows.
var questionRanks = orderedList{
	table:    "question_order",
	idCol:    "id",
	groupCol: "survey_version_id",
	rankCol:  "rank",
}

func (l orderedList) count(ctx context.Context, tx *sql.Tx, group int64) (count int, err error) {
	err = tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %q WHERE %q = ?`, l.table, l.groupCol),
		group,
	).Scan(&count)
	return
}

func (l orderedList) rankOf(ctx context.Context, tx *sql.Tx, group, id int64) (rank int, err error) {
	err = tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %q FROM %q WHERE %q = ? AND %q = ?`,
		l.rankCol, l.table, l.groupCol, l.idCol),
		group, id,
	).Scan(&rank)
	return
}

// insert makes room for a new row at the desired rank and returns the
// rank the caller must store. A desired rank of 0 or anything beyond
// count+1 appends at the end; otherwise rows at or after the desired
// rank shift up by one.
func (l orderedList) insert(ctx context.Context, tx *sql.Tx, group int64, desired int) (int, error) {
	count, err := l.count(ctx, tx, group)
	if err != nil {
		return 0, err
	}

	if desired <= 0 || desired > count+1 {
		return count + 1, nil
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %q SET %q = %q + 1 WHERE %q = ? AND %q >= ?`,
		l.table, l.rankCol, l.rankCol, l.groupCol, l.rankCol),
		group, desired,
	)
	if err != nil {
		return 0, err
	}
	return desired, nil
}

// moveTo repositions a row. The new rank is clamped into [1, count];
// rows between the old and new position shift by one to close and open
// the gap. Moving a row onto its current rank is a no-op.
func (l orderedList) moveTo(ctx context.Context, tx *sql.Tx, group, id int64, newRank int) error {
	oldRank, err := l.rankOf(ctx, tx, group, id)
	if err != nil {
		return err
	}

	count, err := l.count(ctx, tx, group)
	if err != nil {
		return err
	}
	if newRank < 1 {
		newRank = 1
	}
	if newRank > count {
		newRank = count
	}
	if newRank == oldRank {
		return nil
	}

	if newRank > oldRank {
		// moving down: everything in between shifts up
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %q SET %q = %q - 1 WHERE %q = ? AND %q > ? AND %q <= ?`,
			l.table, l.rankCol, l.rankCol, l.groupCol, l.rankCol, l.rankCol),
			group, oldRank, newRank,
		)
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %q SET %q = %q + 1 WHERE %q = ? AND %q >= ? AND %q < ?`,
			l.table, l.rankCol, l.rankCol, l.groupCol, l.rankCol, l.rankCol),
			group, newRank, oldRank,
		)
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %q SET %q = ? WHERE %q = ? AND %q = ?`,
		l.table, l.rankCol, l.groupCol, l.idCol),
		newRank, group, id,
	)
	return err
}

// remove deletes a row and shifts everything after it down by one.
func (l orderedList) remove(ctx context.Context, tx *sql.Tx, group, id int64) error {
	rank, err := l.rankOf(ctx, tx, group, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %q WHERE %q = ? AND %q = ?`,
		l.table, l.groupCol, l.idCol),
		group, id,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %q SET %q = %q - 1 WHERE %q = ? AND %q > ?`,
		l.table, l.rankCol, l.rankCol, l.groupCol, l.rankCol),
		group, rank,
	)
	return err
}
