package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type voteRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewVoteRepository(db *sql.DB, dialect Dialect) ports.VoteRepository {
	return &voteRepository{
		db:      db,
		dialect: dialect,
	}
}

// IncrementVote adds one vote with a single UPDATE scoped to the question, so
// concurrent votes never read-modify-write the counter.
func (r *voteRepository) IncrementVote(ctx context.Context, questionID, choiceID uuid.UUID) (*domain.Choice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.dialect.Rebind(`UPDATE choices SET votes = votes + 1 WHERE id = ? AND question_id = ?`)
	res, err := tx.ExecContext(ctx, query, choiceID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrChoiceNotFound
	}

	var c domain.Choice
	err = tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id, question_id, choice_text, votes FROM choices WHERE id = ?`), choiceID).
		Scan(&c.ID, &c.QuestionID, &c.Text, &c.Votes)
	if err != nil {
		return nil, fmt.Errorf("failed to read choice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &c, nil
}
