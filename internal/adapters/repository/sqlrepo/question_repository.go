package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type questionRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewQuestionRepository(db *sql.DB, dialect Dialect) ports.QuestionRepository {
	return &questionRepository{
		db:      db,
		dialect: dialect,
	}
}

func (r *questionRepository) Save(ctx context.Context, question *domain.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryQuestion := r.dialect.Rebind(`
		INSERT INTO questions (id, question_text, publish_time)
		VALUES (?, ?, ?)
	`)
	_, err = tx.ExecContext(ctx, queryQuestion, question.ID, question.Text, r.dialect.TimeArg(question.PublishTime))
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	queryChoice := r.dialect.Rebind(`
		INSERT INTO choices (id, question_id, choice_text, votes, seq)
		VALUES (?, ?, ?, ?, ?)
	`)
	stmt, err := tx.PrepareContext(ctx, queryChoice)
	if err != nil {
		return fmt.Errorf("failed to prepare choice statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range question.Choices {
		_, err = stmt.ExecContext(ctx, c.ID, question.ID, c.Text, c.Votes, i)
		if err != nil {
			return fmt.Errorf("failed to insert choice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *questionRepository) Update(ctx context.Context, question *domain.Question) error {
	query := r.dialect.Rebind(`UPDATE questions SET question_text = ?, publish_time = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, question.Text, r.dialect.TimeArg(question.PublishTime), question.ID)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	// MySQL reports zero affected rows when nothing changed.
	exists, err := r.exists(ctx, r.db, question.ID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM choices WHERE question_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete choices: %w", err)
	}

	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM questions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrQuestionNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	query := r.dialect.Rebind(`
		SELECT id, question_text, publish_time
		FROM questions
		WHERE id = ?
	`)

	var q domain.Question
	err := r.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Text, timeColumn{&q.PublishTime})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	choices, err := r.fetchChoices(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Choices = choices

	return &q, nil
}

func (r *questionRepository) AddChoice(ctx context.Context, choice *domain.Choice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := r.exists(ctx, tx, choice.QuestionID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrQuestionNotFound
	}

	var seq int
	err = tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COALESCE(MAX(seq), -1) + 1 FROM choices WHERE question_id = ?`), choice.QuestionID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to get next choice position: %w", err)
	}

	query := r.dialect.Rebind(`
		INSERT INTO choices (id, question_id, choice_text, votes, seq)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := tx.ExecContext(ctx, query, choice.ID, choice.QuestionID, choice.Text, choice.Votes, seq); err != nil {
		return fmt.Errorf("failed to insert choice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Find pushes every filter into SQL. It runs a COUNT over the filtered set and
// a second, ordered and limited, query for the sample.
func (r *questionRepository) Find(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, int, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeFuture {
		where = append(where, "publish_time <= ?")
		args = append(args, r.dialect.TimeArg(f.Now))
	}
	if f.Search != "" {
		where = append(where, r.dialect.Lower("question_text")+" LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if start, ok := f.StartBound(); ok {
		where = append(where, "publish_time >= ?")
		args = append(args, r.dialect.TimeArg(start))
	}
	if end, ok := f.EndBound(); ok {
		where = append(where, "publish_time < ?")
		args = append(args, r.dialect.TimeArg(end))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT COUNT(*) FROM questions"+clause), args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	direction := "DESC"
	if f.Order == domain.OldestFirst {
		direction = "ASC"
	}
	query := "SELECT id, question_text, publish_time FROM questions" + clause +
		" ORDER BY publish_time " + direction + ", id " + direction
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, timeColumn{&q.PublishTime}); err != nil {
			return nil, 0, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, count, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *questionRepository) exists(ctx context.Context, q queryer, id uuid.UUID) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM questions WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check question: %w", err)
	}
	return n > 0, nil
}

func (r *questionRepository) fetchChoices(ctx context.Context, questionID uuid.UUID) ([]domain.Choice, error) {
	query := r.dialect.Rebind(`
		SELECT id, question_id, choice_text, votes
		FROM choices
		WHERE question_id = ?
		ORDER BY seq, id
	`)
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}
	defer rows.Close()

	var choices []domain.Choice
	for rows.Next() {
		var c domain.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating choices: %w", err)
	}
	return choices, nil
}
