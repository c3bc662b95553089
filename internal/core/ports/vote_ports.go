package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

type VoteRepository interface {
	// IncrementVote adds exactly one vote to the choice as a single atomic
	// storage operation. It returns domain.ErrChoiceNotFound when the choice
	// does not exist or belongs to another question.
	IncrementVote(ctx context.Context, questionID, choiceID uuid.UUID) (*domain.Choice, error)
}

type VoteInput struct {
	QuestionID uuid.UUID
	// ChoiceID is nil when the submission carried no choice at all.
	ChoiceID *string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Choice, error)
}

// VoteGuard deduplicates repeated submissions of the same vote.
type VoteGuard interface {
	Claim(ctx context.Context, questionID uuid.UUID, key string) (bool, error)
	Release(ctx context.Context, questionID uuid.UUID, key string) error
}
