package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/logger"
)

type voteService struct {
	questionRepo ports.QuestionRepository
	voteRepo     ports.VoteRepository
}

func NewVoteService(questionRepo ports.QuestionRepository, voteRepo ports.VoteRepository) ports.VoteService {
	return &voteService{
		questionRepo: questionRepo,
		voteRepo:     voteRepo,
	}
}

// Vote records one vote for the selected choice. It fails with
// ErrQuestionNotFound, ErrNoSelectionMade or ErrChoiceNotFound and changes
// nothing in those cases; storage errors are returned unchanged.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Choice, error) {
	if _, err := s.questionRepo.GetByID(ctx, input.QuestionID); err != nil {
		return nil, err
	}

	if input.ChoiceID == nil || strings.TrimSpace(*input.ChoiceID) == "" {
		return nil, domain.ErrNoSelectionMade
	}

	choiceID, err := uuid.Parse(strings.TrimSpace(*input.ChoiceID))
	if err != nil {
		return nil, domain.ErrChoiceNotFound
	}

	choice, err := s.voteRepo.IncrementVote(ctx, input.QuestionID, choiceID)
	if errors.Is(err, domain.ErrChoiceNotFound) {
		// The question may have been deleted since the check above.
		if _, qerr := s.questionRepo.GetByID(ctx, input.QuestionID); errors.Is(qerr, domain.ErrQuestionNotFound) {
			return nil, qerr
		}
	}
	if err != nil {
		if !errors.Is(err, domain.ErrChoiceNotFound) {
			logger.C(ctx).Error().Err(err).
				Str("question_id", input.QuestionID.String()).
				Str("choice_id", choiceID.String()).
				Msg("vote increment failed")
		}
		return nil, err
	}

	logger.C(ctx).Debug().
		Str("question_id", input.QuestionID.String()).
		Str("choice_id", choice.ID.String()).
		Int64("votes", choice.Votes).
		Msg("vote recorded")
	return choice, nil
}
