package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/logger"
	"github.com/vncsmyrnk/pollsite/internal/validation"
)

type questionService struct {
	repo ports.QuestionRepository
	now  func() time.Time
}

// NewQuestionService returns the CRUD service. now supplies the default
// publish time for new questions.
func NewQuestionService(repo ports.QuestionRepository, now func() time.Time) ports.QuestionService {
	if now == nil {
		now = time.Now
	}
	return &questionService{
		repo: repo,
		now:  now,
	}
}

func (s *questionService) Create(ctx context.Context, input ports.CreateQuestionInput) (*domain.Question, error) {
	input.Text = strings.TrimSpace(input.Text)
	choices := make([]string, len(input.Choices))
	for i, text := range input.Choices {
		choices[i] = strings.TrimSpace(text)
	}
	input.Choices = choices
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	question := &domain.Question{
		ID:          uuid.New(),
		Text:        input.Text,
		PublishTime: s.now(),
	}
	if input.PublishTime != nil {
		question.PublishTime = *input.PublishTime
	}

	for _, text := range input.Choices {
		question.Choices = append(question.Choices, domain.Choice{
			ID:         uuid.New(),
			QuestionID: question.ID,
			Text:       text,
		})
	}

	if err := s.repo.Save(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}

	logger.C(ctx).Info().
		Str("question_id", question.ID.String()).
		Time("publish_time", question.PublishTime).
		Int("choices", len(question.Choices)).
		Msg("question created")
	return question, nil
}

func (s *questionService) Update(ctx context.Context, input ports.UpdateQuestionInput) (*domain.Question, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	question, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	question.Text = input.Text
	question.PublishTime = input.PublishTime

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.C(ctx).Info().Str("question_id", id.String()).Msg("question deleted")
	return nil
}

func (s *questionService) AddChoice(ctx context.Context, input ports.AddChoiceInput) (*domain.Choice, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	choice := &domain.Choice{
		ID:         uuid.New(),
		QuestionID: input.QuestionID,
		Text:       input.Text,
	}
	if err := s.repo.AddChoice(ctx, choice); err != nil {
		return nil, err
	}
	return choice, nil
}

func (s *questionService) GetPublished(ctx context.Context, id string, now time.Time) (*domain.Question, error) {
	questionID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrQuestionNotFound
	}

	question, err := s.repo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !question.IsPublished(now) {
		return nil, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *questionService) Results(ctx context.Context, id string, now time.Time) (*domain.QuestionResults, error) {
	question, err := s.GetPublished(ctx, id, now)
	if err != nil {
		return nil, err
	}
	results := question.Results()
	return &results, nil
}
