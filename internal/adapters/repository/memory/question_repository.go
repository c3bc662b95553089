// Package memory keeps repositories in process memory. It backs the
// "memory" database type and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

// QuestionRepository implements both ports.QuestionRepository and
// ports.VoteRepository over one lock, so vote increments are atomic.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[uuid.UUID]*domain.Question
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{
		questions: make(map[uuid.UUID]*domain.Question),
	}
}

func (r *QuestionRepository) Save(ctx context.Context, question *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[question.ID]; ok {
		return fmt.Errorf("question %s already exists", question.ID)
	}
	r.questions[question.ID] = clone(question)
	return nil
}

func (r *QuestionRepository) Update(ctx context.Context, question *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	stored.Text = question.Text
	stored.PublishTime = question.PublishTime
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(r.questions, id)
	return nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return clone(q), nil
}

func (r *QuestionRepository) AddChoice(ctx context.Context, choice *domain.Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[choice.QuestionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Choices = append(q.Choices, *choice)
	return nil
}

// Find returns questions without their choices, like the SQL repository.
func (r *QuestionRepository) Find(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error) {
	r.mu.RLock()
	all := make([]domain.Question, 0, len(r.questions))
	for _, q := range r.questions {
		all = append(all, domain.Question{ID: q.ID, Text: q.Text, PublishTime: q.PublishTime})
	}
	r.mu.RUnlock()

	sample, count := filter.Apply(all)
	return sample, count, nil
}

func (r *QuestionRepository) IncrementVote(ctx context.Context, questionID, choiceID uuid.UUID) (*domain.Choice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[questionID]
	if !ok {
		return nil, domain.ErrChoiceNotFound
	}
	for i := range q.Choices {
		if q.Choices[i].ID == choiceID {
			q.Choices[i].Votes++
			c := q.Choices[i]
			return &c, nil
		}
	}
	return nil, domain.ErrChoiceNotFound
}

func clone(q *domain.Question) *domain.Question {
	c := *q
	c.Choices = append([]domain.Choice(nil), q.Choices...)
	return &c
}
