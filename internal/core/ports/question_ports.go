package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

type QuestionRepository interface {
	Save(ctx context.Context, question *domain.Question) error
	Update(ctx context.Context, question *domain.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	AddChoice(ctx context.Context, choice *domain.Choice) error
	// Find returns the filtered, sorted sample capped at filter.Limit together
	// with the size of the full filtered set.
	Find(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error)
}

// ListQuestionsInput holds the raw list parameters exactly as submitted.
type ListQuestionsInput struct {
	Show  string
	Query string
	Start string
	End   string
	Order string
	Limit int
}

type QuestionPage struct {
	Input     ListQuestionsInput
	Filter    domain.QuestionFilter
	Count     int
	Questions []domain.Question
}

type QueryService interface {
	ListQuestions(ctx context.Context, input ListQuestionsInput, now time.Time) (*QuestionPage, error)
}

// CreateQuestionInput creates a question with optional initial choices.
// PublishTime defaults to now when nil.
type CreateQuestionInput struct {
	Text        string     `json:"text" validate:"required,max=200"`
	PublishTime *time.Time `json:"publish_time"`
	Choices     []string   `json:"choices" validate:"dive,required,max=200"`
}

type UpdateQuestionInput struct {
	ID          uuid.UUID `json:"-"`
	Text        string    `json:"text" validate:"required,max=200"`
	PublishTime time.Time `json:"publish_time" validate:"required"`
}

type AddChoiceInput struct {
	QuestionID uuid.UUID `json:"-"`
	Text       string    `json:"text" validate:"required,max=200"`
}

type QuestionService interface {
	Create(ctx context.Context, input CreateQuestionInput) (*domain.Question, error)
	Update(ctx context.Context, input UpdateQuestionInput) (*domain.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddChoice(ctx context.Context, input AddChoiceInput) (*domain.Choice, error)
	// GetPublished hides questions whose publish time is after now.
	GetPublished(ctx context.Context, id string, now time.Time) (*domain.Question, error)
	Results(ctx context.Context, id string, now time.Time) (*domain.QuestionResults, error)
}
