package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type QueryOptions struct {
	// DefaultLimit applies when the caller asks for no particular limit.
	DefaultLimit int
	// MaxLimit caps caller-chosen limits; zero leaves them uncapped.
	MaxLimit int
}

type queryService struct {
	repo ports.QuestionRepository
	opts QueryOptions
}

func NewQueryService(repo ports.QuestionRepository, opts QueryOptions) ports.QueryService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	return &queryService{
		repo: repo,
		opts: opts,
	}
}

// BuildFilter turns raw list parameters into an explicit filter. It never
// fails: malformed dates simply leave the filter without that bound.
func BuildFilter(input ports.ListQuestionsInput, now time.Time, limit int) domain.QuestionFilter {
	f := domain.QuestionFilter{
		Now:           now,
		IncludeFuture: input.Show == domain.ShowFuture,
		Search:        strings.TrimSpace(input.Query),
		Start:         domain.ParseDate(input.Start),
		End:           domain.ParseDate(input.End),
		Order:         domain.NewestFirst,
		Limit:         limit,
	}
	if input.Order == domain.OrderOldest {
		f.Order = domain.OldestFirst
	}
	return f
}

func (s *queryService) ListQuestions(ctx context.Context, input ports.ListQuestionsInput, now time.Time) (*ports.QuestionPage, error) {
	filter := BuildFilter(input, now, s.limit(input.Limit))

	questions, count, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find questions: %w", err)
	}

	return &ports.QuestionPage{
		Input:     input,
		Filter:    filter,
		Count:     count,
		Questions: questions,
	}, nil
}

func (s *queryService) limit(requested int) int {
	if requested <= 0 {
		return s.opts.DefaultLimit
	}
	if s.opts.MaxLimit > 0 && requested > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return requested
}
