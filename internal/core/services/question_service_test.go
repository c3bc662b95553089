package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

func fixedClock() time.Time { return testNow }

func TestCreateQuestionDefaultsPublishTime(t *testing.T) {
	repo := memory.NewQuestionRepository()
	svc := NewQuestionService(repo, fixedClock)

	q, err := svc.Create(context.Background(), ports.CreateQuestionInput{
		Text:    "  Favourite colour?  ",
		Choices: []string{" red ", "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Favourite colour?", q.Text)
	assert.Equal(t, testNow, q.PublishTime)
	require.Len(t, q.Choices, 2)
	assert.Equal(t, "red", q.Choices[0].Text)
	assert.Equal(t, q.ID, q.Choices[1].QuestionID)

	stored, err := repo.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Choices, 2)
}

func TestCreateQuestionValidation(t *testing.T) {
	svc := NewQuestionService(memory.NewQuestionRepository(), fixedClock)

	_, err := svc.Create(context.Background(), ports.CreateQuestionInput{Text: "   ", Choices: []string{"ok", ""}})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "text")
	assert.Contains(t, verr.Fields, "choices[1]")

	_, err = svc.Create(context.Background(), ports.CreateQuestionInput{Text: strings.Repeat("ü", 201)})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["text"], "200")

	_, err = svc.Create(context.Background(), ports.CreateQuestionInput{Text: strings.Repeat("ü", 200)})
	assert.NoError(t, err)
}

func TestUpdateQuestion(t *testing.T) {
	f := newFixture(t)
	svc := NewQuestionService(f.repo, fixedClock)
	later := testNow.Add(time.Hour)

	q, err := svc.Update(context.Background(), ports.UpdateQuestionInput{ID: f.a.ID, Text: "Renamed?", PublishTime: later})
	require.NoError(t, err)
	assert.Equal(t, "Renamed?", q.Text)
	assert.Len(t, q.Choices, 2)

	_, err = svc.Update(context.Background(), ports.UpdateQuestionInput{ID: uuid.New(), Text: "x", PublishTime: later})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, err = svc.Update(context.Background(), ports.UpdateQuestionInput{ID: f.a.ID, Text: "x"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestAddChoiceAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewQuestionService(f.repo, fixedClock)
	ctx := context.Background()

	c, err := svc.AddChoice(ctx, ports.AddChoiceInput{QuestionID: f.a.ID, Text: "perhaps"})
	require.NoError(t, err)
	assert.Zero(t, c.Votes)

	_, err = svc.AddChoice(ctx, ports.AddChoiceInput{QuestionID: uuid.New(), Text: "orphan"})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	require.NoError(t, svc.Delete(ctx, f.a.ID))
	_, err = f.repo.GetByID(ctx, f.a.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestGetPublishedHidesFutureAndMalformedIDs(t *testing.T) {
	f := newFixture(t)
	svc := NewQuestionService(f.repo, fixedClock)
	ctx := context.Background()

	q, err := svc.GetPublished(ctx, f.b.ID.String(), testNow)
	require.NoError(t, err)
	assert.Equal(t, f.b.ID, q.ID)

	_, err = svc.GetPublished(ctx, f.c.ID.String(), testNow)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, err = svc.GetPublished(ctx, "123", testNow)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestResults(t *testing.T) {
	f := newFixture(t)
	qs := NewQuestionService(f.repo, fixedClock)
	vs := NewVoteService(f.repo, f.repo)
	ctx := context.Background()

	for _, c := range []domain.Choice{f.b.Choices[0], f.b.Choices[0], f.b.Choices[0], f.b.Choices[1]} {
		_, err := vs.Vote(ctx, ports.VoteInput{QuestionID: f.b.ID, ChoiceID: strPtr(c.ID.String())})
		require.NoError(t, err)
	}

	res, err := qs.Results(ctx, f.b.ID.String(), testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.TotalVotes)
	assert.InDelta(t, 75.0, res.Choices[0].Percentage, 0.001)

	_, err = qs.Results(ctx, f.c.ID.String(), testNow)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}
