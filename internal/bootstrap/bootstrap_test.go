package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/pollsite/internal/config"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

func testConfig(dbType, url string) *config.Config {
	return &config.Config{
		DatabaseType: dbType,
		DatabaseURL:  url,
		JWTSecret:    "secret",
		Location:     time.UTC,
		ListLimit:    5,
		MaxListLimit: 100,
	}
}

func TestOpenRepositoriesWiresEveryBackend(t *testing.T) {
	for _, cfg := range []*config.Config{
		testConfig(config.DatabaseMemory, ""),
		testConfig(config.DatabaseSQLite, ":memory:"),
	} {
		t.Run(cfg.DatabaseType, func(t *testing.T) {
			ctx := context.Background()
			repos, err := OpenRepositories(ctx, cfg, true)
			require.NoError(t, err)
			defer repos.Close()

			svc := NewServices(cfg, repos)
			q, err := svc.Questions.Create(ctx, ports.CreateQuestionInput{Text: "Wired?", Choices: []string{"yes"}})
			require.NoError(t, err)

			choiceID := q.Choices[0].ID.String()
			c, err := svc.Votes.Vote(ctx, ports.VoteInput{QuestionID: q.ID, ChoiceID: &choiceID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.Votes)

			page, err := svc.Query.ListQuestions(ctx, ports.ListQuestionsInput{}, cfg.Now().Add(time.Second))
			require.NoError(t, err)
			assert.Equal(t, 1, page.Count)
		})
	}
}

func TestOpenRepositoriesRejectsUnknownType(t *testing.T) {
	_, err := OpenRepositories(context.Background(), testConfig("oracle", "x"), false)
	assert.Error(t, err)
}

func TestNewVoteGuardDisabledWithoutRedis(t *testing.T) {
	guard, closeFn, err := NewVoteGuard(context.Background(), testConfig(config.DatabaseMemory, ""))
	require.NoError(t, err)
	assert.Nil(t, guard)
	assert.NoError(t, closeFn())
}

func TestNewRouterServesHealth(t *testing.T) {
	cfg := testConfig(config.DatabaseMemory, "")
	repos, err := OpenRepositories(context.Background(), cfg, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewRouter(cfg, NewServices(cfg, repos), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
