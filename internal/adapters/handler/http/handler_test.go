package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/services"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type memoryGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (g *memoryGuard) Claim(ctx context.Context, questionID uuid.UUID, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := questionID.String() + key
	if g.keys[k] {
		return false, nil
	}
	g.keys[k] = true
	return true, nil
}

func (g *memoryGuard) Release(ctx context.Context, questionID uuid.UUID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, questionID.String()+key)
	return nil
}

type testApp struct {
	handler http.Handler
	repo    *memory.QuestionRepository
	a, b, c *domain.Question
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	clock := func() time.Time { return testNow }

	questions := memory.NewQuestionRepository()
	users := memory.NewUserRepository()
	tokens := memory.NewAuthRepository()

	authService := services.NewAuthService(users, tokens, nil, services.AuthOptions{JWTSecret: "test-secret"})
	questionService := services.NewQuestionService(questions, clock)

	h := Handlers{
		Questions:   NewQuestionHandler(services.NewQueryService(questions, services.QueryOptions{DefaultLimit: 5, MaxLimit: 100}), questionService, clock),
		Votes:       NewVoteHandler(services.NewVoteService(questions, questions), questionService, &memoryGuard{keys: map[string]bool{}}, clock),
		Users:       NewUserHandler(services.NewUserService(users, bcrypt.MinCost)),
		Auth:        NewAuthHandler(authService, "/", "", http.SameSiteLaxMode),
		AuthService: authService,
	}

	app := &testApp{handler: NewHandler(h, RouterOptions{}), repo: questions}
	app.a = app.seed(t, "Is Go fun?", testNow.AddDate(0, 0, -10), "yes", "no")
	app.b = app.seed(t, "What's up?", testNow.AddDate(0, 0, -1), "Not much", "The sky")
	app.c = app.seed(t, "Future question", testNow.AddDate(0, 0, 5), "later")
	return app
}

func (app *testApp) seed(t *testing.T, text string, publish time.Time, choices ...string) *domain.Question {
	t.Helper()
	q := &domain.Question{ID: uuid.New(), Text: text, PublishTime: publish}
	for _, c := range choices {
		q.Choices = append(q.Choices, domain.Choice{ID: uuid.New(), QuestionID: q.ID, Text: c})
	}
	require.NoError(t, app.repo.Save(context.Background(), q))
	return q
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listBody struct {
	Filters struct {
		Show     string  `json:"show"`
		StartRaw string  `json:"start_raw"`
		Start    *string `json:"start"`
		End      *string `json:"end"`
		Order    string  `json:"order"`
		Limit    int     `json:"limit"`
	} `json:"filters"`
	Count   int               `json:"count"`
	Results []domain.Question `json:"results"`
}

func TestListQuestions(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[listBody](t, rec)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Results, 2)
	assert.Equal(t, app.b.ID, body.Results[0].ID)
	assert.Equal(t, "newest", body.Filters.Order)
	assert.Equal(t, 5, body.Filters.Limit)
	assert.Nil(t, body.Filters.Start)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/questions?show=future&order=oldest&start=garbage&end=2024-05-20&limit=2", nil))
	body = decode[listBody](t, rec)
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Results, 2)
	assert.Equal(t, app.a.ID, body.Results[0].ID)
	assert.Equal(t, "garbage", body.Filters.StartRaw)
	assert.Nil(t, body.Filters.Start)
	require.NotNil(t, body.Filters.End)
	assert.Equal(t, "2024-05-20", *body.Filters.End)
	assert.Equal(t, "oldest", body.Filters.Order)
}

func TestQuestionDetailAndResults(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/questions/"+app.b.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, true, detail["published_recently"])
	assert.Len(t, detail["choices"], 2)

	for _, path := range []string{
		"/api/questions/" + app.c.ID.String(),
		"/api/questions/" + app.c.ID.String() + "/results",
		"/api/questions/" + uuid.NewString(),
		"/api/questions/42",
	} {
		rec = app.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/questions/"+app.a.ID.String()+"/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[domain.QuestionResults](t, rec)
	assert.Zero(t, results.TotalVotes)
	assert.Len(t, results.Choices, 2)
}

func TestVoteJSONAndForm(t *testing.T) {
	app := newTestApp(t)
	target := "/api/questions/" + app.b.ID.String() + "/vote"

	rec := app.do(jsonRequest(http.MethodPost, target, `{"choice":"`+app.b.Choices[0].ID.String()+`"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[voteResponse](t, rec)
	assert.Equal(t, int64(1), resp.Choice.Votes)

	form := url.Values{"choice": {app.b.Choices[0].ID.String()}}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = app.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[voteResponse](t, rec)
	assert.Equal(t, int64(2), resp.Choice.Votes)
}

func TestVoteErrors(t *testing.T) {
	app := newTestApp(t)
	target := "/api/questions/" + app.a.ID.String() + "/vote"

	cases := map[string]struct {
		req     *http.Request
		message string
	}{
		"empty json":     {jsonRequest(http.MethodPost, target, `{}`), domain.ErrNoSelectionMade.Error()},
		"empty body":     {jsonRequest(http.MethodPost, target, ``), domain.ErrNoSelectionMade.Error()},
		"null choice":    {jsonRequest(http.MethodPost, target, `{"choice":null}`), domain.ErrNoSelectionMade.Error()},
		"numeric choice": {jsonRequest(http.MethodPost, target, `{"choice":42}`), domain.ErrChoiceNotFound.Error()},
		"foreign choice": {jsonRequest(http.MethodPost, target, `{"choice":"`+app.b.Choices[0].ID.String()+`"}`), domain.ErrChoiceNotFound.Error()},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := app.do(tc.req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[voteErrorResponse](t, rec)
			assert.Equal(t, tc.message, body.ErrorMessage)
			require.NotNil(t, body.Question)
			assert.Equal(t, app.a.ID, body.Question.ID)
		})
	}

	for _, q := range []*domain.Question{app.a, app.b} {
		stored, err := app.repo.GetByID(context.Background(), q.ID)
		require.NoError(t, err)
		for _, c := range stored.Choices {
			assert.Zero(t, c.Votes)
		}
	}

	rec := app.do(jsonRequest(http.MethodPost, "/api/questions/not-an-id/vote", `{"choice":"x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(jsonRequest(http.MethodPost, "/api/questions/"+uuid.NewString()+"/vote", `{"choice":"x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteIdempotencyKey(t *testing.T) {
	app := newTestApp(t)
	target := "/api/questions/" + app.b.ID.String() + "/vote"
	body := `{"choice":"` + app.b.Choices[1].ID.String() + `"}`

	req := jsonRequest(http.MethodPost, target, `{}`)
	req.Header.Set(idempotencyHeader, "k1")
	rec := app.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The failed attempt released k1, so the retry counts.
	req = jsonRequest(http.MethodPost, target, body)
	req.Header.Set(idempotencyHeader, "k1")
	rec = app.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = jsonRequest(http.MethodPost, target, body)
	req.Header.Set(idempotencyHeader, "k1")
	rec = app.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	dup := decode[duplicateVoteResponse](t, rec)
	assert.True(t, dup.Duplicate)
	require.NotNil(t, dup.Results)
	assert.Equal(t, int64(1), dup.Results.TotalVotes)
}

func TestAccountFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(jsonRequest(http.MethodPost, "/api/accounts/signup", `{"username":"grace","password1":"1234","password2":"1234"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	verr := decode[errorResponse](t, rec)
	assert.Contains(t, verr.Fields, "password1")

	rec = app.do(jsonRequest(http.MethodPost, "/api/accounts/signup", `{"username":"grace","password1":"lovelace-42","password2":"lovelace-42"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.do(jsonRequest(http.MethodPost, "/auth/login", `{"username":"grace","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(jsonRequest(http.MethodPost, "/auth/login", `{"username":"grace","password":"lovelace-42"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "access_token")
	require.Contains(t, cookies, "refresh_token")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookies["access_token"])
	rec = app.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[domain.User](t, rec)
	assert.Equal(t, "grace", me.Username)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookies["refresh_token"])
	rec = app.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookies["refresh_token"])
	rec = app.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookies["refresh_token"])
	rec = app.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuestionCRUDRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(jsonRequest(http.MethodPost, "/api/questions", `{"text":"New?"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(jsonRequest(http.MethodPost, "/api/accounts/signup", `{"username":"heidi","password1":"pass-word-1","password2":"pass-word-1"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = app.do(jsonRequest(http.MethodPost, "/auth/login", `{"username":"heidi","password":"pass-word-1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var access *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "access_token" {
			access = c
		}
	}
	require.NotNil(t, access)

	authed := func(req *http.Request) *httptest.ResponseRecorder {
		req.Header.Set("Authorization", "Bearer "+access.Value)
		return app.do(req)
	}

	rec = authed(jsonRequest(http.MethodPost, "/api/questions", `{"text":"","choices":["a"]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = authed(jsonRequest(http.MethodPost, "/api/questions", `{"text":"Tabs or spaces?","choices":["tabs","spaces"]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Question](t, rec)
	assert.True(t, testNow.Equal(created.PublishTime))
	require.Len(t, created.Choices, 2)

	id := created.ID.String()
	rec = authed(jsonRequest(http.MethodPut, "/api/questions/"+id, `{"text":"Spaces or tabs?","publish_time":"2024-05-09T00:00:00Z"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = authed(jsonRequest(http.MethodPost, "/api/questions/"+id+"/choices", `{"text":"both"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/questions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[domain.Question](t, rec).Choices, 3)

	rec = authed(httptest.NewRequest(http.MethodDelete, "/api/questions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = authed(httptest.NewRequest(http.MethodDelete, "/api/questions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
