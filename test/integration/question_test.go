package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type listBody struct {
	Count   int               `json:"count"`
	Results []domain.Question `json:"results"`
}

func TestQuestionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	payload := map[string]any{
		"text":         "What's up?",
		"publish_time": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"choices":      []string{"Not much", "The sky"},
	}

	resp := app.do(t, http.MethodPost, "/api/questions/", payload, "")
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := app.signupAndLogin(t, "editor")

	resp = app.do(t, http.MethodPost, "/api/questions/", payload, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var q domain.Question
	decode(t, resp, &q)
	require.Len(t, q.Choices, 2)

	resp = app.do(t, http.MethodPost, "/api/questions/", map[string]any{
		"text":         "Future question",
		"publish_time": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var future domain.Question
	decode(t, resp, &future)

	var list listBody
	decode(t, app.do(t, http.MethodGet, "/api/questions/", nil, ""), &list)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Results, 1)
	assert.Equal(t, q.ID, list.Results[0].ID)

	decode(t, app.do(t, http.MethodGet, "/api/questions/?show=future", nil, ""), &list)
	assert.Equal(t, 2, list.Count)

	resp = app.do(t, http.MethodGet, "/api/questions/"+future.ID.String(), nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(t, http.MethodPost, fmt.Sprintf("/api/questions/%s/choices", q.ID), map[string]string{"text": "Just hacking"}, token)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, http.MethodPut, "/api/questions/"+q.ID.String(), map[string]any{
		"text":         "What's new?",
		"publish_time": q.PublishTime.Format(time.RFC3339),
	}, token)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail domain.Question
	decode(t, app.do(t, http.MethodGet, "/api/questions/"+q.ID.String(), nil, ""), &detail)
	assert.Equal(t, "What's new?", detail.Text)
	assert.Len(t, detail.Choices, 3)

	resp = app.do(t, http.MethodDelete, "/api/questions/"+q.ID.String(), nil, token)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/questions/"+q.ID.String(), nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuestionListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	ctx := context.Background()
	create := func(text string, publish time.Time) {
		_, err := app.Services.Questions.Create(ctx, ports.CreateQuestionInput{Text: text, PublishTime: &publish})
		require.NoError(t, err)
	}
	create("Favourite colour?", time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	create("Favourite food?", time.Date(2024, 2, 20, 23, 59, 0, 0, time.UTC))
	create("Best editor?", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		query string
		count int
		first string
	}{
		{"", 3, "Best editor?"},
		{"?order=oldest", 3, "Favourite colour?"},
		{"?q=FAVOURITE", 2, "Favourite food?"},
		{"?start=2024-02-01&end=2024-02-20", 1, "Favourite food?"},
		{"?start=not-a-date&order=oldest", 3, "Favourite colour?"},
		{"?q=100%25", 0, ""},
		{"?limit=1", 3, "Best editor?"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var list listBody
			decode(t, app.do(t, http.MethodGet, "/api/questions/"+tt.query, nil, ""), &list)
			assert.Equal(t, tt.count, list.Count)
			if tt.first == "" {
				assert.Empty(t, list.Results)
				return
			}
			require.NotEmpty(t, list.Results)
			assert.Equal(t, tt.first, list.Results[0].Text)
		})
	}
}
