package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodealer/internal/handlers"
	"autodealer/internal/models"
	"autodealer/internal/realtime"
)

type noTokens struct{}

func (noTokens) ParseToken(string) (int64, error) { return 0, errors.New("invalid") }

type noAdmins struct{}

func (noAdmins) GetByID(context.Context, int64) (*models.Admin, error) {
	return nil, errors.New("not found")
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	require.NotPanics(t, func() {
		SetupRoutes(r, noTokens{}, noAdmins{},
			handlers.NewAuthHandler(nil),
			handlers.NewLeadHandler(nil, nil, nil, nil),
			handlers.NewLeadTaskHandler(nil, nil),
			handlers.NewLeadExtrasHandler(nil),
			handlers.NewFeedHandler(realtime.NewLeadFeed()),
			handlers.NewIntegrationsHandler(nil, nil, nil, nil),
		)
	})

	registered := map[string]bool{}
	for _, ri := range r.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"POST /login",
		"GET /me",
		"POST /leads/",
		"POST /leads/from-chat/:chatSessionId",
		"POST /admins",
		"GET /swagger/*any",
		"GET /leads/stats/unprocessed-count",
		"GET /leads/feed",
		"PUT /leads/:id",
		"POST /leads/tasks/:taskId/complete",
		"GET /leads/tags/all",
		"GET /leads/:id/card.pdf",
		"POST /integrations/telegram/webhook",
	} {
		assert.True(t, registered[want], want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admins", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/leads/from-chat/{chatSessionId}")

	// the webhook is public and acknowledges even without a bot
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/integrations/telegram/webhook", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
