package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genz-feed/api-go/routes"
	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/store"
	"github.com/genz-feed/api-go/utils"
)

func newFeedServer(t *testing.T, total int) (*httptest.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	tokens := utils.NewTokenManager("jwt", time.Hour)
	accounts := services.NewAccountService(s, tokens)
	postSvc := services.NewPostService(s, nil)

	ctx := context.Background()
	user, err := accounts.Register(ctx, services.RegisterInput{Username: "reader", Email: "reader@example.com", Password: "password1"})
	require.NoError(t, err)
	for i := 0; i < total; i++ {
		_, err := postSvc.Create(ctx, user.ID, services.CreatePostInput{Title: "t", Content: "c"})
		require.NoError(t, err)
	}
	token, _, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	r := gin.New()
	routes.SetupRoutes(r, routes.Services{
		Accounts: accounts,
		Posts:    postSvc,
		Likes:    services.NewLikeService(s),
		Comments: services.NewCommentService(s),
		Feed:     services.NewFeedService(s, services.NewCursorCodec("cursor")),
	}, routes.Options{FeedRequireAuth: true})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, token
}

func TestClient_ScrollsWholeFeed(t *testing.T) {
	srv, token := newFeedServer(t, 11)
	session := NewScrollSession(New(srv.URL, WithToken(token)), 4)
	ctx := context.Background()

	pages := 0
	for session.State() != StateExhausted {
		_, err := session.Next(ctx)
		require.NoError(t, err)
		pages++
	}

	assert.Equal(t, 3, pages)
	items := session.Items()
	require.Len(t, items, 11)
	for i := 1; i < len(items); i++ {
		assert.Greater(t, items[i-1].ID, items[i].ID)
	}
}

func TestClient_APIError(t *testing.T) {
	srv, _ := newFeedServer(t, 1)

	_, err := New(srv.URL).FetchFeed(context.Background(), "", 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Kind)

	_, err = New(srv.URL, WithToken("garbage")).FetchFeed(context.Background(), "not-a-cursor", 5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_BadCursorIsValidationError(t *testing.T) {
	srv, token := newFeedServer(t, 1)

	_, err := New(srv.URL, WithToken(token)).FetchFeed(context.Background(), "not-a-cursor", 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "ValidationError", apiErr.Kind)
}
