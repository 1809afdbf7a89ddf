package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnhub/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newNotificationRouter wires the notification routes against a fresh
// in-memory feed store, with a stub auth middleware injecting the username.
func newNotificationRouter(username string) (*gin.Engine, *notification.MemoryFeedStore) {
	gin.SetMode(gin.TestMode)

	store := notification.NewMemoryFeedStore()
	notificationFeed = store

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if username != "" {
			c.Set("username", username)
		}
		c.Next()
	})
	router.GET("/notifications", ListNotifications)
	router.POST("/notifications/:notification_id/read", MarkNotificationRead)
	router.POST("/notifications/read-all", MarkAllNotificationsRead)
	return router, store
}

type feedResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Count         int                         `json:"count"`
}

func TestListNotificationsEmptyFeed(t *testing.T) {
	router, _ := newNotificationRouter("alice")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
	assert.Empty(t, resp.Notifications)
}

func TestListNotificationsUnreadFilter(t *testing.T) {
	router, store := newNotificationRouter("alice")

	first, err := store.Append("alice", notification.Draft{Title: "first", Category: notification.CategoryInfo})
	require.NoError(t, err)
	_, err = store.Append("alice", notification.Draft{Title: "second", Category: notification.CategoryReminder})
	require.NoError(t, err)
	store.MarkRead("alice", first.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications?unread_only=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "second", resp.Notifications[0].Title)
}

func TestMarkNotificationReadEndpoint(t *testing.T) {
	router, store := newNotificationRouter("alice")

	n, err := store.Append("alice", notification.Draft{Title: "note", Category: notification.CategoryInfo})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+n.ID+"/read", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	feed := store.List("alice", false)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].Read)

	// Unknown id is a 404, not an error response body surprise
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/notifications/does-not-exist/read", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllNotificationsReadEndpoint(t *testing.T) {
	router, store := newNotificationRouter("alice")

	for i := 0; i < 4; i++ {
		_, err := store.Append("alice", notification.Draft{Title: "note", Category: notification.CategoryInfo})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		MarkedRead int `json:"marked_read"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.MarkedRead)
	assert.Empty(t, store.List("alice", true))
}

func TestNotificationEndpointsRequireAuth(t *testing.T) {
	router, _ := newNotificationRouter("")

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/notifications"},
		{http.MethodPost, "/notifications/some-id/read"},
		{http.MethodPost, "/notifications/read-all"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}
