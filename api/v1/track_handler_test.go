// Package v1_test contains tests for the API v1 handlers
package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "backbeat/api/v1"
	"backbeat/internal/events"
	"backbeat/internal/testsupport"
	"backbeat/internal/visitors"
)

func postTrack(t *testing.T, app *fiber.App, payload map[string]interface{}, cookie string) *http.Response {
	t.Helper()

	jsonPayload, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/track", bytes.NewReader(jsonPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari")
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	if cookie != "" {
		req.Header.Set("Cookie", v1.VisitorCookieName+"="+cookie)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func visitorCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == v1.VisitorCookieName {
			return cookie
		}
	}
	return nil
}

func TestTrackPageViewHandler(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	app := testsupport.CreateTestApp(t, db)

	t.Run("records page view and mints visitor cookie", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		resp := postTrack(t, app, map[string]interface{}{
			"pagePath": "/albums",
			"referrer": "https://google.com/search",
		}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var parsed map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &parsed))
		assert.Equal(t, true, parsed["success"])

		cookie := visitorCookie(resp)
		require.NotNil(t, cookie, "response must set a visitor cookie")
		assert.True(t, visitors.IsValidToken(cookie.Value))
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, 90*24*60*60, cookie.MaxAge)

		v1.FlushIngest()

		var stored events.VisitorEvent
		require.NoError(t, db.First(&stored).Error)
		assert.Equal(t, cookie.Value, stored.VisitorID)
		assert.Equal(t, "/albums", stored.PagePath)
		assert.Equal(t, "mobile", stored.DeviceType)
		assert.Equal(t, "safari", stored.Browser)
		assert.NotEmpty(t, stored.IPFingerprint)
		assert.NotEqual(t, "203.0.113.5", stored.IPFingerprint)

		count, err := events.GetPageViewCount(dbManager, "/albums")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("reuses an existing visitor token", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		first := postTrack(t, app, map[string]interface{}{"pagePath": "/tour"}, "")
		token := visitorCookie(first)
		require.NotNil(t, token)

		second := postTrack(t, app, map[string]interface{}{"pagePath": "/news"}, token.Value)
		assert.Equal(t, http.StatusOK, second.StatusCode)

		refreshed := visitorCookie(second)
		require.NotNil(t, refreshed, "cookie window slides on every visit")
		assert.Equal(t, token.Value, refreshed.Value)

		v1.FlushIngest()

		var visitorIDs []string
		require.NoError(t, db.Model(&events.VisitorEvent{}).Distinct("visitor_id").Pluck("visitor_id", &visitorIDs).Error)
		assert.Len(t, visitorIDs, 1)
	})

	t.Run("mints fresh token when cookie is malformed", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		resp := postTrack(t, app, map[string]interface{}{"pagePath": "/about"}, "not-a-uuid")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := visitorCookie(resp)
		require.NotNil(t, cookie)
		assert.NotEqual(t, "not-a-uuid", cookie.Value)
		assert.True(t, visitors.IsValidToken(cookie.Value))
	})

	t.Run("rejects missing pagePath without side effects", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		resp := postTrack(t, app, map[string]interface{}{"referrer": "https://google.com"}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		v1.FlushIngest()

		var eventCount int64
		require.NoError(t, db.Model(&events.VisitorEvent{}).Count(&eventCount).Error)
		assert.Zero(t, eventCount)

		var counterCount int64
		require.NoError(t, db.Model(&events.PageViewCounter{}).Count(&counterCount).Error)
		assert.Zero(t, counterCount)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/track", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
