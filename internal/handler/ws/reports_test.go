package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/reports" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(time.Second, nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	all := dial(t, srv, "")
	defer all.Close()
	only := dial(t, srv, "?stock_id=6488.two")
	defer only.Close()
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(&models.StockReport{StockID: "2330.TW", Report: models.InvalidReport("x")})
	hub.Broadcast(&models.StockReport{StockID: "6488.TWO", Report: models.InvalidReport("y")})

	read := func(c *websocket.Conn) models.StockReport {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		_, b, err := c.ReadMessage()
		require.NoError(t, err)
		var r models.StockReport
		require.NoError(t, json.Unmarshal(b, &r))
		return r
	}
	assert.Equal(t, "2330.TW", read(all).StockID)
	assert.Equal(t, "6488.TWO", read(all).StockID)
	got := read(only)
	assert.Equal(t, "6488.TWO", got.StockID)
	assert.Equal(t, "y", got.Report.Reason)

	_ = all.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	hub.Close()
	assert.Zero(t, hub.Len())
}

func TestParseStocks(t *testing.T) {
	assert.Empty(t, parseStocks(""))
	assert.Len(t, parseStocks(" 2330.tw , ,6488.TWO"), 2)
	c := &client{stocks: parseStocks("2330.TW")}
	assert.True(t, c.wants("2330.tw"))
	assert.False(t, c.wants("1101.TW"))
}
