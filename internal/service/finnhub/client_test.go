package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, frames []string) (*httptest.Server, chan map[string]string, chan string) {
	t.Helper()
	subs := make(chan map[string]string, 1)
	tokens := make(chan string, 1)
	up := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subs <- sub
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// keep the socket open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, subs, tokens
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_StreamsTradesInOrder(t *testing.T) {
	srv, subs, tokens := newServer(t, []string{
		`{"type":"ping"}`,
		`{"type":"trade","data":[{"s":"BTC","p":100.5,"v":1,"t":1700000000000},{"s":"BTC","p":101,"v":2,"t":1700000001000}]}`,
		`not json`,
		`{"type":"trade","data":[{"s":"BTC","p":99,"v":3,"t":1700000002000}]}`,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New("secret", wsURL(srv), time.Second, nil)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	assert.Equal(t, "secret", <-tokens)

	require.NoError(t, c.Subscribe(ctx, "BTC"))
	assert.Equal(t, map[string]string{"type": "subscribe", "symbol": "BTC"}, <-subs)

	trades, _ := c.Read(ctx)
	var prices []float64
	for i := 0; i < 3; i++ {
		tr := <-trades
		require.NotNil(t, tr)
		prices = append(prices, tr.Price)
		assert.Equal(t, "BTC", tr.Symbol)
	}
	assert.Equal(t, []float64{100.5, 101, 99}, prices)
}

func TestClient_ReadStopsOnCancel(t *testing.T) {
	srv, _, _ := newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	c := New("", wsURL(srv), time.Second, nil)
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx, "X"))

	trades, errs := c.Read(ctx)
	cancel()

	select {
	case _, ok := <-trades:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("trades channel not closed after cancel")
	}
	_, ok := <-errs
	assert.False(t, ok)
}

func TestClient_SubscribeRequiresConnection(t *testing.T) {
	c := New("", "ws://127.0.0.1:1", time.Second, nil)
	assert.Error(t, c.Subscribe(context.Background(), "X"))

	trades, errs := c.Read(context.Background())
	assert.Error(t, <-errs)
	_, ok := <-trades
	assert.False(t, ok)
}
