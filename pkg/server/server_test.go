package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactiveurl/pkg/query"
)

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	config := Config{
		Page:     "/issues",
		Query:    "filter%5Bstatus%5D=closed&page=2",
		Defaults: query.RawQuery{"q": "", "status": "open"},
		Debounce: 20 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&config)
	}
	srv, err := New(config)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	return srv, ts
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeState(t *testing.T, data []byte) State {
	t.Helper()
	var st State
	require.NoError(t, json.Unmarshal(data, &st), string(data))
	return st
}

func TestGetState(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, data)
	assert.Equal(t, query.RawQuery{"q": "", "status": "closed"}, st.Query)
	assert.Equal(t, "/issues?filter%5Bstatus%5D=closed&page=2", st.URL)
}

func TestGetStateExceptPaginator(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.ExceptPaginator = true })

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/url", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/issues?filter%5Bstatus%5D=closed", string(data))
}

func TestPatchState(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, data := doJSON(t, http.MethodPatch, ts.URL+"/state", `{"q":"go"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, data)
	assert.Equal(t, "go", st.Query["q"])
	assert.Equal(t, "/issues?filter%5Bq%5D=go&filter%5Bstatus%5D=closed&page=2", st.URL)

	// Setting a field back to its default removes it from the URL.
	_, data = doJSON(t, http.MethodPatch, ts.URL+"/state", `{"status":"open"}`)
	st = decodeState(t, data)
	assert.Equal(t, "/issues?filter%5Bq%5D=go&page=2", st.URL)
}

func TestPatchStateErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, data := doJSON(t, http.MethodPatch, ts.URL+"/state", `{"q":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "R160", body.Code)

	resp, data = doJSON(t, http.MethodPatch, ts.URL+"/state", `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "unknown field")
}

func TestPutField(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, data := doJSON(t, http.MethodPut, ts.URL+"/state/q", `"search"`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "search", decodeState(t, data).Query["q"])
	assert.Equal(t, "search", srv.ReactiveURL().Get("q"))

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/state/missing", `"x"`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResetState(t *testing.T) {
	_, ts := newTestServer(t, nil)

	doJSON(t, http.MethodPatch, ts.URL+"/state", `{"q":"go"}`)
	resp, data := doJSON(t, http.MethodDelete, ts.URL+"/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeState(t, data)
	assert.Equal(t, query.RawQuery{"q": "", "status": "open"}, st.Query)
	assert.Equal(t, "/issues?page=2", st.URL)
}

func TestInvalidInitialQuery(t *testing.T) {
	_, err := New(Config{Query: "a=%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R120")
}

func TestMetricsRoute(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.Metrics = true })

	doJSON(t, http.MethodPatch, ts.URL+"/state", `{"q":"go"}`)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "reactiveurl_changes_total 1")
}

func TestMetricsRouteDisabled(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketPushesDebouncedURL(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	hello := readMessage(t, conn)
	assert.Equal(t, MessageTypeURL, hello.Type)
	assert.Equal(t, "/issues?filter%5Bstatus%5D=closed&page=2", hello.URL)
	assert.Equal(t, 1, srv.Hub().ClientCount())

	rx := srv.ReactiveURL()
	rx.Set("q", "g")
	rx.Set("q", "go")

	msg := readMessage(t, conn)
	assert.Equal(t, "go", msg.Query["q"])
	assert.Equal(t, "/issues?filter%5Bq%5D=go&filter%5Bstatus%5D=closed&page=2", msg.URL)
}

func TestShutdownFlushesPendingPush(t *testing.T) {
	srv, ts := newTestServer(t, func(c *Config) { c.Debounce = time.Hour })
	conn := dialWS(t, ts)
	readMessage(t, conn)

	srv.ReactiveURL().Set("q", "final")
	require.NoError(t, srv.Shutdown(context.Background()))

	msg := readMessage(t, conn)
	assert.Equal(t, "final", msg.Query["q"])
	assert.Equal(t, 0, srv.Hub().ClientCount())

	// The hub closes the connection after the flush.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
