package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/traylinx/truthscore/internal/kv"
	"github.com/traylinx/truthscore/internal/ledger"
)

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PushesSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := ledger.NewStore(kv.NewMemory())
	_, err := store.RecordResult(ctx, ledger.Record{
		ID: "a", Kind: ledger.KindNews, Source: ledger.SourceText, Content: "first", Verdict: true, Confidence: 90,
		Timestamp: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	hub := NewHub(store, []string{"http://localhost:5173"})
	server := httptest.NewServer(hub)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	initial := readMessage(t, conn)
	assert.Equal(t, MessageTypeLedger, initial.Type)
	assert.Equal(t, 10, initial.TotalScore)
	require.Len(t, initial.History, 1)
	assert.Equal(t, "first", initial.History[0].Content)

	require.Eventually(t, func() bool { return hub.Sessions() == 1 }, time.Second, 10*time.Millisecond)

	_, err = store.RecordResult(ctx, ledger.Record{
		ID: "b", Kind: ledger.KindWebsite, Source: ledger.SourceWebsite, Content: "https://example.com",
		Verdict: true, Confidence: 85, Timestamp: time.Date(2026, 10, 17, 9, 31, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	update := readMessage(t, conn)
	assert.Equal(t, 20, update.TotalScore)
	require.Len(t, update.History, 2)
	assert.Equal(t, ledger.KindWebsite, update.History[0].Kind)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	server.Close()
	assert.Equal(t, 0, store.Subscribers())
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := ledger.NewStore(kv.NewMemory())
	hub := NewHub(store, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	hub.Close()
	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	store := ledger.NewStore(kv.NewMemory())
	hub := NewHub(store, []string{"http://localhost:5173"})
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"*"})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://anything")
	assert.True(t, check(r))

	check = originChecker(nil)
	assert.False(t, check(r))
	r.Header.Del("Origin")
	assert.True(t, check(r))
}

func TestHub_CommitDuringConnectIsDelivered(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := ledger.NewStore(kv.NewMemory())
	hub := NewHub(store, nil)
	server := httptest.NewServer(hub)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	// Commit without waiting for the session to register.
	_, err = store.RecordResult(ctx, ledger.Record{
		ID: "a", Kind: ledger.KindNews, Source: ledger.SourceText, Content: "race", Verdict: true, Confidence: 90,
		Timestamp: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Whether it arrives in the initial snapshot or as a push, the dashboard
	// must end up at 10 without any further commit.
	var last Message
	for last.TotalScore != 10 {
		last = readMessage(t, conn)
	}
	require.Len(t, last.History, 1)

	require.NoError(t, conn.Close())
	hub.Close()
	server.Close()
}
