package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
)

func TestHubAddAndRemoveChatClient(t *testing.T) {
	hub := NewHub()

	hub.AddChatClient("a_b", nil, ConnInfo{ConnID: "c1", UserID: "a"})
	if len(hub.chatRooms) != 1 {
		t.Fatalf("expected chat room to be created")
	}

	hub.RemoveChatClient("a_b", nil)
	if len(hub.chatRooms) != 0 {
		t.Fatalf("expected chat room to be removed")
	}
}

func TestHubAddAndRemoveFeedClient(t *testing.T) {
	hub := NewHub()

	hub.AddFeedClient("u1", nil, ConnInfo{ConnID: "c2", UserID: "u1"})
	if len(hub.feedStreams) != 1 {
		t.Fatalf("expected feed stream to be created")
	}

	hub.RemoveFeedClient("u1", nil)
	if len(hub.feedStreams) != 0 {
		t.Fatalf("expected feed stream to be removed")
	}
}

func TestHubConnInfoLookup(t *testing.T) {
	hub := NewHub()
	info := ConnInfo{ConnID: "c3", UserID: "u2"}

	hub.AddChatClient("a_b", nil, info)
	got, ok := hub.getConnInfo("chat", "a_b", nil)
	if !ok || got.ConnID != "c3" {
		t.Fatalf("expected conn info to be retrievable, got %+v ok=%v", got, ok)
	}

	if _, ok := hub.getConnInfo("feed", "u2", nil); ok {
		t.Fatalf("expected no feed conn info")
	}
}

// wsTestServer hands out real websocket connection pairs for hub tests.
type wsTestServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := &wsTestServer{conns: make(chan *websocket.Conn, 16)}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *wsTestServer) dial(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	select {
	case server = <-ts.conns:
	case <-time.After(time.Second):
		t.Fatal("server side of websocket never arrived")
	}
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestPushFeedEventDuringMembershipChanges(t *testing.T) {
	ts := newWSTestServer(t)
	hub := NewHub()

	stable, stableClient := ts.dial(t)
	hub.AddFeedClient("u1", stable, ConnInfo{ConnID: "stable", UserID: "u1"})

	const events = 20
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < events; i++ {
			hub.PushFeedEvent("u1", models.FeedEvent{Type: "notification"})
		}
	}()

	// Second tabs join and leave the stream while events are in flight.
	for i := 0; i < 10; i++ {
		conn, _ := ts.dial(t)
		hub.AddFeedClient("u1", conn, ConnInfo{ConnID: "extra", UserID: "u1"})
		hub.RemoveFeedClient("u1", conn)
	}
	wg.Wait()

	stableClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < events; i++ {
		if _, _, err := stableClient.ReadMessage(); err != nil {
			t.Fatalf("read event %d: %v", i, err)
		}
	}
}

func TestBroadcastChatMessageDuringMembershipChanges(t *testing.T) {
	ts := newWSTestServer(t)
	hub := NewHub()

	stable, stableClient := ts.dial(t)
	hub.AddChatClient("a_b", stable, ConnInfo{ConnID: "stable", UserID: "a"})

	const events = 20
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < events; i++ {
			hub.BroadcastChatMessage("a_b", models.Message{ChatID: "a_b", Content: "hi"})
		}
	}()

	for i := 0; i < 10; i++ {
		conn, _ := ts.dial(t)
		hub.AddChatClient("a_b", conn, ConnInfo{ConnID: "extra", UserID: "b"})
		hub.RemoveChatClient("a_b", conn)
	}
	wg.Wait()

	stableClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < events; i++ {
		if _, _, err := stableClient.ReadMessage(); err != nil {
			t.Fatalf("read message %d: %v", i, err)
		}
	}
}

func TestConcurrentPushesToOneConn(t *testing.T) {
	ts := newWSTestServer(t)
	hub := NewHub()

	server, client := ts.dial(t)
	hub.AddFeedClient("u1", server, ConnInfo{ConnID: "c1", UserID: "u1"})

	// A presence subscription goroutine and a fanout write can push to the
	// same connection at the same time; frames must not interleave.
	const perWriter = 10
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				hub.PushFeedEvent("u1", models.FeedEvent{Type: "notification"})
			}
		}()
	}
	wg.Wait()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2*perWriter; i++ {
		if _, payload, err := client.ReadMessage(); err != nil {
			t.Fatalf("read event %d: %v", i, err)
		} else if !strings.Contains(string(payload), "notification") {
			t.Fatalf("unexpected frame: %s", payload)
		}
	}
}
