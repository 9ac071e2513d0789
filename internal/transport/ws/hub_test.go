package ws

import (
	"encoding/json"
	"testing"
)

func newTestConn(id string) *Conn {
	return &Conn{ID: id, send: make(chan []byte, sendBuffer)}
}

func drain(t *testing.T, c *Conn) outboundFrame {
	t.Helper()
	select {
	case data := <-c.send:
		var f outboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("frame decode failed: %v", err)
		}
		return f
	default:
		t.Fatal("no frame queued")
		return outboundFrame{}
	}
}

type outboundFrame struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

func TestHub_ToPlayer(t *testing.T) {
	h := NewHub()
	a := newTestConn("a")
	b := newTestConn("b")
	h.add(a)
	h.add(b)

	h.ToPlayer("a", "greeting", map[string]string{"hello": "world"})

	f := drain(t, a)
	if f.Type != "greeting" {
		t.Errorf("Type = %q, want greeting", f.Type)
	}
	select {
	case <-b.send:
		t.Error("ToPlayer leaked to another connection")
	default:
	}
}

func TestHub_ToRoom(t *testing.T) {
	h := NewHub()
	a := newTestConn("a")
	b := newTestConn("b")
	c := newTestConn("c")
	h.add(a)
	h.add(b)
	h.add(c)
	h.Subscribe("ROOM01", "a")
	h.Subscribe("ROOM01", "b")

	h.ToRoom("ROOM01", "update", nil)

	if f := drain(t, a); f.Type != "update" {
		t.Errorf("a got %q, want update", f.Type)
	}
	if f := drain(t, b); f.Type != "update" {
		t.Errorf("b got %q, want update", f.Type)
	}
	select {
	case <-c.send:
		t.Error("broadcast reached an unsubscribed connection")
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	a := newTestConn("a")
	h.add(a)
	h.Subscribe("ROOM01", "a")
	h.Unsubscribe("ROOM01", "a")

	h.ToRoom("ROOM01", "update", nil)

	select {
	case <-a.send:
		t.Error("unsubscribed connection still received events")
	default:
	}
}

func TestHub_RemoveClearsMembership(t *testing.T) {
	h := NewHub()
	a := newTestConn("a")
	h.add(a)
	h.Subscribe("ROOM01", "a")

	if !h.remove(a) {
		t.Fatal("remove returned false for a registered connection")
	}
	if h.remove(a) {
		t.Error("second remove returned true, want false")
	}

	h.ToRoom("ROOM01", "update", nil)
	h.ToPlayer("a", "direct", nil)
	select {
	case <-a.send:
		t.Error("removed connection still received events")
	default:
	}
}

func TestConn_Reply(t *testing.T) {
	h := NewHub()
	a := newTestConn("a")
	h.add(a)
	a.hub = h

	a.reply(7, "ack", map[string]int{"n": 1})

	f := drain(t, a)
	if f.Type != "ack" || f.Seq != 7 {
		t.Errorf("frame = %+v, want ack with seq 7", f)
	}
}

func TestHub_BroadcastAfterOverflowDoesNotPanic(t *testing.T) {
	h := NewHub()
	slow := newTestConn("slow")
	h.add(slow)
	h.Subscribe("ROOM01", "slow")

	for i := 0; i < sendBuffer; i++ {
		h.ToRoom("ROOM01", "update", nil)
	}
	// This broadcast overflows the buffer and closes the connection, which
	// stays registered until its read pump exits.
	h.ToRoom("ROOM01", "update", nil)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("broadcast to a closed connection panicked: %v", r)
		}
	}()
	h.ToRoom("ROOM01", "update", nil)
	h.ToPlayer("slow", "direct", nil)
}

func TestConn_EnqueueOverflowCloses(t *testing.T) {
	a := newTestConn("a")
	for i := 0; i < sendBuffer; i++ {
		a.enqueue([]byte("x"))
	}
	// One past capacity closes the connection instead of blocking.
	a.enqueue([]byte("overflow"))

	for i := 0; i < sendBuffer; i++ {
		<-a.send
	}
	if _, ok := <-a.send; ok {
		t.Error("send channel still open after overflow")
	}
}
