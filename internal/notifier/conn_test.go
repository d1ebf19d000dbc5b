package notifier

import (
	"fmt"
	"testing"
)

func queued(c *Conn) []string {
	var out []string
	for {
		select {
		case f := <-c.Outbound():
			out = append(out, string(f))
		default:
			return out
		}
	}
}

func TestEnqueueDropOldest(t *testing.T) {
	c := NewConn("a", "", 3, DropOldest)
	for i := 1; i <= 5; i++ {
		if !c.Enqueue([]byte(fmt.Sprint(i))) {
			t.Fatalf("frame %d rejected under drop-oldest", i)
		}
	}
	if got := fmt.Sprint(queued(c)); got != "[3 4 5]" {
		t.Fatalf("queue: want [3 4 5], got %s", got)
	}
}

func TestEnqueueDropNewest(t *testing.T) {
	c := NewConn("a", "", 3, DropNewest)
	accepted := 0
	for i := 1; i <= 5; i++ {
		if c.Enqueue([]byte(fmt.Sprint(i))) {
			accepted++
		}
	}
	if accepted != 3 {
		t.Fatalf("accepted: want 3, got %d", accepted)
	}
	if got := fmt.Sprint(queued(c)); got != "[1 2 3]" {
		t.Fatalf("queue: want [1 2 3], got %s", got)
	}
}

func TestEnqueueOnClosedConn(t *testing.T) {
	c := NewConn("a", "", 3, DropOldest)
	c.Close("bye")
	if c.Enqueue([]byte("x")) {
		t.Fatal("enqueue on closed connection succeeded")
	}
	if c.QueueLen() != 0 {
		t.Fatal("frame queued on closed connection")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("done not released")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewConn("a", "", 1, DropOldest)
	c.Close("first")
	c.Close("second")
	if c.CloseReason() != "first" {
		t.Fatalf("reason: want first, got %q", c.CloseReason())
	}
}

func TestNewConnDefaults(t *testing.T) {
	c := NewConn("", "10.0.0.1:5000", 0, DropOldest)
	if len(c.ID()) != 16 {
		t.Fatalf("generated id: %q", c.ID())
	}
	if c.QueueCap() != 1 {
		t.Fatalf("queue cap: want 1, got %d", c.QueueCap())
	}
	if c.RemoteAddr() != "10.0.0.1:5000" {
		t.Fatalf("remote addr: %q", c.RemoteAddr())
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseOverflowPolicy("drop_newest"); err != nil || p != DropNewest {
		t.Fatalf("drop_newest: %v %v", p, err)
	}
	if p, err := ParseOverflowPolicy("drop_oldest"); err != nil || p != DropOldest {
		t.Fatalf("drop_oldest: %v %v", p, err)
	}
	if _, err := ParseOverflowPolicy("drop_all"); err == nil {
		t.Fatal("expected error")
	}
	if p, err := ParseDuplicatePolicy("close_previous"); err != nil || p != ClosePrevious {
		t.Fatalf("close_previous: %v %v", p, err)
	}
	if _, err := ParseDuplicatePolicy("many"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseInbound(t *testing.T) {
	msg, err := ParseInbound([]byte(` {"type":"subscribe","channel":""} `))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Type != InSubscribe || msg.Channel == nil || *msg.Channel != "" {
		t.Fatalf("unexpected: %+v", msg)
	}
	if msg.UserID != nil {
		t.Fatal("absent userId should stay nil")
	}
}
