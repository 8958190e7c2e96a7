package events_test

import (
	"testing"

	"github.com/noobcash/blockchain/foundation/events"
)

func Test_Parse(t *testing.T) {
	type table struct {
		name    string
		msg     string
		publish bool
		kind    string
		message string
	}

	tt := []table{
		{name: "block", msg: "viewer: block: mined: 3: 0x00ab", publish: true, kind: "block", message: "mined: 3: 0x00ab"},
		{name: "bare", msg: "viewer: shutdown", publish: true, kind: "shutdown"},
		{name: "internal", msg: "state: run: coordinator started"},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			evt, ok := events.Parse(2, tst.msg)
			if ok != tst.publish {
				t.Logf("got: %t", ok)
				t.Logf("exp: %t", tst.publish)
				t.Fatalf("Should only publish prefixed messages.")
			}

			if !ok {
				return
			}

			if evt.Node != 2 || evt.Kind != tst.kind || evt.Message != tst.message {
				t.Logf("got: %+v", evt)
				t.Logf("exp: kind[%s] message[%s]", tst.kind, tst.message)
				t.Fatalf("Should split the message into kind and message.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_FanOut(t *testing.T) {
	evts := events.New()

	a := evts.Acquire("a")
	b := evts.Acquire("b")

	evts.Send(events.Event{Kind: "block"})

	for name, ch := range map[string]<-chan events.Event{"a": a, "b": b} {
		if evt := <-ch; evt.Kind != "block" {
			t.Fatalf("Should deliver the event to subscriber %s.", name)
		}
	}

	if err := evts.Release("a"); err != nil {
		t.Fatalf("Should be able to release a subscriber: %s", err)
	}

	if err := evts.Release("a"); err == nil {
		t.Fatalf("Should not release a subscriber twice.")
	}

	if evts.Subscribers() != 1 {
		t.Logf("got: %d", evts.Subscribers())
		t.Logf("exp: %d", 1)
		t.Fatalf("Should track the remaining subscribers.")
	}

	evts.Shutdown()

	if _, open := <-b; open {
		t.Fatalf("Should close every channel on shutdown.")
	}
}
