package voice

import (
	"context"
	"testing"
	"time"
)

func TestOutboxDrain(t *testing.T) {
	o := NewOutbox("cs-CZ", 4)

	o.Announce("Přepočítávám trasu.")
	o.Announce("Jste mimo trasu, přepočítávám.")

	got := o.Drain()
	if len(got) != 2 {
		t.Fatalf("drained %d, want 2", len(got))
	}
	if got[0].Text != "Přepočítávám trasu." || got[0].Lang != "cs-CZ" {
		t.Fatalf("first = %+v", got[0])
	}

	if again := o.Drain(); len(again) != 0 {
		t.Fatalf("second drain = %v, want empty", again)
	}
}

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	o := NewOutbox("en-US", 2)

	o.Announce("one")
	o.Announce("two")
	o.Announce("three")

	got := o.Drain()
	if len(got) != 2 || got[0].Text != "two" || got[1].Text != "three" {
		t.Fatalf("got %+v", got)
	}
}

func TestExecSpeakerDoesNotBlock(t *testing.T) {
	started := make(chan []string, 1)
	release := make(chan struct{})

	s := &ExecSpeaker{
		command: "say",
		args:    func(text string) []string { return []string{text} },
		timeout: time.Second,
		logger:  nil,
		run: func(ctx context.Context, name string, args ...string) error {
			started <- args
			<-release
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		s.Announce("hello")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Announce blocked on the speech command")
	}

	select {
	case args := <-started:
		if len(args) != 1 || args[0] != "hello" {
			t.Fatalf("args = %v", args)
		}
	case <-time.After(time.Second):
		t.Fatal("speech command never ran")
	}
	close(release)
}
