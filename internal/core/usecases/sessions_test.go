package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/usecases"
)

func TestSessionRegistry_Lifecycle(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, time.Minute, 10)

	s, err := reg.Create()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("expected a session id")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 session, got %d", reg.Len())
	}

	got, err := reg.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected to get the created session, got %v, %v", got, err)
	}

	if err := reg.Delete(s.ID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Get(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := reg.Delete(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestSessionRegistry_UniqueIDs(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, time.Minute, 100)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := reg.Create()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[s.ID()] {
			t.Fatalf("duplicate id %s", s.ID())
		}
		seen[s.ID()] = true
	}
}

func TestSessionRegistry_Max(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, time.Minute, 2)
	for i := 0; i < 2; i++ {
		if _, err := reg.Create(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := reg.Create(); !errors.Is(err, domain.ErrTooManySessions) {
		t.Errorf("expected too many sessions, got %v", err)
	}
}

func TestSessionRegistry_Sweep(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, 10*time.Minute, 10)
	s, _ := reg.Create()

	if n := reg.Sweep(time.Now()); n != 0 {
		t.Errorf("expected nothing swept, got %d", n)
	}
	if n := reg.Sweep(time.Now().Add(11 * time.Minute)); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if _, err := reg.Get(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected swept session gone, got %v", err)
	}
}

func TestSessionRegistry_ActivityKeepsSessionAlive(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, 50*time.Millisecond, 10)
	s, _ := reg.Create()

	time.Sleep(60 * time.Millisecond)
	s.AddTerm(context.Background(), "brød")

	if n := reg.Sweep(time.Now()); n != 0 {
		t.Errorf("recently used session must survive, swept %d", n)
	}
}

func TestSessionRegistry_ReadsKeepSessionAlive(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, 50*time.Millisecond, 10)
	s, _ := reg.Create()
	before := s.Snapshot().UpdatedAt

	time.Sleep(60 * time.Millisecond)
	got, err := reg.Get(s.ID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := reg.Sweep(time.Now()); n != 0 {
		t.Errorf("recently read session must survive, swept %d", n)
	}
	if !got.Snapshot().UpdatedAt.Equal(before) {
		t.Error("a read must not change the snapshot timestamp")
	}
}

func TestSessionRegistry_Janitor(t *testing.T) {
	reg := usecases.NewSessionRegistry(&mockOfferLookup{}, nil, nil, time.Millisecond, 10)
	_, _ = reg.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if reg.Len() != 0 {
		t.Errorf("expected janitor to evict the idle session, %d left", reg.Len())
	}
}
