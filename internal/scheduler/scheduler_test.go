package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"educonnect/placement-service/internal/logging"
	"educonnect/placement-service/internal/scheduler"
)

func TestStart_RunsEachTaskImmediately(t *testing.T) {
	ran := make(chan string, 2)
	s := scheduler.New(logging.Nop())
	s.Add(scheduler.Task{Name: "sweep", Spec: "@every 1h", Run: func(context.Context) error {
		ran <- "sweep"
		return nil
	}})
	s.Add(scheduler.Task{Name: "import", Spec: "@every 6h", Run: func(context.Context) error {
		ran <- "import"
		return errors.New("feed down")
	}})
	s.Add(scheduler.Task{Name: "disabled", Run: func(context.Context) error {
		t.Error("disabled task ran")
		return nil
	}})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case name := <-ran:
			got[name] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("tasks ran: %v, want sweep and import", got)
		}
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	s := scheduler.New(logging.Nop())
	s.Add(scheduler.Task{Name: "bad", Spec: "every now and then", Run: func(context.Context) error { return nil }})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start with invalid spec should fail")
	}
}
