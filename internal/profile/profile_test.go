package profile

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetNameAndGreeting(t *testing.T) {
	t.Parallel()

	c, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.SetName("Alex"); err != nil {
		t.Fatalf("SetName: %v", err)
	}

	morning := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	got := c.Greeting(morning)
	if !strings.Contains(got, "Good morning") || !strings.Contains(got, "Alex") {
		t.Errorf("greeting = %q", got)
	}

	evening := time.Date(2026, 8, 23, 20, 0, 0, 0, time.UTC)
	if got := c.Greeting(evening); !strings.Contains(got, "Good evening") {
		t.Errorf("greeting = %q", got)
	}
}

func TestAddInterestDeduplicates(t *testing.T) {
	t.Parallel()

	c, _ := Open("")
	c.AddInterest("Chess")
	c.AddInterest("chess")
	c.AddInterest("  chess  ")

	p := c.Snapshot()
	if len(p.Interests) != 1 {
		t.Fatalf("interests = %v, want one entry", p.Interests)
	}
	if p.Interests[0] != "chess" {
		t.Errorf("interest = %q, want normalized %q", p.Interests[0], "chess")
	}
}

func TestTouchCountsInteractions(t *testing.T) {
	t.Parallel()

	c, _ := Open("")
	c.Touch()
	c.Touch()
	if n := c.Snapshot().InteractionCount; n != 2 {
		t.Errorf("interaction count = %d, want 2", n)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	c, _ := Open("")
	c.SetName("Sam")
	c.AddInterest("music")
	c.LearnFact("favorite color", "green")

	s := c.Summary()
	for _, want := range []string{"Sam", "music", "favorite color", "green"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %q", want, s)
		}
	}
}

func TestPersistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.json")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.SetName("Robin")
	c.AddInterest("cycling")

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	p := reopened.Snapshot()
	if p.Name != "Robin" {
		t.Errorf("name = %q, want Robin", p.Name)
	}
	if len(p.Interests) != 1 || p.Interests[0] != "cycling" {
		t.Errorf("interests = %v", p.Interests)
	}
}
