package memory

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestAddAndLen(t *testing.T) {
	t.Parallel()

	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Add("the cat sat on the mat", "facts", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if _, err := s.Add("   ", "facts", 1); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestAddDeduplicates(t *testing.T) {
	t.Parallel()

	s, _ := Open("")
	pos1, _ := s.Add("user likes go", "preferences", 1)
	pos2, _ := s.Add("User Likes GO", "preferences", 1) // hash is case-insensitive
	if pos1 != pos2 {
		t.Fatalf("duplicate content got a new slot: %d vs %d", pos1, pos2)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	st := s.Stats()
	if st.TotalAccesses != 1 {
		t.Errorf("accesses = %d, want 1 bump from the duplicate", st.TotalAccesses)
	}
}

func TestSearchRelevance(t *testing.T) {
	t.Parallel()

	s, _ := Open("")
	s.Add("go is a programming language", "facts", 1)
	s.Add("the weather is nice today", "general", 1)
	s.Add("go routines make concurrency easy", "facts", 1)

	hits := s.Search("go concurrency", 2, "")
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if hits[0].Content != "go routines make concurrency easy" {
		t.Errorf("top hit = %q", hits[0].Content)
	}
	for _, h := range hits {
		if h.Content == "the weather is nice today" {
			t.Error("irrelevant item returned")
		}
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	t.Parallel()

	s, _ := Open("")
	s.Add("apples are red", "facts", 1)
	s.Add("apples remind me of autumn", "conversations", 1)

	hits := s.Search("apples", 10, "facts")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Category != "facts" {
		t.Errorf("category = %q, want facts", hits[0].Category)
	}
}

func TestRecent(t *testing.T) {
	t.Parallel()

	s, _ := Open("")
	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("item number %d", i), "general", 1)
	}
	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("got %d items, want 2", len(recent))
	}
}

func TestEvictionKeepsValuableItems(t *testing.T) {
	t.Parallel()

	s, _ := Open("", WithMaxItems(4))
	// The first item accumulates accesses via duplicates, so it survives.
	s.Add("keep me around", "facts", 2)
	s.Add("keep me around", "facts", 2)
	s.Add("keep me around", "facts", 2)
	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("filler item %d", i), "general", 1)
	}

	if s.Len() > 4 {
		t.Fatalf("Len = %d, want at most the cap of 4", s.Len())
	}
	if hits := s.Search("keep me around", 1, ""); len(hits) == 0 {
		t.Error("high-value item was evicted")
	}
}

func TestPersistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Add("persist me", "facts", 1.5)

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("reopened Len = %d, want 1", reopened.Len())
	}
	hits := reopened.Search("persist", 1, "")
	if len(hits) != 1 || hits[0].Content != "persist me" {
		t.Fatalf("reopened search = %+v", hits)
	}
	if hits[0].Importance != 1.5 {
		t.Errorf("importance = %g, want 1.5", hits[0].Importance)
	}
}
