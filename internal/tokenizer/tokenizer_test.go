package tokenizer

import (
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	text := "hello world how are you"
	ids := tok.Encode(text, false)
	if len(ids) == 0 {
		t.Fatal("empty encoding")
	}
	if got := tok.Decode(ids, true); got != text {
		t.Errorf("roundtrip = %q, want %q", got, text)
	}
}

func TestEncodeAddSpecial(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	ids := tok.Encode("hello", true)
	if ids[0] != BOS {
		t.Errorf("first id = %d, want BOS", ids[0])
	}
	if ids[len(ids)-1] != EOS {
		t.Errorf("last id = %d, want EOS", ids[len(ids)-1])
	}
}

func TestEncodePrompt(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	ids := tok.EncodePrompt("hello")
	if ids[0] != BOS {
		t.Errorf("first id = %d, want BOS", ids[0])
	}
	if ids[len(ids)-1] == EOS {
		t.Error("prompt encoding must not end with EOS")
	}
}

func TestDecodeStopsAtEOS(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	hello := tok.Encode("hello", false)
	world := tok.Encode("world", false)
	ids := append(append([]int{}, hello...), EOS)
	ids = append(ids, world...)
	if got := tok.Decode(ids, true); got != "hello" {
		t.Errorf("decode = %q, want %q", got, "hello")
	}
}

func TestCharFallbackAndLearning(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	word := "zxqvw"
	charIDs := tok.Encode(word, false)
	if len(charIDs) != len(word) {
		t.Fatalf("unknown word should fall back to %d chars, got %d ids", len(word), len(charIDs))
	}

	id := tok.LearnWord(word)
	if id == UNK {
		t.Fatal("LearnWord returned UNK with room left in the vocabulary")
	}
	learned := tok.Encode(word, false)
	if len(learned) != 1 || learned[0] != id {
		t.Errorf("after learning, encoding = %v, want [%d]", learned, id)
	}
}

func TestVocabCap(t *testing.T) {
	t.Parallel()

	tok := New(10) // only the first few built-ins fit
	if tok.Len() != 10 {
		t.Fatalf("vocab size = %d, want the cap of 10", tok.Len())
	}
	if id := tok.LearnWord("brandnewword"); id != UNK {
		t.Errorf("LearnWord on a full vocabulary = %d, want UNK", id)
	}
	if tok.Len() != 10 {
		t.Errorf("vocabulary grew past its cap to %d", tok.Len())
	}
}

func TestUnknownCharBecomesUNK(t *testing.T) {
	t.Parallel()

	tok := New(15000)
	// A rune outside baseChars that was never learned.
	ids := tok.Encode("世", false)
	if len(ids) != 1 || ids[0] != UNK {
		t.Errorf("encoding = %v, want [UNK]", ids)
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.json")

	tok := New(15000)
	tok.LearnWord("wispword")
	if err := tok.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != tok.Len() {
		t.Fatalf("loaded vocab size %d, want %d", loaded.Len(), tok.Len())
	}
	a := tok.Encode("wispword hello", false)
	b := loaded.Encode("wispword hello", false)
	if len(a) != len(b) {
		t.Fatalf("encodings differ after reload: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("encodings differ at %d: %d vs %d", i, a[i], b[i])
		}
	}
}
