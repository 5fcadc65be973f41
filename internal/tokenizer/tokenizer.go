package tokenizer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Special token ids. These occupy the first vocabulary slots and are stable
// across runs.
const (
	PAD = 0
	EOS = 1
	UNK = 2
	BOS = 3
	SEP = 4
)

var specialTokens = []string{"<PAD>", "<EOS>", "<UNK>", "<BOS>", "<SEP>", "<MASK>", "<USER>", "<AI>"}

// baseChars seeds the vocabulary with single characters so any text can be
// encoded via character fallback.
const baseChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	".,!?;:'-\"()[]{}@#$%^&*+=<>/\\|`~_ \n\t" +
	"áéíóúñüÁÉÍÓÚÑÜ¿¡"

var commonWords = []string{
	"hello", "world", "thanks", "please", "good", "bad", "yes", "no",
	"what", "how", "when", "where", "who", "why", "which", "that", "this",
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"i", "you", "he", "she", "it", "we", "they", "my", "your", "his", "her",
	"help", "need", "want", "can", "must", "should", "am", "im",
	"ai", "code", "data", "model", "train", "learn",
	"neural", "network", "machine", "learning", "deep", "algorithm",
	"function", "class", "variable", "array", "list", "dict", "string",
	"input", "output", "process", "compute", "memory", "fast", "slow",
	"happy", "sad", "angry", "surprised", "scared", "confused",
	"remember", "name", "like", "love", "hate", "know", "think", "say",
}

var partPattern = regexp.MustCompile(`\w+|[^\w\s]|\s+`)

// Tokenizer is a word-level tokenizer with character fallback and a
// learnable vocabulary. It maps text to ids and back; the mapping is outside
// the model core's contract, which operates on ids only.
//
// Tokenizer is not safe for concurrent use: Encode may grow the vocabulary.
type Tokenizer struct {
	maxVocab int
	vocab    map[string]int
	inverse  []string
	baseSize int
}

// New builds a tokenizer whose vocabulary may grow up to maxVocab entries.
func New(maxVocab int) *Tokenizer {
	t := &Tokenizer{
		maxVocab: maxVocab,
		vocab:    make(map[string]int),
	}
	for _, s := range specialTokens {
		t.add(s)
	}
	for _, r := range baseChars {
		t.add(string(r))
	}
	for _, w := range commonWords {
		t.add(strings.ToLower(w))
	}
	t.baseSize = len(t.inverse)
	return t
}

func (t *Tokenizer) add(tok string) int {
	if id, ok := t.vocab[tok]; ok {
		return id
	}
	if t.maxVocab > 0 && len(t.inverse) >= t.maxVocab {
		return UNK
	}
	id := len(t.inverse)
	t.vocab[tok] = id
	t.inverse = append(t.inverse, tok)
	return id
}

// Len returns the current vocabulary size.
func (t *Tokenizer) Len() int { return len(t.inverse) }

// BaseSize returns the size of the built-in vocabulary before any learning.
func (t *Tokenizer) BaseSize() int { return t.baseSize }

// LearnWord adds a word to the vocabulary if there is room, returning its id
// (or UNK when the vocabulary is full).
func (t *Tokenizer) LearnWord(word string) int {
	return t.add(strings.ToLower(word))
}

// Encode tokenizes text. Known words map to their id; unknown parts fall
// back to characters, and unknown characters to UNK. When addSpecial is set
// the sequence is wrapped in BOS/EOS.
func (t *Tokenizer) Encode(text string, addSpecial bool) []int {
	var ids []int
	if addSpecial {
		ids = append(ids, BOS)
	}
	for _, part := range partPattern.FindAllString(strings.ToLower(text), -1) {
		if id, ok := t.vocab[part]; ok {
			ids = append(ids, id)
			continue
		}
		for _, r := range part {
			if id, ok := t.vocab[string(r)]; ok {
				ids = append(ids, id)
			} else {
				ids = append(ids, UNK)
			}
		}
	}
	if addSpecial {
		ids = append(ids, EOS)
	}
	return ids
}

// EncodePrompt tokenizes text for generation: it prefixes BOS and does not
// append a trailing EOS, leaving the model free to produce one.
func (t *Tokenizer) EncodePrompt(text string) []int {
	ids := []int{BOS}
	return append(ids, t.Encode(text, false)...)
}

// Decode maps ids back to text. When skipSpecial is set, PAD/BOS/SEP are
// dropped and the first EOS ends decoding. Unknown ids decode to nothing.
func (t *Tokenizer) Decode(ids []int, skipSpecial bool) string {
	var b strings.Builder
	for _, id := range ids {
		if skipSpecial {
			if id == EOS {
				break
			}
			if id == PAD || id == BOS || id == SEP {
				continue
			}
		}
		if id >= 0 && id < len(t.inverse) {
			tok := t.inverse[id]
			if skipSpecial && strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") && t.isSpecial(tok) {
				continue
			}
			b.WriteString(tok)
		}
	}
	return b.String()
}

func (t *Tokenizer) isSpecial(tok string) bool {
	for _, s := range specialTokens {
		if tok == s {
			return true
		}
	}
	return false
}

type vocabFile struct {
	MaxVocab int      `json:"max_vocab"`
	Tokens   []string `json:"tokens"`
}

// Save persists the vocabulary so learned words survive restarts.
func (t *Tokenizer) Save(path string) error {
	data, err := json.MarshalIndent(vocabFile{MaxVocab: t.maxVocab, Tokens: t.inverse}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vocab: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load restores a vocabulary written by Save.
func Load(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vf vocabFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vocab file %s: %w", path, err)
	}
	t := &Tokenizer{
		maxVocab: vf.MaxVocab,
		vocab:    make(map[string]int, len(vf.Tokens)),
		inverse:  vf.Tokens,
	}
	for i, tok := range vf.Tokens {
		t.vocab[tok] = i
	}
	t.baseSize = len(vf.Tokens)
	return t, nil
}
