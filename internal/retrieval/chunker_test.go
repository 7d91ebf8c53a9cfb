package retrieval

import (
	"reflect"
	"strings"
	"testing"
)

func TestChunkGreedyPacking(t *testing.T) {
	got := Chunk("alpha beta gamma delta", 10)
	want := []string{"alpha beta", "gamma delta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk() = %v, want %v", got, want)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	for _, size := range []int{1, 10, 200, 1000} {
		if got := Chunk("", size); len(got) != 0 {
			t.Errorf("Chunk(\"\", %d) = %v, want empty", size, got)
		}
		if got := Chunk("   \n\t  ", size); len(got) != 0 {
			t.Errorf("Chunk(whitespace, %d) = %v, want empty", size, got)
		}
	}
}

func TestChunkSingleLongWord(t *testing.T) {
	word := strings.Repeat("x", 50)
	got := Chunk(word, 10)
	if len(got) != 1 || got[0] != word {
		t.Fatalf("Chunk(long word) = %v, want the word emitted whole", got)
	}
}

func TestChunkLastPartialEmitted(t *testing.T) {
	got := Chunk("one two three", 100)
	want := []string{"one two three"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk() = %v, want %v", got, want)
	}
}

func TestChunkReconstruction(t *testing.T) {
	texts := []string{
		"alpha beta gamma delta",
		"the quick brown fox jumps over the lazy dog",
		"a b c d e f g h i j k",
		strings.Repeat("word ", 200),
	}
	for _, text := range texts {
		for _, size := range []int{1, 5, 10, 37, 200} {
			chunks := Chunk(text, size)
			rebuilt := strings.Fields(strings.Join(chunks, " "))
			original := strings.Fields(text)
			if !reflect.DeepEqual(rebuilt, original) {
				t.Errorf("size %d: word sequence not preserved for %q", size, text)
			}
		}
	}
}

func TestChunkOverrunBoundedByLastWord(t *testing.T) {
	// A chunk may pass the limit only via the word that closed it, never
	// by more.
	text := "the quick brown fox jumps over the lazy dog again and again"
	for _, size := range []int{5, 10, 20} {
		for _, chunk := range Chunk(text, size) {
			words := strings.Fields(chunk)
			if len(words) <= 1 {
				continue
			}
			withoutLast := strings.Join(words[:len(words)-1], " ")
			if len(withoutLast)+1 > size {
				t.Errorf("size %d: chunk %q already over limit before its last word", size, chunk)
			}
		}
	}
}
