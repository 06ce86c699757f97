package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed words_ru.txt
var builtinWords string

// LoadWords reads one word per line, lowercases it and keeps the words that
// pass keep. Duplicates are dropped.
func LoadWords(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file, keep)
}

// Builtin returns the bundled list of common Russian words.
func Builtin() []string {
	words, err := readWords(strings.NewReader(builtinWords), Cyrillic)
	if err != nil {
		panic(fmt.Sprintf("builtin word list: %v", err))
	}
	return words
}

func readWords(r io.Reader, keep FilterFunc) ([]string, error) {
	var words []string
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || seen[line] {
			continue
		}
		if keep != nil && !keep(line) {
			continue
		}
		seen[line] = true
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
