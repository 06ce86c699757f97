// Package generator builds synthetic Cyrillic corpora.
package generator

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"unicode"
)

// Options control word decoration and line layout.
type Options struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
	// Focus biases word selection toward words containing these runes.
	Focus  map[rune]struct{}
	Factor float64
	// WordsPerLine breaks the output into lines; zero means 12.
	WordsPerLine int
}

const defaultWordsPerLine = 12

// Generator produces randomized text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator with a fixed seed so samples are reproducible.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects count words and applies caps and punctuation rules.
func (g *Generator) Generate(words []string, count int, opts Options) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	pick := g.uniform(words)
	if len(opts.Focus) > 0 && opts.Factor > 0 {
		pick = g.weighted(words, opts.Focus, opts.Factor)
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[pick()]
		word = applyCaps(g.rnd, word, opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
		result = append(result, word)
	}
	return result
}

// WriteCorpus writes count generated words to w, WordsPerLine per line.
func (g *Generator) WriteCorpus(w io.Writer, words []string, count int, opts Options) error {
	perLine := opts.WordsPerLine
	if perLine <= 0 {
		perLine = defaultWordsPerLine
	}
	out := bufio.NewWriter(w)
	generated := g.Generate(words, count, opts)
	for start := 0; start < len(generated); start += perLine {
		end := min(start+perLine, len(generated))
		if _, err := fmt.Fprintln(out, strings.Join(generated[start:end], " ")); err != nil {
			return err
		}
	}
	return out.Flush()
}

func (g *Generator) uniform(words []string) func() int {
	return func() int { return g.rnd.Intn(len(words)) }
}

func (g *Generator) weighted(words []string, focus map[rune]struct{}, factor float64) func() int {
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		hits := 0
		for _, r := range word {
			if _, ok := focus[r]; ok {
				hits++
			}
		}
		weights[i] = 1.0 + float64(hits)*factor
		total += weights[i]
	}
	return func() int {
		r := g.rnd.Float64() * total
		acc := 0.0
		for j, w := range weights {
			acc += w
			if r <= acc {
				return j
			}
		}
		return len(weights) - 1
	}
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
