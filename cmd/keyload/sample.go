package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/config"
	"github.com/verte-zerg/keyload/internal/corpus"
	"github.com/verte-zerg/keyload/internal/generator"
	"github.com/verte-zerg/keyload/internal/wordlist"
)

var (
	sampleWords     int
	sampleCaps      float64
	samplePunct     float64
	samplePunctSet  string
	sampleWordsFile string
	sampleFocus     string
	sampleFactor    float64
	sampleSeed      int64
	sampleOut       string
)

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic Cyrillic corpus",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleWords, "words", defaultSampleWords, "number of words")
	cmd.Flags().Float64Var(&sampleCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&samplePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&samplePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	cmd.Flags().StringVar(&sampleWordsFile, "words-file", "", "word list, one word per line (default: built-in or $XDG_CONFIG_HOME/keyload/words.txt)")
	cmd.Flags().StringVar(&sampleFocus, "focus", "", "letters to favor when picking words")
	cmd.Flags().Float64Var(&sampleFactor, "focus-factor", 2.0, "weight factor for focus letters")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (default: current time)")
	cmd.Flags().StringVarP(&sampleOut, "out", "o", "", "output file; a .zst suffix compresses (default: stdout)")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	logger := loggerFromContext(cmd.Context())
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "words", &sampleWords, fileCfg.Sample.Words)
	applyFloatConfig(cmd, "caps", &sampleCaps, fileCfg.Sample.CapsPct)
	applyFloatConfig(cmd, "punct", &samplePunct, fileCfg.Sample.PunctPct)
	applyStringConfig(cmd, "punct-set", &samplePunctSet, fileCfg.Sample.PunctSet)
	if err := validateSample(); err != nil {
		return err
	}

	words, err := sampleWordList()
	if err != nil {
		return err
	}
	seed := sampleSeed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	opts := generator.Options{
		CapsPct:  sampleCaps,
		PunctPct: samplePunct,
		PunctSet: []rune(samplePunctSet),
		Factor:   sampleFactor,
	}
	if sampleFocus != "" {
		opts.Focus = make(map[rune]struct{})
		for _, r := range strings.ToLower(sampleFocus) {
			opts.Focus[r] = struct{}{}
		}
	}
	gen := generator.New(seed)

	if sampleOut == "" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := gen.WriteCorpus(w, words, sampleWords, opts); err != nil {
			return err
		}
		return w.Flush()
	}
	if err := writeSample(sampleOut, func(w io.Writer) error {
		return gen.WriteCorpus(w, words, sampleWords, opts)
	}); err != nil {
		return err
	}
	logger.Info("sample written", "path", sampleOut, "words", sampleWords, "seed", seed)
	return nil
}

func validateSample() error {
	if sampleWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if sampleCaps < 0 || sampleCaps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if samplePunct < 0 || samplePunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if samplePunct > 0 && samplePunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if sampleFactor < 0 {
		return fmt.Errorf("--focus-factor must be >= 0")
	}
	return nil
}

// sampleWordList prefers --words-file, then the user's word list, then the
// built-in one.
func sampleWordList() ([]string, error) {
	if sampleWordsFile != "" {
		words, err := wordlist.LoadWords(sampleWordsFile, wordlist.Cyrillic)
		if err != nil {
			return nil, fmt.Errorf("failed to load word list %s: %w", sampleWordsFile, err)
		}
		return words, nil
	}
	path := config.DefaultWordListPath()
	if _, err := os.Stat(path); err == nil {
		words, err := wordlist.LoadWords(path, wordlist.Cyrillic)
		if err != nil {
			return nil, fmt.Errorf("failed to load word list %s: %w", path, err)
		}
		return words, nil
	}
	return wordlist.Builtin(), nil
}

func writeSample(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if !strings.HasSuffix(path, ".zst") {
		w := bufio.NewWriter(f)
		if err := write(w); err != nil {
			return err
		}
		return w.Flush()
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(write(pw))
	}()
	if err := corpus.Compress(f, pr); err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	return nil
}
