// Package analyzer turns collected post text into the content words that
// feed the word cloud.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"tweetcloud/internal/worker"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/storage"
)

// ContentPOS are the top-level parts of speech kept for the cloud:
// adjective, verb and noun.
var ContentPOS = []string{"形容詞", "動詞", "名詞"}

// Token is one morpheme of a tokenized line
type Token struct {
	Surface  string
	BaseForm string
	POS      string
}

// Tokenizer splits text into morphemes
type Tokenizer interface {
	Tokenize(text string) []Token
}

// KagomeTokenizer is a Tokenizer backed by kagome and the IPA dictionary
type KagomeTokenizer struct {
	t *tokenizer.Tokenizer
}

// NewKagomeTokenizer loads the IPA dictionary
func NewKagomeTokenizer() (*KagomeTokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &KagomeTokenizer{t: t}, nil
}

// Tokenize implements Tokenizer
func (k *KagomeTokenizer) Tokenize(text string) []Token {
	morphs := k.t.Tokenize(text)
	tokens := make([]Token, 0, len(morphs))

	for _, m := range morphs {
		tok := Token{Surface: m.Surface}
		if pos := m.POS(); len(pos) > 0 {
			tok.POS = pos[0]
		}
		if base, ok := m.BaseForm(); ok {
			tok.BaseForm = base
		}
		tokens = append(tokens, tok)
	}

	return tokens
}

// Analyzer extracts content words from text
type Analyzer struct {
	tokenizer Tokenizer
	keep      map[string]bool
	logger    logger.Logger

	// Workers tokenizes lines concurrently when greater than one. The
	// Tokenizer must then be safe for concurrent use.
	Workers int
}

// New creates an Analyzer keeping ContentPOS tokens
func New(t Tokenizer, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	keep := make(map[string]bool, len(ContentPOS))
	for _, pos := range ContentPOS {
		keep[pos] = true
	}

	return &Analyzer{tokenizer: t, keep: keep, logger: log}
}

// ExtractWords returns the base form of every content word in lines, in
// order. A token without a dictionary base form contributes its surface.
func (a *Analyzer) ExtractWords(lines []string) []string {
	if a.Workers <= 1 || len(lines) < 2 {
		var words []string
		for _, line := range lines {
			words = append(words, a.lineWords(line)...)
		}
		return words
	}

	// Map only fails on cancellation
	perLine, _ := worker.Map(context.Background(), a.Workers, lines, a.lineWords, a.logger)

	var words []string
	for _, lw := range perLine {
		words = append(words, lw...)
	}
	return words
}

func (a *Analyzer) lineWords(line string) []string {
	var words []string
	for _, tok := range a.tokenizer.Tokenize(line) {
		if !a.keep[tok.POS] {
			continue
		}
		word := tok.BaseForm
		if word == "" || word == "*" {
			word = tok.Surface
		}
		if strings.TrimSpace(word) == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// AnalyzeFile reads path and extracts its content words
func (a *Analyzer) AnalyzeFile(path string) ([]string, error) {
	lines, err := storage.ReadLines(path)
	if err != nil {
		return nil, err
	}

	words := a.ExtractWords(lines)

	a.logger.InfoWithFields("text analyzed", map[string]interface{}{
		"input": path,
		"lines": len(lines),
		"words": len(words),
	})

	return words, nil
}
