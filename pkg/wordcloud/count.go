package wordcloud

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// WordCount is a word and how often it occurred
type WordCount struct {
	Word  string
	Count int
}

// Words of two or more word characters; shorter tokens are skipped.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']+`)

// CountWords splits text into words, drops stopwords and purely numeric
// words, and returns the maxWords most frequent words, most frequent first.
// Case variants are counted together under their most common spelling, and
// a trailing "'s" or plural "s" is folded into the singular when both occur.
// maxWords <= 0 returns every word.
func CountWords(text string, stopwords []string, maxWords int) []WordCount {
	stop := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(w)] = true
	}

	// lowercase -> spelling -> count
	variants := make(map[string]map[string]int)
	for _, word := range wordPattern.FindAllString(text, -1) {
		if strings.HasSuffix(strings.ToLower(word), "'s") {
			word = word[:len(word)-2]
		}
		lower := strings.ToLower(word)
		if stop[lower] || isNumeric(word) {
			continue
		}
		if variants[lower] == nil {
			variants[lower] = make(map[string]int)
		}
		variants[lower][word]++
	}

	counts := make(map[string]int, len(variants))
	for lower, spellings := range variants {
		total := 0
		for _, n := range spellings {
			total += n
		}
		counts[lower] = total
	}

	// fold plurals into singulars
	var plurals []string
	for lower := range counts {
		if len(lower) > 3 && strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") {
			if _, ok := counts[lower[:len(lower)-1]]; ok {
				plurals = append(plurals, lower)
			}
		}
	}
	for _, lower := range plurals {
		singular := lower[:len(lower)-1]
		counts[singular] += counts[lower]
		delete(counts, lower)
	}

	result := make([]WordCount, 0, len(counts))
	for lower, n := range counts {
		result = append(result, WordCount{Word: preferredSpelling(variants[lower]), Count: n})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})

	if maxWords > 0 && len(result) > maxWords {
		result = result[:maxWords]
	}
	return result
}

func preferredSpelling(spellings map[string]int) string {
	best, bestCount := "", -1
	for s, n := range spellings {
		if n > bestCount || (n == bestCount && s < best) {
			best, bestCount = s, n
		}
	}
	return best
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
