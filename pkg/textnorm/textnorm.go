// Package textnorm cleans raw post text before it is stored.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	mentionPattern    = regexp.MustCompile(`@[\p{L}\p{N}_]+ *`)
	hashtagPattern    = regexp.MustCompile(`#[^ ]+ *`)
	urlPattern        = regexp.MustCompile(`https?://[\p{L}\p{N}_/:%#$&?()~.=+\-]+ *`)
	whitespacePattern = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
)

// AllowedChars lists every rune that survives normalization.
// Note that space and the digit 0 are absent.
var AllowedChars = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0021, Hi: 0x0021, Stride: 1}, // !
		{Lo: 0x0031, Hi: 0x0039, Stride: 1}, // 1-9
		{Lo: 0x003f, Hi: 0x003f, Stride: 1}, // ?
		{Lo: 0x0041, Hi: 0x005a, Stride: 1}, // A-Z
		{Lo: 0x0061, Hi: 0x007a, Stride: 1}, // a-z
		{Lo: 0x3001, Hi: 0x3002, Stride: 1}, // 、。
		{Lo: 0x301c, Hi: 0x301c, Stride: 1}, // 〜
		{Lo: 0x3041, Hi: 0x3093, Stride: 1}, // hiragana
		{Lo: 0x30a1, Hi: 0x30f6, Stride: 1}, // katakana
		{Lo: 0x30fc, Hi: 0x30fc, Stride: 1}, // ー
		{Lo: 0x4e00, Hi: 0x9fd5, Stride: 1}, // kanji
	},
	LatinOffset: 5,
}

// Normalize strips retweets, mentions, hashtags and URLs from text, collapses
// whitespace and then drops every rune outside AllowedChars.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(AllowedChars, r) {
			return r
		}
		return -1
	}, Strip(text))
}

// Strip applies the removal and whitespace steps of Normalize without the
// character allow-list.
func Strip(text string) string {
	if strings.HasPrefix(text, "RT ") {
		return ""
	}

	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	return whitespacePattern.ReplaceAllString(text, " ")
}
