package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"tweetcloud/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenizer map[string][]Token

func (f fakeTokenizer) Tokenize(text string) []Token {
	return f[text]
}

func TestExtractWordsFiltersByPOS(t *testing.T) {
	tok := fakeTokenizer{
		"美しい花が咲いた": {
			{Surface: "美しい", BaseForm: "美しい", POS: "形容詞"},
			{Surface: "花", BaseForm: "花", POS: "名詞"},
			{Surface: "が", BaseForm: "が", POS: "助詞"},
			{Surface: "咲い", BaseForm: "咲く", POS: "動詞"},
			{Surface: "た", BaseForm: "た", POS: "助動詞"},
		},
		"ChatGPTすごい": {
			{Surface: "ChatGPT", BaseForm: "*", POS: "名詞"},
			{Surface: "すごい", BaseForm: "すごい", POS: "形容詞"},
		},
	}

	words := New(tok, nil).ExtractWords([]string{"美しい花が咲いた", "ChatGPTすごい"})

	assert.Equal(t, []string{"美しい", "花", "咲く", "ChatGPT", "すごい"}, words)
}

func TestExtractWordsEmpty(t *testing.T) {
	words := New(fakeTokenizer{}, nil).ExtractWords([]string{"", "nothing known"})
	assert.Empty(t, words)
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweet_data.txt")
	require.NoError(t, os.WriteFile(path, []byte("花\n花\n"), 0644))

	tok := fakeTokenizer{"花": {{Surface: "花", BaseForm: "花", POS: "名詞"}}}
	log := logger.NewTestLogger()

	words, err := New(tok, log).AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"花", "花"}, words)
	assert.True(t, log.HasMessage("text analyzed"))

	_, err = New(tok, log).AnalyzeFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExtractWordsConcurrent(t *testing.T) {
	tok := fakeTokenizer{
		"a": {{Surface: "犬", BaseForm: "犬", POS: "名詞"}},
		"b": {{Surface: "走る", BaseForm: "走る", POS: "動詞"}, {Surface: "を", BaseForm: "を", POS: "助詞"}},
		"c": {{Surface: "速い", BaseForm: "速い", POS: "形容詞"}},
	}
	var lines []string
	var want []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "a", "b", "c")
		want = append(want, "犬", "走る", "速い")
	}

	a := New(tok, nil)
	a.Workers = 4

	assert.Equal(t, want, a.ExtractWords(lines))
}

func TestKagomeTokenizerConcurrent(t *testing.T) {
	tok, err := NewKagomeTokenizer()
	require.NoError(t, err)

	lines := []string{"美しい花が咲いた", "猫が走る", "美しい花が咲いた", "猫が走る"}
	sequential := New(tok, nil).ExtractWords(lines)

	a := New(tok, nil)
	a.Workers = 3
	assert.Equal(t, sequential, a.ExtractWords(lines))
}

func TestKagomeTokenizer(t *testing.T) {
	tok, err := NewKagomeTokenizer()
	require.NoError(t, err)

	words := New(tok, nil).ExtractWords([]string{"美しい花が咲いた"})

	assert.Contains(t, words, "美しい")
	assert.Contains(t, words, "花")
	assert.Contains(t, words, "咲く")
	assert.NotContains(t, words, "が")
	assert.NotContains(t, words, "た")
}

func TestKagomeTokenizerKeepsCompoundNouns(t *testing.T) {
	tok, err := NewKagomeTokenizer()
	require.NoError(t, err)

	// Normal mode keeps dictionary compounds whole; search mode would split them
	words := New(tok, nil).ExtractWords([]string{"関西国際空港"})
	assert.Equal(t, []string{"関西国際空港"}, words)
}
