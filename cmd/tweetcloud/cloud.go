package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"tweetcloud/pkg/analyzer"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/ui"
	"tweetcloud/pkg/wordcloud"
)

var (
	// Cloud command flags
	cloudInput  string
	cloudOutput string
	fontPath    string
	cloudWidth  int
	cloudHeight int
	maxWords    int
	background  string
	topWords    int
	workers     int
)

// ErrNoWords is returned when the input yields no content words
var ErrNoWords = errors.New("no content words found in input")

// cloudCmd represents the cloud command
var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Render a word cloud from collected texts",
	Long: `Tokenize every line of the input file with kagome, keep adjectives,
verbs and nouns in their base form and render the most frequent words
as a PNG word cloud.

A font with Japanese glyphs is required.`,
	Example: `  # Render tweet_data.txt into wordcloud.png
  tweetcloud cloud --font ~/Library/Fonts/NotoSansJP-Regular.otf

  # Larger canvas, black background, print the top 20 words
  tweetcloud cloud -i cats.txt -o cats.png -f ./NotoSansJP.otf \
    --width 1200 --height 600 --background black --top 20`,
	Args: cobra.NoArgs,
	RunE: runCloud,
}

func init() {
	rootCmd.AddCommand(cloudCmd)

	cloudCmd.Flags().StringVarP(&cloudInput, "input", "i", "", "collected text file (default tweet_data.txt)")
	cloudCmd.Flags().StringVarP(&cloudOutput, "output", "o", "", "PNG file to write (default wordcloud.png)")
	cloudCmd.Flags().StringVarP(&fontPath, "font", "f", "", "TrueType/OpenType font with Japanese glyphs")
	cloudCmd.Flags().IntVar(&cloudWidth, "width", 400, "canvas width in pixels")
	cloudCmd.Flags().IntVar(&cloudHeight, "height", 200, "canvas height in pixels")
	cloudCmd.Flags().IntVar(&maxWords, "max-words", 200, "maximum number of words in the cloud")
	cloudCmd.Flags().StringVar(&background, "background", "white", "background color name or #rrggbb")
	cloudCmd.Flags().IntVar(&topWords, "top", 0, "print a table of the N most frequent words")
	cloudCmd.Flags().IntVar(&workers, "workers", 0, "goroutines tokenizing the input (default number of CPUs)")
}

// cloudFlags returns the flags the user actually set, keyed for config.MergeCommandLineFlags
func cloudFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed

	if set("input") {
		flags["cloud-input"] = cloudInput
	}
	if set("output") {
		flags["cloud-output"] = cloudOutput
	}
	if set("font") {
		flags["font"] = fontPath
	}
	if set("width") {
		flags["width"] = cloudWidth
	}
	if set("height") {
		flags["height"] = cloudHeight
	}
	if set("max-words") {
		flags["max-words"] = maxWords
	}
	if set("background") {
		flags["background"] = background
	}
	if set("workers") {
		flags["workers"] = workers
	}
	return flags
}

// cloudOptions maps the cloud configuration onto renderer options
func cloudOptions(cc config.CloudConfig) wordcloud.Options {
	opts := wordcloud.DefaultOptions()
	opts.Width = cc.Width
	opts.Height = cc.Height
	opts.MaxWords = cc.MaxWords
	opts.FontPath = cc.FontPath
	opts.Background = cc.Background
	return opts
}

// cloudResult describes a finished render
type cloudResult struct {
	Words  int
	Counts []wordcloud.WordCount
	Placed int
}

// renderCloud runs the tokenize, count, layout and save pipeline. The
// renderer is created first so a missing font fails before analysis.
func renderCloud(cc config.CloudConfig, tok analyzer.Tokenizer, log logger.Logger) (*cloudResult, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	wc, err := wordcloud.New(cloudOptions(cc), log)
	if err != nil {
		return nil, err
	}
	defer wc.Close()

	a := analyzer.New(tok, log)
	a.Workers = cc.Workers
	words, err := a.AnalyzeFile(cc.InputPath)
	if err != nil {
		return nil, err
	}

	counts := wordcloud.CountWords(strings.Join(words, " "), cc.Stopwords, cc.MaxWords)
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoWords, cc.InputPath)
	}

	img, placements, err := wc.Generate(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to render word cloud: %w", err)
	}

	if err := wordcloud.Save(img, cc.OutputPath); err != nil {
		return nil, err
	}

	log.InfoWithFields("word cloud saved", map[string]interface{}{
		"output":   cc.OutputPath,
		"words":    len(words),
		"distinct": len(counts),
		"placed":   len(placements),
	})

	return &cloudResult{Words: len(words), Counts: counts, Placed: len(placements)}, nil
}

func runCloud(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, cloudFlags(cmd))
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ui.PrintInfo("Input", cfg.Cloud.InputPath)
	ui.PrintInfo("Font", cfg.Cloud.FontPath)
	ui.PrintHighlight("[ANALYZING]")

	tok, err := analyzer.NewKagomeTokenizer()
	if err != nil {
		return err
	}

	res, err := renderCloud(cfg.Cloud, tok, log)
	if err != nil {
		if errors.Is(err, wordcloud.ErrFontNotFound) {
			ui.PrintInfo("Hint", "pass a font with Japanese glyphs via --font or cloud.font_path")
		}
		return err
	}

	if topWords > 0 {
		ui.PrintWordTable(res.Counts, topWords)
	}
	ui.PrintCloudSummary(res.Words, len(res.Counts), res.Placed, cfg.Cloud.OutputPath)
	return nil
}
