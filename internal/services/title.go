package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Lllllllleong/questiontitler/internal/gcp"
)

const (
	// TitlePlaceholder ("question") is used when there is no question text to title.
	TitlePlaceholder = "שאלה"
	MaxTitleLength   = 60
	maxTitleTokens   = 6
	trailingTrimSet  = "?:!.,;"
)

// titleTokenPattern matches a run of word characters, or any single other non-space character.
// The information separators U+001C to U+001F and NEL (U+0085) count as spaces.
var titleTokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+|[^\s\p{Z}\v\x1c-\x1f\x{85}]`)

// TitleSource records how a title was produced.
type TitleSource string

const (
	SourceDeterministic TitleSource = "deterministic"
	SourceGenerated     TitleSource = "generated"
	SourceFallback      TitleSource = "fallback"
)

// TitleResult is the outcome of titling one question. A failed generation is not an error:
// it is a fallback result carrying the reason.
type TitleResult struct {
	Title          string
	Source         TitleSource
	FallbackReason error
}

// TitleStrategy derives a title for a question. Implementations never fail.
type TitleStrategy interface {
	MakeTitle(ctx context.Context, question string) TitleResult
}

// TextGenerator is a text-in, text-out model call.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// SimpleTitle takes the first six tokens of the question and trims them to a title.
// It is pure and total.
func SimpleTitle(question string) string {
	tokens := titleTokenPattern.FindAllString(question, maxTitleTokens)
	title := normalizeTitle(strings.Join(tokens, " "))
	if title == "" {
		return TitlePlaceholder
	}
	return title
}

// normalizeTitle enforces the title shape: at most MaxTitleLength runes, no trailing
// whitespace or trailing characters from trailingTrimSet.
func normalizeTitle(s string) string {
	s = trimTrailing(strings.TrimSpace(s))
	return trimTrailing(truncateRunes(s, MaxTitleLength))
}

func trimTrailing(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(trailingTrimSet, r)
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SimpleTitler is the deterministic truncation strategy.
type SimpleTitler struct{}

func (SimpleTitler) MakeTitle(_ context.Context, question string) TitleResult {
	return TitleResult{Title: SimpleTitle(question), Source: SourceDeterministic}
}

// GenerativeTitler asks a text generator for a title and falls back to SimpleTitle on any failure.
type GenerativeTitler struct {
	generator TextGenerator
	timeout   time.Duration
}

func NewGenerativeTitler(generator TextGenerator, timeout time.Duration) *GenerativeTitler {
	return &GenerativeTitler{generator: generator, timeout: timeout}
}

var (
	errEmptyTitle = errors.New("generated title is empty")
	// refusalPhrases mark model output that must not become a title.
	refusalPhrases = []string{
		"i am unable to",
		"i cannot fulfill",
		"i cannot answer",
		"i cannot provide",
		"as a large language model",
	}
)

func (t *GenerativeTitler) MakeTitle(ctx context.Context, question string) TitleResult {
	// The placeholder needs no model call.
	if strings.TrimSpace(question) == "" {
		return TitleResult{Title: TitlePlaceholder, Source: SourceDeterministic}
	}

	title, err := t.generate(ctx, question)
	if err != nil {
		return TitleResult{
			Title:          SimpleTitle(question),
			Source:         SourceFallback,
			FallbackReason: err,
		}
	}
	return TitleResult{Title: title, Source: SourceGenerated}
}

func (t *GenerativeTitler) generate(ctx context.Context, question string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	text, err := t.generator.GenerateText(ctx, gcp.TitleUserPrompt+question)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return "", fmt.Errorf("gemini response indicates refusal: %q", text)
		}
	}

	title := normalizeTitle(strings.Trim(strings.TrimSpace(text), "\"'`*“”„«»"))
	if title == "" {
		return "", errEmptyTitle
	}
	return title, nil
}
