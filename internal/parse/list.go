// Package parse turns raw completion text into ordered string lists and
// decoded JSON values.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split selects how a completion is cut into candidate entries.
type Split int

const (
	// SplitList cuts on newlines, tabs, pipes and the ASCII/fullwidth
	// comma, enumeration comma and semicolon.
	SplitList Split = iota
	// SplitLines cuts on line breaks only, for titles that may contain commas.
	SplitLines
)

type Options struct {
	Split Split
	// MinLen is the minimum entry length in runes.
	MinLen int
	// MaxLen drops overlong entries (prose rather than items) before the
	// sentence fallback runs. Zero means unbounded.
	MaxLen int
}

var (
	// KeywordOptions keeps single-rune CJK keywords such as 茶.
	KeywordOptions = Options{Split: SplitList, MinLen: 1}
	// TopicOptions bounds titles well above a 20-word English line; only a
	// paragraph-length reply falls through to the sentence split.
	TopicOptions = Options{Split: SplitLines, MinLen: 6, MaxLen: 240}
)

var (
	listDelims     = regexp.MustCompile(`[，,、;；\n\r\t|]+`)
	lineDelims     = regexp.MustCompile(`[\r\n]+`)
	sentenceDelims = regexp.MustCompile(`[；;。\n]`)
	fenceBlock     = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")
	bulletPrefix   = regexp.MustCompile(`^[-•*·]+\s*`)
	ordinalPrefix  = regexp.MustCompile(`^(\d{1,3})\s*([.、)）:：])`)
)

// List splits raw into clean entries, preserving the model's order. It never
// fails: an unusable completion yields an empty (non-nil) slice.
func List(raw string, opts Options) []string {
	text := StripFences(raw)
	if items := jsonList(text); len(items) > 0 {
		if out := collect(items, opts.MinLen, opts.MaxLen); len(out) > 0 {
			return out
		}
	}
	delims := listDelims
	if opts.Split == SplitLines {
		delims = lineDelims
	}
	if out := collect(delims.Split(text, -1), opts.MinLen, opts.MaxLen); len(out) > 0 {
		return out
	}
	return collect(sentenceDelims.Split(text, -1), opts.MinLen, 0)
}

// StripFences removes markdown code-fence wrapping, keeping the fenced body.
func StripFences(raw string) string {
	s := fenceBlock.ReplaceAllString(raw, "$1")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func collect(parts []string, minLen, maxLen int) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = Clean(p)
		n := utf8.RuneCountInString(p)
		if p == "" || n < minLen || (maxLen > 0 && n > maxLen) || punctOnly(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Clean trims one entry and drops a leading ordinal ("1. ", "2、", "3)") or
// bullet ("- ", "• ", "* "). Numbers such as "2.5倍" or "10:30" are left intact.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if m := ordinalPrefix.FindStringSubmatchIndex(s); m != nil {
		rest := s[m[1]:]
		sep := s[m[4]:m[5]]
		numeric := sep == "." || sep == ":" || sep == "："
		if !numeric || !startsWithDigit(rest) {
			s = strings.TrimSpace(rest)
		}
	}
	s = bulletPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsDigit(r)
}

func punctOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// jsonList accepts ["a","b"] or {"topics":["a","b"]} style output.
func jsonList(text string) []string {
	var arr []any
	if err := json.Unmarshal([]byte(text), &arr); err != nil {
		var obj struct {
			Topics   []any `json:"topics"`
			Keywords []any `json:"keywords"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil
		}
		arr = append(obj.Topics, obj.Keywords...)
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
