// Package lang picks the prompt language for a piece of user input.
package lang

// Script is the writing system a prompt should be rendered in.
type Script string

const (
	CJK   Script = "cjk"
	Latin Script = "latin"
)

// Detect reports CJK when text contains any rune from the CJK Unified
// Ideographs block (U+4E00..U+9FFF) and Latin otherwise, including for "".
func Detect(text string) Script {
	if IsCJK(text) {
		return CJK
	}
	return Latin
}

func IsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// First returns the script of the first non-empty value, Latin when all are empty.
func First(values ...string) Script {
	for _, v := range values {
		if v != "" {
			return Detect(v)
		}
	}
	return Latin
}
