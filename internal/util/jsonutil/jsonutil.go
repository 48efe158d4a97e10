package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// MarshalNoEscape encodes v without escaping <, > and &, so CJK titles and
// arrows in exported topic lists stay readable.
func MarshalNoEscape(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalNoEscapeIndent is MarshalNoEscape with each level indented by indent.
func MarshalNoEscapeIndent(v any, indent string) ([]byte, error) {
	return encode(v, indent)
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex tries a direct unmarshal first and, failing that, unwraps a
// payload the model returned as a quoted JSON string ("{\"hook\":...}").
func UnmarshalFlex(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("jsonutil: empty quoted payload")
	}
	return json.Unmarshal([]byte(s), v)
}

// ExtractBlock returns the outermost JSON object or array embedded in text,
// dropping any prose before the first opening bracket and after the last
// matching closing one. It returns text unchanged when no bracket is found.
func ExtractBlock(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}
