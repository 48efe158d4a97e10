package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"topicgrid/internal/util/jsonutil"
)

// ErrParse matches every *Error via errors.Is.
var ErrParse = errors.New("parse: unusable model output")

// Error reports a completion that could not be decoded after the corrective pass.
type Error struct {
	Raw string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse: decode model output: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrParse }

// JSON strips code fences and decodes raw into v. When the strict decode
// fails it makes exactly one corrective pass (cut surrounding prose, repair
// trailing commas/quotes) before giving up with *Error.
func JSON(raw string, v any) error {
	text := StripFences(raw)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	fixed, rerr := repair(text)
	if rerr != nil {
		return &Error{Raw: raw, Err: errors.Join(err, rerr)}
	}
	if err2 := jsonutil.UnmarshalFlex([]byte(fixed), v); err2 != nil {
		return &Error{Raw: raw, Err: errors.Join(err, err2)}
	}
	return nil
}

func repair(text string) (string, error) {
	text = strings.TrimSpace(jsonutil.ExtractBlock(strings.ReplaceAll(text, "```json", "")))
	if text == "" {
		return "", errors.New("empty output")
	}
	return jsonrepair.JSONRepair(text)
}
