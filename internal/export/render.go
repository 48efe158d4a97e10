// Package export renders topic lists as downloadable files and keeps them
// in a blob store.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"topicgrid/internal/prompt"
	"topicgrid/internal/util/jsonutil"
)

type Format string

const (
	TXT  Format = "txt"
	CSV  Format = "csv"
	JSON Format = "json"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat defaults an empty string to TXT.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return TXT, nil
	case TXT, CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// Document is what gets exported: the topics generated for one core topic.
type Document struct {
	Flow   prompt.Flow `json:"-"`
	Topic  string      `json:"topic"`
	Topics []string    `json:"topics"`
}

// Render encodes doc in format f.
//
// txt for the nine-grid flow carries a title block and numbered lines; the
// three-column flow writes topics separated by blank lines. csv is a single
// 选题 column. json is {"topic", "topics"}.
func Render(f Format, doc Document) ([]byte, error) {
	topics := doc.Topics
	if topics == nil {
		topics = []string{}
	}
	switch f {
	case TXT:
		if doc.Flow != prompt.FlowNineGrid {
			return []byte(strings.Join(topics, "\n\n")), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "九宫格选题 - %s\n%s\n\n", doc.Topic, strings.Repeat("=", 50))
		for i, t := range topics {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s", i+1, t)
		}
		return []byte(b.String()), nil
	case CSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"选题"})
		for _, t := range topics {
			_ = w.Write([]string{t})
		}
		w.Flush()
		return bytes.TrimRight(buf.Bytes(), "\n"), w.Error()
	case JSON:
		return jsonutil.MarshalNoEscapeIndent(Document{Topic: doc.Topic, Topics: topics}, "  ")
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// FileName is the suggested download name.
func FileName(f Format, doc Document, now time.Time) string {
	if doc.Flow == prompt.FlowNineGrid {
		return fmt.Sprintf("九宫格选题_%s.%s", sanitize(doc.Topic), f)
	}
	return fmt.Sprintf("爆款短视频选题_%s.%s", now.Format("2006-01-02"), f)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			return '_'
		}
		return r
	}, s)
}
