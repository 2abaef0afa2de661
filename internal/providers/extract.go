package providers

import (
	"encoding/json"
	"strings"
)

// The provider APIs answer in a small closed set of shapes. Each shape gets
// one deterministic extraction function; NormalizeText tries them in a fixed
// order and degrades to string coercion instead of erroring on anything
// unrecognized.

// PlainText: a native top-level text field ("output_text" or "text").
type PlainText struct {
	OutputText string `json:"output_text"`
	Text       string `json:"text"`
}

func (p PlainText) Extract() (string, bool) {
	if p.OutputText != "" {
		return p.OutputText, true
	}
	if p.Text != "" {
		return p.Text, true
	}
	return "", false
}

// BlockList: a list of typed content blocks, each exposing a text field.
// Covers Anthropic "content" blocks and Responses-API "output" items.
type BlockList struct {
	Content []contentBlock `json:"content"`
	Output  []outputItem   `json:"output"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItem struct {
	Content []contentBlock `json:"content"`
}

func (b BlockList) Extract() (string, bool) {
	parts := make([]string, 0, len(b.Content))
	for _, blk := range b.Content {
		if blk.Text != "" {
			parts = append(parts, blk.Text)
		}
	}
	for _, item := range b.Output {
		for _, blk := range item.Content {
			if blk.Text != "" {
				parts = append(parts, blk.Text)
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// NestedChoice: the chat-completions choices/message/content nesting.
type NestedChoice struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (n NestedChoice) Extract() (string, bool) {
	if len(n.Choices) == 0 {
		return "", false
	}
	return n.Choices[0].Message.Content, true
}

// Opaque: last-resort string coercion of whatever came back.
type Opaque struct {
	Raw []byte
}

func (o Opaque) Extract() string {
	var s string
	if err := json.Unmarshal(o.Raw, &s); err == nil {
		return s
	}
	return string(o.Raw)
}

// NormalizeText extracts plain text from a raw provider response body. It
// never fails: unknown shapes fall through to Opaque coercion.
func NormalizeText(raw []byte) string {
	var plain PlainText
	if err := json.Unmarshal(raw, &plain); err == nil {
		if text, ok := plain.Extract(); ok {
			return text
		}
	}
	var blocks BlockList
	if err := json.Unmarshal(raw, &blocks); err == nil {
		if text, ok := blocks.Extract(); ok {
			return text
		}
	}
	var nested NestedChoice
	if err := json.Unmarshal(raw, &nested); err == nil {
		if text, ok := nested.Extract(); ok {
			return text
		}
	}
	return Opaque{Raw: raw}.Extract()
}
