package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	stockPlaceholder  = "{stock_id}"
	signalPlaceholder = "{signal_json}"
	standardSuffix    = "\n\nStock: {stock_id}\n\nTechnical Indicators:\n```json\n{signal_json}\n```"
)

// Template is a prompt with {stock_id} and {signal_json} placeholders.
type Template struct {
	text string
}

// NewTemplate trims text and appends the standard suffix unless both placeholders are present.
func NewTemplate(text string) *Template {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, stockPlaceholder) || !strings.Contains(text, signalPlaceholder) {
		text += standardSuffix
	}
	return &Template{text: text}
}

func LoadTemplate(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load prompt template: %w", err)
	}
	return NewTemplate(string(b)), nil
}

func (t *Template) String() string { return t.text }

// Render fills the placeholders. signal is encoded as 2-space indented JSON with HTML left unescaped.
func (t *Template) Render(stockID string, signal any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(signal); err != nil {
		return "", fmt.Errorf("encode signal: %w", err)
	}
	js := strings.TrimRight(buf.String(), "\n")
	return strings.NewReplacer(stockPlaceholder, stockID, signalPlaceholder, js).Replace(t.text), nil
}
