package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/neetmock/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var tagRegex = regexp.MustCompile(`(?i)</?\s*(question|system-instructions)\b[^>]*>`)

// maxQuestionRunes bounds the question text placed in a prompt.
const maxQuestionRunes = 4000

// Style selects how an explanation is written.
type Style string

const (
	// StyleBrief is a short justification of the correct option.
	StyleBrief Style = "brief"
	// StyleDetailed walks through the concept and every option.
	StyleDetailed Style = "detailed"
	// StyleHint nudges toward the answer without revealing it.
	StyleHint Style = "hint"
)

var validStyles = map[Style]bool{
	StyleBrief:    true,
	StyleDetailed: true,
	StyleHint:     true,
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Style]*template.Template
)

// IsValidStyle checks if an explanation style name is valid.
func IsValidStyle(s string) bool {
	return validStyles[Style(s)]
}

// Option is one labelled option in a prompt.
type Option struct {
	Label string
	Text  string
}

// ExplainData holds template data for explanation prompts.
type ExplainData struct {
	Subject       string
	Chapter       string
	Question      string
	Options       []Option
	CorrectLabel  string
	Attempted     bool
	WasCorrect    bool
	SelectedLabel string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Style]*template.Template)
		for s := range validStyles {
			name := "templates/explain_" + string(s) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(s)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[s] = tmpl
		}
	})
	return loadErr
}

// BuildExplainPrompt renders the explanation prompt for a question. A nil
// selected means the question was not attempted.
func BuildExplainPrompt(style Style, q model.Question, selected *int) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[style]
	if !ok {
		return "", errors.New("invalid explanation style: " + string(style))
	}

	data := ExplainData{
		Subject:      q.Subject,
		Chapter:      q.Chapter,
		Question:     sanitize(q.Text),
		CorrectLabel: label(q.Correct),
	}
	for i, o := range q.Options {
		data.Options = append(data.Options, Option{Label: label(i), Text: sanitize(o)})
	}
	if selected != nil {
		data.Attempted = true
		data.WasCorrect = *selected == q.Correct
		data.SelectedLabel = label(*selected)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func label(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// sanitize strips prompt delimiters from corpus text and bounds its length.
func sanitize(s string) string {
	s = strings.TrimSpace(tagRegex.ReplaceAllString(s, ""))
	if utf8.RuneCountInString(s) > maxQuestionRunes {
		s = string([]rune(s)[:maxQuestionRunes]) + " [truncated]"
	}
	return s
}
