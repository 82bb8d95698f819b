// Package templates loads the canned reply templates used when the AI
// provider is unavailable or returns an unusable response.
package templates

import (
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Template is one reply template. Subject and Body may contain the
// placeholders {subject} and {message_preview}.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type Templates struct {
	byName map[string]Template
}

const (
	defaultReplyName = "default_reply"

	// previewLimit caps how much of the inbound body is quoted back.
	previewLimit = 200
)

var builtinDefault = Template{
	Subject: "Re: {subject}",
	Body:    "Thank you for your email. We have received your message and will respond shortly.\n\nYour message:\n{message_preview}...",
}

// Load reads templates from the YAML file at path. A missing or malformed
// file is not fatal: the built-in default reply is used instead.
func Load(path string) *Templates {
	t := &Templates{byName: map[string]Template{defaultReplyName: builtinDefault}}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Templates] Cannot read %s, using built-in fallback: %v", path, err)
		return t
	}

	var parsed map[string]Template
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		log.Printf("[Templates] Cannot parse %s, using built-in fallback: %v", path, err)
		return t
	}
	for name, tpl := range parsed {
		t.byName[name] = tpl
	}
	return t
}

// DefaultReply renders the default reply template for the given inbound
// subject and body.
func (t *Templates) DefaultReply(subject, body string) (replySubject, replyBody string) {
	tpl := t.byName[defaultReplyName]

	preview := body
	if len(preview) > previewLimit {
		// Back off to a rune boundary so the cut never emits invalid UTF-8.
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}

	replacer := strings.NewReplacer(
		"{subject}", subject,
		"{message_preview}", preview,
	)
	return replacer.Replace(tpl.Subject), replacer.Replace(tpl.Body)
}
