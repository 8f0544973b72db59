// Package prompts holds the caption prompt templates and fills in their
// placeholders.
package prompts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/loraprep/internal/natsort"
)

// Placeholders replaced by Render.
const (
	PlaceholderTrigger = "TRIGGER"
	PlaceholderLength  = "LENGTH"
	PlaceholderStyle   = "STYLE"
	PlaceholderSubject = "SUBJECT"
)

const characterPrompt = `
Task: Write a short, blunt caption describing the image.

Rules:
- If there is a person/character in the image you must refer to them as TRIGGER.
- Use simple noun phrases or short sentences.
- Mention only the most important visible elements (clothing, pose, setting).
- Describe concrete details only (color, clothing, objects, location).
- Use casual, direct language.

Do NOT:
- Do NOT mention resolution, quality, mood, emotions, or style.
- Do NOT use meta phrases like "this image shows" or "you are looking at".
- Do NOT mention missing elements.
- Do NOT mention any text in the image.
- Do NOT name artists or artwork titles.

Output:
- LENGTH
- No adjectives beyond what is visually obvious
- No commas unless necessary

Examples:
- TRIGGER in front of a red car wearing a white graphic tee
- TRIGGER leaning against a wall in a bar wearing a green floral dress
- close up of TRIGGER
- TRIGGER on a talk show wearing a sweater smiling
`

const stylePrompt = `
Write a short caption.
Describe only the main subject and key visible details.
Use simple language.
Do not mention text, mood, style, or image quality.
No meta phrases.
LENGTH.
`

// Lengths maps a length choice to the instruction placed at LENGTH.
var Lengths = map[string]string{
	"short":  "1-3 short sentences",
	"medium": "3-5 sentences",
	"long":   "One detailed paragraph",
}

// DefaultLength is used when no length is chosen.
const DefaultLength = "short"

// Vars are the values substituted into a template.
type Vars struct {
	Trigger string
	Length  string
	Style   string
	Subject string
}

// Library is a named set of prompt templates.
type Library struct {
	templates map[string]string
}

// Default returns the built-in "character" and "style" templates.
func Default() *Library {
	return &Library{templates: map[string]string{
		"character": characterPrompt,
		"style":     stylePrompt,
	}}
}

// LoadFile reads extra templates from a YAML mapping of name to template and
// layers them over the built-in ones.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	extra := make(map[string]string)
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	lib := Default()
	for name, tmpl := range extra {
		if strings.TrimSpace(tmpl) == "" {
			return nil, fmt.Errorf("prompt %q in %s is empty", name, path)
		}
		lib.templates[strings.ToLower(name)] = tmpl
	}
	return lib, nil
}

// Names lists the variants in the library in natural order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return natsort.Less(names[i], names[j]) })
	return names
}

// Has reports whether variant exists.
func (l *Library) Has(variant string) bool {
	_, ok := l.templates[strings.ToLower(variant)]
	return ok
}

// NeedsTrigger reports whether the variant uses the TRIGGER placeholder.
func (l *Library) NeedsTrigger(variant string) bool {
	return strings.Contains(l.templates[strings.ToLower(variant)], PlaceholderTrigger)
}

// Render fills in the placeholders of variant. TRIGGER must be set when the
// template uses it; the other placeholders may be empty.
func (l *Library) Render(variant string, vars Vars) (string, error) {
	tmpl, ok := l.templates[strings.ToLower(variant)]
	if !ok {
		return "", fmt.Errorf("invalid caption type %q: choose one of %s", variant, strings.Join(l.Names(), ", "))
	}

	if strings.Contains(tmpl, PlaceholderTrigger) && strings.TrimSpace(vars.Trigger) == "" {
		return "", fmt.Errorf("caption type %q needs a trigger word", variant)
	}

	length := vars.Length
	if length == "" {
		length = DefaultLength
	}
	lengthText, ok := Lengths[length]
	if !ok {
		return "", fmt.Errorf("invalid caption length %q: choose short, medium or long", length)
	}

	r := strings.NewReplacer(
		PlaceholderTrigger, strings.TrimSpace(vars.Trigger),
		PlaceholderLength, lengthText,
		PlaceholderStyle, strings.TrimSpace(vars.Style),
		PlaceholderSubject, strings.TrimSpace(vars.Subject),
	)
	return strings.TrimSpace(r.Replace(tmpl)), nil
}
