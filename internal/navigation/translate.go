package navigation

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed translations.yaml
var defaultTranslations []byte

type prefixRule struct {
	prefix string
	text   string
}

// Translator localizes maneuver instructions.
type Translator struct {
	arrival  string
	exact    map[string]string
	prefixes []prefixRule
}

type translationFile struct {
	Arrival  string            `yaml:"arrival"`
	Exact    map[string]string `yaml:"exact"`
	Prefixes map[string]string `yaml:"prefixes"`
}

func DefaultTranslator() (*Translator, error) {
	return ParseTranslator(defaultTranslations)
}

func ParseTranslator(data []byte) (*Translator, error) {
	var f translationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	if f.Arrival == "" {
		return nil, fmt.Errorf("parse translations: arrival message missing")
	}

	t := &Translator{arrival: f.Arrival, exact: f.Exact}
	if t.exact == nil {
		t.exact = map[string]string{}
	}
	for p, text := range f.Prefixes {
		t.prefixes = append(t.prefixes, prefixRule{prefix: p, text: text})
	}
	// longest prefix wins
	sort.Slice(t.prefixes, func(i, j int) bool {
		if len(t.prefixes[i].prefix) != len(t.prefixes[j].prefix) {
			return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
		}
		return t.prefixes[i].prefix < t.prefixes[j].prefix
	})
	return t, nil
}

func (t *Translator) Arrival() string { return t.arrival }

// Translate tries the exact table, then the prefix table. Unknown text is returned as is.
func (t *Translator) Translate(instruction string) string {
	if out, ok := t.exact[instruction]; ok {
		return out
	}
	for _, rule := range t.prefixes {
		if strings.HasPrefix(instruction, rule.prefix) {
			rest := strings.TrimSuffix(strings.TrimPrefix(instruction, rule.prefix), ".")
			return rule.text + rest
		}
	}
	return instruction
}
