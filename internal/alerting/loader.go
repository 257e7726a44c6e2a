package alerting

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRulesFromFile reads a rules document from path.
func LoadRulesFromFile(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadRules decodes a rules document and compiles every condition. An
// empty document yields no rules.
func LoadRules(r io.Reader) ([]*Rule, error) {
	var doc RulesConfig
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse rules YAML: %w", err)
	}

	if err := ValidateRules(doc.Rules); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

// LoadRulesFromBytes is LoadRules over an in-memory document.
func LoadRulesFromBytes(data []byte) ([]*Rule, error) {
	return LoadRules(bytes.NewReader(data))
}

// ValidateRules compiles every rule and rejects duplicate names.
func ValidateRules(rules []*Rule) error {
	seen := make(map[string]int, len(rules))
	for i, rule := range rules {
		if rule == nil {
			return fmt.Errorf("rule %d: empty entry", i)
		}
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if first, dup := seen[rule.Name]; dup {
			return fmt.Errorf("rule %d: name %q already used by rule %d", i, rule.Name, first)
		}
		seen[rule.Name] = i
	}
	return nil
}
