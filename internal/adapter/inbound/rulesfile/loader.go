// Package rulesfile loads the YAML policy rule set.
package rulesfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/certward/certward/internal/domain/rule"
)

// Load reads and structurally validates a rule set from path. CEL compile
// validation happens when the engine is constructed; both abort the run
// before any record is evaluated.
func Load(path string) (*rule.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	set, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Read parses a rule set from r. Unknown YAML keys are rejected: a typo in a
// rules file must not silently weaken a certification policy.
func Read(r io.Reader) (*rule.Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set rule.Set
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &rule.ConfigError{Msg: "empty rules file"}
		}
		return nil, &rule.ConfigError{Msg: fmt.Sprintf("parse rules file: %v", err)}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
