package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunFile narrows a run to specific companies and optionally tunes the
// validator's marker sets. All fields are optional.
type RunFile struct {
	Companies []RunCompany `yaml:"companies"`
	Markers   MarkerSets   `yaml:"markers"`
}

type RunCompany struct {
	CIK  string `yaml:"cik"`
	Name string `yaml:"name"`
}

// MarkerSets configures content validation. Strict markers replace the built-in
// defaults when present. A non-empty relaxed set enables a second validation
// pass before a filing is terminally rejected.
type MarkerSets struct {
	Strict  []string `yaml:"strict"`
	Relaxed []string `yaml:"relaxed"`
}

func LoadRunFile(path string) (*RunFile, error) {
	if path == "" {
		return &RunFile{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}

	var rf RunFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse run file: %w", err)
	}
	return &rf, nil
}

// CIKs returns the zero-padded company identifiers listed in the run file.
func (rf *RunFile) CIKs() []string {
	out := make([]string, 0, len(rf.Companies))
	for _, c := range rf.Companies {
		if c.CIK == "" {
			continue
		}
		out = append(out, PadCIK(c.CIK))
	}
	return out
}

// PadCIK widens a CIK to the archive's fixed 10-digit form.
func PadCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
