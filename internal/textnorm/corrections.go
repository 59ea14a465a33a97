package textnorm

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// correctionsFile is the on-disk layout of a corrections dictionary.
type correctionsFile struct {
	Words    map[string]string `yaml:"words"`
	Patterns []struct {
		Pattern string `yaml:"pattern"`
		Replace string `yaml:"replace"`
	} `yaml:"patterns"`
}

type patternRule struct {
	re      *regexp.Regexp
	replace string
}

// Corrections is an immutable dictionary of textual fixes applied to
// upstream text before structuring. A zero or nil Corrections is a no-op.
// Loading a new dictionary builds a new value; existing values are never
// mutated, so one instance can be shared across goroutines.
type Corrections struct {
	words    *strings.Replacer
	patterns []patternRule
	size     int
}

// LoadCorrections reads a YAML corrections dictionary from path.
func LoadCorrections(path string) (*Corrections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "textnorm: read corrections %s", path)
	}
	return ParseCorrections(data)
}

// ParseCorrections builds a Corrections value from YAML.
//
//	words:
//	  "الماده": "المادة"
//	patterns:
//	  - pattern: "ال\\s+مادة"
//	    replace: "المادة"
func ParseCorrections(data []byte) (*Corrections, error) {
	var f correctionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "textnorm: parse corrections")
	}

	// Longest keys first so a short entry never pre-empts a longer one that
	// starts at the same position.
	keys := make([]string, 0, len(f.Words))
	for k := range f.Words {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, f.Words[k])
	}

	c := &Corrections{size: len(keys)}
	if len(pairs) > 0 {
		c.words = strings.NewReplacer(pairs...)
	}
	for i, p := range f.Patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "textnorm: compile pattern %d", i)
		}
		c.patterns = append(c.patterns, patternRule{re: re, replace: p.Replace})
		c.size++
	}
	return c, nil
}

// Apply returns s with all word and pattern corrections applied, words
// first then patterns in file order.
func (c *Corrections) Apply(s string) string {
	if c == nil || s == "" {
		return s
	}
	if c.words != nil {
		s = c.words.Replace(s)
	}
	for _, p := range c.patterns {
		s = p.re.ReplaceAllString(s, p.replace)
	}
	return s
}

// Len returns the number of rules in the dictionary.
func (c *Corrections) Len() int {
	if c == nil {
		return 0
	}
	return c.size
}
