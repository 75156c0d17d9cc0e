// Package ruleset loads the ordered pattern configuration that drives crime
// classification and applies it to incident batches. The ruleset is data, not
// code: an external YAML document names the groups, their patterns, the match
// precedence, the group→macro mapping, and the violent set.
package ruleset

import (
	_ "embed"
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SentinelGroup is the terminal group assigned when no pattern matches.
const SentinelGroup = "OTRO"

// SentinelMacro is the macro-category for the sentinel group unless the
// document maps it explicitly.
const SentinelMacro = "NO_DELITO_OTROS"

// Source records where the active ruleset came from, for audit stats.
type Source string

const (
	SourceExternal Source = "external"
	SourceEmbedded Source = "embedded"
)

// Document is the on-disk shape of a ruleset.
type Document struct {
	// Patterns maps group name to one or more regular expressions. A group
	// matches when any of its patterns matches the normalized text.
	Patterns map[string][]string `yaml:"patterns"`
	// Order is the total match precedence over group names. First match wins.
	Order []string `yaml:"order"`
	// MacroMap maps each group to its macro-category.
	MacroMap map[string]string `yaml:"macro_map"`
	// ViolentSet lists the groups classified as violent.
	ViolentSet []string `yaml:"violent_set"`
	// PassengerGroup names the group whose pattern drives the secondary
	// passenger-robbery flag. Defaults to ROBO_PASAJERO.
	PassengerGroup string `yaml:"passenger_group"`
}

type compiledGroup struct {
	name     string
	patterns []*regexp.Regexp
}

// Ruleset is a validated, compiled classification configuration.
type Ruleset struct {
	groups    []compiledGroup
	macro     map[string]string
	violent   map[string]bool
	passenger []*regexp.Regexp
	passGroup string
	source    Source
}

//go:embed rules/default.yaml
var embeddedDoc []byte

// Load reads and compiles a ruleset document from path. Any structural
// problem — missing keys, order entries without patterns, groups without a
// macro mapping, uncompilable patterns — fails here, never at classification
// time.
func Load(path string) (*Ruleset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ruleset: read %s", path)
	}
	rs, err := compile(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "ruleset: %s", path)
	}
	rs.source = SourceExternal
	return rs, nil
}

// Embedded returns the compiled built-in ruleset. Used only when no external
// path is configured; the choice is recorded in the classification stats.
func Embedded() *Ruleset {
	rs, err := compile(embeddedDoc)
	if err != nil {
		// The embedded document ships with the binary and is covered by
		// tests; a compile failure here is a build defect.
		panic(eris.Wrap(err, "ruleset: embedded document invalid"))
	}
	rs.source = SourceEmbedded
	return rs
}

func compile(raw []byte) (*Ruleset, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "unmarshal")
	}
	return Compile(doc)
}

// Compile validates a document and compiles its patterns.
func Compile(doc Document) (*Ruleset, error) {
	if len(doc.Patterns) == 0 {
		return nil, eris.New("ruleset: patterns is empty or missing")
	}
	if len(doc.Order) == 0 {
		return nil, eris.New("ruleset: order is empty or missing")
	}
	if len(doc.MacroMap) == 0 {
		return nil, eris.New("ruleset: macro_map is empty or missing")
	}

	seen := make(map[string]bool, len(doc.Order))
	rs := &Ruleset{
		macro:   make(map[string]string, len(doc.MacroMap)),
		violent: make(map[string]bool, len(doc.ViolentSet)),
	}
	for g, m := range doc.MacroMap {
		rs.macro[g] = m
	}

	for _, name := range doc.Order {
		if seen[name] {
			return nil, eris.Errorf("ruleset: group %q listed twice in order", name)
		}
		seen[name] = true

		raws, ok := doc.Patterns[name]
		if !ok || len(raws) == 0 {
			return nil, eris.Errorf("ruleset: order references group %q with no patterns", name)
		}
		if _, ok := rs.macro[name]; !ok {
			return nil, eris.Errorf("ruleset: group %q has no macro_map entry", name)
		}

		cg := compiledGroup{name: name}
		for _, p := range raws {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, eris.Wrapf(err, "ruleset: group %q pattern %q", name, p)
			}
			cg.patterns = append(cg.patterns, re)
		}
		rs.groups = append(rs.groups, cg)
	}

	for _, v := range doc.ViolentSet {
		if !seen[v] {
			return nil, eris.Errorf("ruleset: violent_set references unknown group %q", v)
		}
		rs.violent[v] = true
	}

	rs.passGroup = doc.PassengerGroup
	if rs.passGroup == "" {
		rs.passGroup = "ROBO_PASAJERO"
	}
	for _, cg := range rs.groups {
		if cg.name == rs.passGroup {
			rs.passenger = cg.patterns
		}
	}

	if _, ok := rs.macro[SentinelGroup]; !ok {
		rs.macro[SentinelGroup] = SentinelMacro
	}
	return rs, nil
}

// Source reports where the ruleset came from.
func (r *Ruleset) Source() Source { return r.source }

// Groups returns the group names in precedence order.
func (r *Ruleset) Groups() []string {
	out := make([]string, len(r.groups))
	for i, g := range r.groups {
		out[i] = g.name
	}
	return out
}

// Macro returns the macro-category for a group. Unknown groups resolve to the
// sentinel macro.
func (r *Ruleset) Macro(group string) string {
	if m, ok := r.macro[group]; ok {
		return m
	}
	return SentinelMacro
}

// Violent reports whether a group is in the violent set.
func (r *Ruleset) Violent(group string) bool { return r.violent[group] }
