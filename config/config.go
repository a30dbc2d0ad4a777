// Package config loads the TOML run configuration that drives grouping,
// subsetting, and design expansion for a metabolic landscape run.
package config

import (
	"os/user"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/scmetab/scmetab"
)

// RuleMode selects how a grouping or subsetting rule set partitions cells.
type RuleMode int

const (
	// ModeExpression evaluates named boolean expressions against metadata
	// columns.
	ModeExpression RuleMode = iota
	// ModeInput uses an externally supplied subset/group file verbatim.
	ModeInput
	// ModeIdents uses an existing categorical identity column.
	ModeIdents
)

func (m RuleMode) String() string {
	switch m {
	case ModeInput:
		return "Input"
	case ModeIdents:
		return "Idents"
	}
	return "Config"
}

// NamedExpr is one rule: a name and a boolean expression over metadata
// columns. Expressions are kept as source text here; the partition package
// compiles them.
type NamedExpr struct {
	Name string
	Expr string
}

// RuleSet is the parsed form of a `grouping` or `subsetting` key.
type RuleSet struct {
	Mode RuleMode

	// Exprs holds the named expressions in declaration order. Only populated
	// for ModeExpression.
	Exprs []NamedExpr
}

// Design is a named comparison between two or more subsets.
type Design struct {
	Name    string
	Subsets []string
}

type Config struct {
	ConfigPath string

	GroupingName     string
	Grouping         RuleSet
	GroupingPrefix   string
	Subsetting       RuleSet
	SubsettingPrefix string

	// Designs in declaration order, for reproducible report ordering.
	Designs []Design

	GMTFile string
	NTimes  int
}

// rawConfig mirrors the TOML document. grouping and subsetting are either a
// bare string ("Input", "Idents") or a table of name => expression, so they
// decode as interface{} and are interpreted afterward.
type rawConfig struct {
	GroupingName     string                 `toml:"grouping_name"`
	Grouping         interface{}            `toml:"grouping"`
	GroupingPrefix   string                 `toml:"grouping_prefix"`
	Subsetting       interface{}            `toml:"subsetting"`
	SubsettingPrefix string                 `toml:"subsetting_prefix"`
	Design           map[string][]string    `toml:"design"`
	GMTFile          string                 `toml:"gmtfile"`
	NTimes           int                    `toml:"ntimes"`
}

// Load parses the TOML configuration at path. Structural problems (unknown
// modes, designs with fewer than two subsets) surface as ConfigError here;
// expression syntax is checked when the partition package compiles the rule
// set, still before any computation starts.
func Load(path string) (*Config, error) {
	path = expandHomeDir(path)

	var raw rawConfig
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, scmetab.NewConfigError("parsing %s: %v", path, err)
	}

	out := Config{
		ConfigPath:       path,
		GroupingName:     raw.GroupingName,
		GroupingPrefix:   raw.GroupingPrefix,
		SubsettingPrefix: raw.SubsettingPrefix,
		GMTFile:          expandHomeDir(raw.GMTFile),
		NTimes:           raw.NTimes,
	}

	if out.GroupingName == "" {
		out.GroupingName = "Group"
	}
	if out.NTimes == 0 {
		out.NTimes = 1000
	}

	out.Grouping, err = parseRuleSet("grouping", raw.Grouping, md)
	if err != nil {
		return nil, err
	}

	out.Subsetting, err = parseRuleSet("subsetting", raw.Subsetting, md)
	if err != nil {
		return nil, err
	}

	out.Designs, err = parseDesigns(raw.Design, md)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func parseRuleSet(key string, value interface{}, md toml.MetaData) (RuleSet, error) {
	switch v := value.(type) {
	case nil:
		// Absent key: treat as identity-based, the most common setup.
		return RuleSet{Mode: ModeIdents}, nil
	case string:
		switch v {
		case "Input":
			return RuleSet{Mode: ModeInput}, nil
		case "Idents":
			return RuleSet{Mode: ModeIdents}, nil
		}
		return RuleSet{}, scmetab.NewConfigError("%s: unknown mode %q (want \"Input\", \"Idents\", or a table of rules)", key, v)
	case map[string]interface{}:
		out := RuleSet{Mode: ModeExpression}
		seen := make(map[string]struct{})
		for _, name := range tableKeyOrder(md, key) {
			if _, exists := seen[name]; exists {
				return RuleSet{}, scmetab.NewConfigError("%s: duplicate rule name %q", key, name)
			}
			seen[name] = struct{}{}

			expr, ok := v[name].(string)
			if !ok {
				return RuleSet{}, scmetab.NewConfigError("%s.%s: expression must be a string, got %T", key, name, v[name])
			}
			out.Exprs = append(out.Exprs, NamedExpr{Name: name, Expr: expr})
		}
		return out, nil
	}

	return RuleSet{}, scmetab.NewConfigError("%s: must be a string mode or a table of rules, got %T", key, value)
}

func parseDesigns(raw map[string][]string, md toml.MetaData) ([]Design, error) {
	var out []Design
	for _, name := range tableKeyOrder(md, "design") {
		subsets := raw[name]
		if len(subsets) < 2 {
			return nil, scmetab.NewConfigError("design.%s: needs at least 2 subset names, got %d", name, len(subsets))
		}
		out = append(out, Design{Name: name, Subsets: subsets})
	}

	return out, nil
}

// tableKeyOrder returns the immediate child keys of the named top-level
// table, in file declaration order.
func tableKeyOrder(md toml.MetaData, table string) []string {
	var out []string
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == table {
			out = append(out, key[1])
		}
	}

	return out
}

// Via https://stackoverflow.com/a/17617721/199475
func expandHomeDir(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}

	dir := usr.HomeDir

	if path == "~" {
		path = dir
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(dir, path[2:])
	}

	return path
}
