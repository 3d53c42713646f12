package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// ConditionRule maps a health condition onto excluded dish terms.
type ConditionRule struct {
	Aliases []string `yaml:"aliases"`
	Exclude []string `yaml:"exclude"`
}

// LabRule excludes terms when a matching lab value is out of range.
type LabRule struct {
	Name    string   `yaml:"name"`
	Match   []string `yaml:"match"`
	Exclude []string `yaml:"exclude"`
}

// Rules is the filter vocabulary used by candidate selection.
type Rules struct {
	Diet struct {
		MeatTerms []string `yaml:"meat_terms"`
		EggTerms  []string `yaml:"egg_terms"`
	} `yaml:"diet"`
	JainExcluded       []string                 `yaml:"jain_excluded"`
	Regions            map[string][]string      `yaml:"regions"`
	UniversalRegions   []string                 `yaml:"universal_regions"`
	RegionWildcards    []string                 `yaml:"region_wildcards"`
	Conditions         map[string]ConditionRule `yaml:"conditions"`
	DislikeAliases     map[string][]string      `yaml:"dislike_aliases"`
	Labs               []LabRule                `yaml:"labs"`
	LabTriggerStatuses []string                 `yaml:"lab_trigger_statuses"`
}

var defaultRules = mustParseRules(rulesYAML)

// DefaultRules returns the embedded rule set. The result is shared and must not be modified.
func DefaultRules() *Rules { return defaultRules }

func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse filter rules: %w", err)
	}
	if len(r.Diet.MeatTerms) == 0 || len(r.JainExcluded) == 0 {
		return nil, fmt.Errorf("parse filter rules: diet vocabulary is empty")
	}
	r.normalize()
	return &r, nil
}

func mustParseRules(data []byte) *Rules {
	r, err := ParseRules(data)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rules) normalize() {
	lowerAll := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	r.Diet.MeatTerms = lowerAll(r.Diet.MeatTerms)
	r.Diet.EggTerms = lowerAll(r.Diet.EggTerms)
	r.JainExcluded = lowerAll(r.JainExcluded)
	r.UniversalRegions = lowerAll(r.UniversalRegions)
	r.RegionWildcards = lowerAll(r.RegionWildcards)
	r.LabTriggerStatuses = lowerAll(r.LabTriggerStatuses)
	for k, v := range r.Regions {
		r.Regions[k] = lowerAll(v)
	}
	for k, v := range r.Conditions {
		r.Conditions[k] = ConditionRule{Aliases: lowerAll(v.Aliases), Exclude: lowerAll(v.Exclude)}
	}
	for k, v := range r.DislikeAliases {
		r.DislikeAliases[k] = lowerAll(v)
	}
	for i := range r.Labs {
		r.Labs[i].Match = lowerAll(r.Labs[i].Match)
		r.Labs[i].Exclude = lowerAll(r.Labs[i].Exclude)
	}
}

// RegionGroup returns the region group a preference names, if any.
func (r *Rules) RegionGroup(pref string) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(pref))
	if p == "" {
		return "", false
	}
	for _, name := range sortedKeys(r.Regions) {
		for _, kw := range r.Regions[name] {
			if strings.Contains(p, kw) {
				return name, true
			}
		}
	}
	return "", false
}

// IsRegionWildcard reports whether a preference disables region filtering.
func (r *Rules) IsRegionWildcard(pref string) bool {
	p := strings.ToLower(strings.TrimSpace(pref))
	if p == "" {
		return true
	}
	for _, w := range r.RegionWildcards {
		if p == w {
			return true
		}
	}
	return false
}

// IsUniversalRegion reports whether a dish region tag applies everywhere.
func (r *Rules) IsUniversalRegion(region string) bool {
	reg := strings.ToLower(strings.TrimSpace(region))
	if reg == "" {
		return true
	}
	for _, u := range r.UniversalRegions {
		if reg == u {
			return true
		}
	}
	return false
}

// MatchConditions resolves free-text condition names onto known condition
// keys, sorted. Unrecognized conditions are ignored.
func (r *Rules) MatchConditions(conditions []string) []string {
	seen := map[string]bool{}
	for _, c := range conditions {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "" || lc == "none" || lc == "no" {
			continue
		}
		for name, rule := range r.Conditions {
			if lc == name || containsAny(lc, rule.Aliases) {
				seen[name] = true
			}
		}
	}
	return sortedKeys(seen)
}

// ConditionExclusions returns the excluded terms of every matched condition.
func (r *Rules) ConditionExclusions(conditions []string) []string {
	var out []string
	for _, name := range r.MatchConditions(conditions) {
		out = append(out, r.Conditions[name].Exclude...)
	}
	return out
}

// DislikeTerms expands dislikes through category aliases.
func (r *Rules) DislikeTerms(dislikes []string) []string {
	var out []string
	for _, d := range dislikes {
		ld := strings.ToLower(strings.TrimSpace(d))
		if ld == "" || ld == "none" || ld == "no" {
			continue
		}
		out = append(out, ld)
		if alias, ok := r.DislikeAliases[ld]; ok {
			out = append(out, alias...)
		}
	}
	return out
}

// LabExclusions returns terms excluded by out-of-range lab values.
func (r *Rules) LabExclusions(labs map[string]string) []string {
	var out []string
	for _, lab := range sortedKeys(labs) {
		status := strings.ToLower(strings.TrimSpace(labs[lab]))
		if !containsString(r.LabTriggerStatuses, status) {
			continue
		}
		ll := strings.ToLower(lab)
		for _, rule := range r.Labs {
			if containsAny(ll, rule.Match) {
				out = append(out, rule.Exclude...)
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
