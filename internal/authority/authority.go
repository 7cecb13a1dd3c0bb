// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package authority grades a URL's domain with an authority score and tier.
// Scoring is a pure function of the domain and is driven entirely by a data
// table (see authority.yaml) so it can be recalibrated without code changes.
package authority

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

//go:embed authority.yaml
var defaultTableYAML []byte

// Table is the data behind the scorer.
type Table struct {
	Default DefaultRule `yaml:"default"`
	Classes []Class     `yaml:"classes"`
}

// DefaultRule applies to domains no class matches.
type DefaultRule struct {
	Class string     `yaml:"class"`
	Tier  types.Tier `yaml:"tier"`
	Score float64    `yaml:"score"`
}

// Class is one domain class such as government or forum.
type Class struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Tier        types.Tier    `yaml:"tier"`
	Score       float64       `yaml:"score"`
	Suffixes    []string      `yaml:"suffixes,omitempty"`
	Domains     []DomainEntry `yaml:"domains,omitempty"`
}

// DomainEntry pins a registrable domain (and its subdomains) to a class,
// optionally with its own score. A zero Score uses the class score.
type DomainEntry struct {
	Domain string  `yaml:"domain"`
	Score  float64 `yaml:"score,omitempty"`
}

// Score is the outcome of grading one URL.
type Score struct {
	Domain    string     `json:"domain" yaml:"domain"`
	Authority float64    `json:"authority" yaml:"authority"`
	Tier      types.Tier `json:"tier" yaml:"tier"`
	Class     string     `json:"class" yaml:"class"`

	// Rule is the table entry that matched, e.g. "domain:who.int" or
	// "suffix:.gov". Empty for the default.
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// Scorer grades URLs against a validated Table. It is immutable and safe
// for concurrent use.
type Scorer struct {
	table Table
}

// DefaultTable returns the built-in table.
func DefaultTable() Table {
	t, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("authority: built-in table is invalid: %v", err))
	}
	return t
}

// Default returns a scorer over the built-in table.
func Default() *Scorer {
	return &Scorer{table: DefaultTable()}
}

// ParseTable decodes and validates a YAML table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parsing authority table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// LoadTable reads a YAML table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading authority table %s: %w", path, err)
	}
	return ParseTable(data)
}

// Validate checks that every score lies in [0,1] and every tier is known.
func (t Table) Validate() error {
	if err := checkScore("default", t.Default.Score); err != nil {
		return err
	}
	if !validTier(t.Default.Tier) {
		return fmt.Errorf("authority table: default tier %q is not primary, secondary or weak", t.Default.Tier)
	}
	for _, c := range t.Classes {
		if c.Name == "" {
			return fmt.Errorf("authority table: class without a name")
		}
		if !validTier(c.Tier) {
			return fmt.Errorf("authority table: class %s has invalid tier %q", c.Name, c.Tier)
		}
		if err := checkScore(c.Name, c.Score); err != nil {
			return err
		}
		for _, d := range c.Domains {
			if strings.TrimSpace(d.Domain) == "" {
				return fmt.Errorf("authority table: class %s has an empty domain entry", c.Name)
			}
			if err := checkScore(c.Name+"/"+d.Domain, d.Score); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkScore(label string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("authority table: %s score %.2f outside [0,1]", label, v)
	}
	return nil
}

func validTier(t types.Tier) bool {
	return t == types.TierPrimary || t == types.TierSecondary || t == types.TierWeak
}

// New returns a scorer over t after validating it.
func New(t Table) (*Scorer, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{table: t}, nil
}

// Score grades rawURL. It never fails: unparseable URLs and unknown domains
// receive the table default.
func (s *Scorer) Score(rawURL string) Score {
	return s.ScoreDomain(Domain(rawURL))
}

// ScoreDomain grades a bare host name.
func (s *Scorer) ScoreDomain(domain string) Score {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")

	def := Score{
		Domain:    domain,
		Authority: s.table.Default.Score,
		Tier:      s.table.Default.Tier,
		Class:     s.table.Default.Class,
	}
	if domain == "" || net.ParseIP(domain) != nil {
		return def
	}

	// Domain entries outrank suffix patterns; within a kind the longest
	// match wins and ties keep table order.
	var (
		best     Score
		bestRank = -1
	)
	for _, c := range s.table.Classes {
		for _, d := range c.Domains {
			pattern := strings.ToLower(strings.TrimSpace(d.Domain))
			if !domainMatches(domain, pattern) {
				continue
			}
			rank := 1000 + len(pattern)
			if rank > bestRank {
				score := d.Score
				if score == 0 {
					score = c.Score
				}
				bestRank = rank
				best = Score{Domain: domain, Authority: score, Tier: c.Tier, Class: c.Name, Rule: "domain:" + pattern}
			}
		}
		for _, suffix := range c.Suffixes {
			suffix = strings.ToLower(strings.TrimSpace(suffix))
			if !suffixMatches(domain, suffix) {
				continue
			}
			rank := len(suffix)
			if rank > bestRank {
				bestRank = rank
				best = Score{Domain: domain, Authority: c.Score, Tier: c.Tier, Class: c.Name, Rule: "suffix:" + suffix}
			}
		}
	}
	if bestRank < 0 {
		return def
	}
	return best
}

// domainMatches reports whether host is pattern or a subdomain of it.
func domainMatches(host, pattern string) bool {
	if pattern == "" {
		return false
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func suffixMatches(host, suffix string) bool {
	if suffix == "" {
		return false
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".")
}

// Domain returns the lowercase host of rawURL without port or a leading
// "www.". Bare hosts without a scheme are accepted. It returns "" when no
// host can be found.
func Domain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
