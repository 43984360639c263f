// Package signature maps directory listings to ecosystem candidates.
package signature

import (
	"sort"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// DefaultSignatures defines the project file markers used for classification.
// Lockfiles and explicit manifests outrank generic files.
var DefaultSignatures = []domain.Signature{
	// .NET
	{Ecosystem: domain.EcosystemDotNet, Pattern: "*.csproj", Priority: 100},
	{Ecosystem: domain.EcosystemDotNet, Pattern: "*.fsproj", Priority: 100},
	{Ecosystem: domain.EcosystemDotNet, Pattern: "*.sln", Priority: 90},

	// Elixir
	{Ecosystem: domain.EcosystemElixir, Pattern: "mix.lock", Priority: 100},
	{Ecosystem: domain.EcosystemElixir, Pattern: "mix.exs", Priority: 95},

	// Go
	{Ecosystem: domain.EcosystemGolang, Pattern: "go.mod", Priority: 100},
	{Ecosystem: domain.EcosystemGolang, Pattern: "go.sum", Priority: 90},

	// Haskell
	{Ecosystem: domain.EcosystemHaskell, Pattern: "stack.yaml", Priority: 100},
	{Ecosystem: domain.EcosystemHaskell, Pattern: "*.cabal", Priority: 90},

	// Java
	{Ecosystem: domain.EcosystemJava, Pattern: "pom.xml", Priority: 100},
	{Ecosystem: domain.EcosystemJava, Pattern: "build.gradle", Priority: 100},
	{Ecosystem: domain.EcosystemJava, Pattern: "build.gradle.kts", Priority: 100},
	{Ecosystem: domain.EcosystemJava, Pattern: "settings.gradle", Priority: 90},
	{Ecosystem: domain.EcosystemJava, Pattern: "settings.gradle.kts", Priority: 90},
	{Ecosystem: domain.EcosystemJava, Pattern: "gradlew", Priority: 70},
	{Ecosystem: domain.EcosystemJava, Pattern: "*.gradle", Priority: 60},

	// JavaScript
	{Ecosystem: domain.EcosystemJavaScript, Pattern: "pnpm-lock.yaml", Priority: 100},
	{Ecosystem: domain.EcosystemJavaScript, Pattern: "yarn.lock", Priority: 100},
	{Ecosystem: domain.EcosystemJavaScript, Pattern: "package-lock.json", Priority: 100},
	{Ecosystem: domain.EcosystemJavaScript, Pattern: "package.json", Priority: 90},

	// Julia
	{Ecosystem: domain.EcosystemJulia, Pattern: "Manifest.toml", Priority: 100},
	{Ecosystem: domain.EcosystemJulia, Pattern: "Project.toml", Priority: 95},

	// Task runners
	{Ecosystem: domain.EcosystemJust, Pattern: "justfile", Priority: 50},
	{Ecosystem: domain.EcosystemJust, Pattern: "Justfile", Priority: 50},
	{Ecosystem: domain.EcosystemTask, Pattern: "Taskfile.yml", Priority: 50},
	{Ecosystem: domain.EcosystemTask, Pattern: "Taskfile.yaml", Priority: 50},

	// Meltano
	{Ecosystem: domain.EcosystemMeltano, Pattern: "meltano.yml", Priority: 100},

	// PHP
	{Ecosystem: domain.EcosystemPHP, Pattern: "composer.lock", Priority: 100},
	{Ecosystem: domain.EcosystemPHP, Pattern: "composer.json", Priority: 95},

	// Python
	{Ecosystem: domain.EcosystemPython, Pattern: "poetry.lock", Priority: 100},
	{Ecosystem: domain.EcosystemPython, Pattern: "pyproject.toml", Priority: 90},
	{Ecosystem: domain.EcosystemPython, Pattern: "setup.py", Priority: 80},
	{Ecosystem: domain.EcosystemPython, Pattern: "setup.cfg", Priority: 70},
	{Ecosystem: domain.EcosystemPython, Pattern: "Pipfile", Priority: 70},
	{Ecosystem: domain.EcosystemPython, Pattern: "requirements*.txt", Priority: 40},
	{Ecosystem: domain.EcosystemPython, Pattern: "*.py", Priority: 10},

	// Ruby
	{Ecosystem: domain.EcosystemRuby, Pattern: "Gemfile.lock", Priority: 100},
	{Ecosystem: domain.EcosystemRuby, Pattern: "Gemfile", Priority: 90},
	{Ecosystem: domain.EcosystemRuby, Pattern: "Rakefile", Priority: 60},

	// Rust
	{Ecosystem: domain.EcosystemRust, Pattern: "Cargo.lock", Priority: 100},
	{Ecosystem: domain.EcosystemRust, Pattern: "Cargo.toml", Priority: 95},
}

// Matcher scores a listing against a signature table.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	signatures []domain.Signature
	rank       map[domain.Ecosystem]int
	prefer     map[domain.Ecosystem]int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSignatures replaces the signature table.
func WithSignatures(signatures []domain.Signature) Option {
	return func(m *Matcher) {
		m.signatures = append([]domain.Signature(nil), signatures...)
	}
}

// WithOrder sets the tie-break order for ecosystems with equal scores.
// Ecosystems not listed sort after the listed ones, alphabetically.
func WithOrder(order []domain.Ecosystem) Option {
	return func(m *Matcher) {
		m.rank = indexOf(order)
	}
}

// WithPreference moves the listed ecosystems, when matched, ahead of all
// other candidates in the given order.
func WithPreference(prefer []domain.Ecosystem) Option {
	return func(m *Matcher) {
		m.prefer = indexOf(prefer)
	}
}

// NewMatcher creates a matcher over DefaultSignatures with alphabetical tie-breaks.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{signatures: DefaultSignatures}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the ecosystems whose signatures match the listing, best first.
// An ecosystem scores the highest priority among its matching patterns.
func (m *Matcher) Match(listing domain.Listing) []domain.Ecosystem {
	if listing.Len() == 0 {
		return nil
	}

	scores := make(map[domain.Ecosystem]int)
	for _, sig := range m.signatures {
		if sig.Priority <= scores[sig.Ecosystem] {
			continue
		}
		if listing.Has(sig.Pattern) {
			scores[sig.Ecosystem] = sig.Priority
		}
	}

	candidates := make([]domain.Ecosystem, 0, len(scores))
	for eco := range scores {
		candidates = append(candidates, eco)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		pa, aPreferred := m.prefer[a]
		pb, bPreferred := m.prefer[b]
		if aPreferred != bPreferred {
			return aPreferred
		}
		if aPreferred {
			return pa < pb
		}
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return m.less(a, b)
	})
	return candidates
}

func (m *Matcher) less(a, b domain.Ecosystem) bool {
	ra, aRanked := m.rank[a]
	rb, bRanked := m.rank[b]
	switch {
	case aRanked && bRanked:
		return ra < rb
	case aRanked != bRanked:
		return aRanked
	default:
		return a < b
	}
}

func indexOf(order []domain.Ecosystem) map[domain.Ecosystem]int {
	idx := make(map[domain.Ecosystem]int, len(order))
	for i, eco := range order {
		if _, ok := idx[eco]; !ok {
			idx[eco] = i
		}
	}
	return idx
}
