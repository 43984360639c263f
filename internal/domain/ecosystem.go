package domain

import (
	"path"
	"sort"
	"strings"
)

// Ecosystem identifies a tool-chain whose conventional build-and-test
// machinery ngr knows how to drive.
type Ecosystem string

const (
	EcosystemNone       Ecosystem = ""
	EcosystemDotNet     Ecosystem = "dotnet"
	EcosystemElixir     Ecosystem = "elixir"
	EcosystemGolang     Ecosystem = "golang"
	EcosystemHaskell    Ecosystem = "haskell"
	EcosystemJava       Ecosystem = "java"
	EcosystemJavaScript Ecosystem = "javascript"
	EcosystemJulia      Ecosystem = "julia"
	EcosystemJust       Ecosystem = "just"
	EcosystemMake       Ecosystem = "make"
	EcosystemMeltano    Ecosystem = "meltano"
	EcosystemPHP        Ecosystem = "php"
	EcosystemPython     Ecosystem = "python"
	EcosystemRuby       Ecosystem = "ruby"
	EcosystemRust       Ecosystem = "rust"
	EcosystemTask       Ecosystem = "task"
)

// String returns the identifier, or "none" for the zero value.
func (e Ecosystem) String() string {
	if e == EcosystemNone {
		return "none"
	}
	return string(e)
}

// Signature associates a filename pattern with an ecosystem.
// Higher priority wins when markers of several ecosystems are present.
type Signature struct {
	Ecosystem Ecosystem
	Pattern   string
	Priority  int
}

// Listing is the set of entry names found directly inside a target directory.
type Listing struct {
	entries []string
}

// NewListing builds a listing from relative entry names. Duplicates are dropped
// and the result is kept sorted so matching is deterministic.
func NewListing(entries ...string) Listing {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSuffix(e, "/")
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return Listing{entries: out}
}

// Entries returns a copy of the entry names.
func (l Listing) Entries() []string {
	return append([]string(nil), l.entries...)
}

// Len returns the number of entries.
func (l Listing) Len() int {
	return len(l.entries)
}

// Has reports whether any entry matches the shell pattern.
func (l Listing) Has(pattern string) bool {
	for _, e := range l.entries {
		if ok, _ := path.Match(pattern, e); ok {
			return true
		}
	}
	return false
}

// Glob returns the sorted entries matching the shell pattern.
func (l Listing) Glob(pattern string) []string {
	var out []string
	for _, e := range l.entries {
		if ok, _ := path.Match(pattern, e); ok {
			out = append(out, e)
		}
	}
	return out
}

// MakefileNames are the markers that enable the Make fallback.
var MakefileNames = []string{"GNUmakefile", "makefile", "Makefile"}

// HasMakefile reports whether the listing carries a Makefile-like marker.
func (l Listing) HasMakefile() bool {
	for _, name := range MakefileNames {
		if l.Has(name) {
			return true
		}
	}
	return false
}

// Options carries per-run configuration overrides recognized by recipes.
type Options struct {
	// WrapperRegenerate forces regeneration of a build-tool wrapper before testing.
	WrapperRegenerate bool `json:"wrapper_regenerate,omitempty"`
	// ToolVersion pins the runtime version for ecosystems that support selection.
	ToolVersion string `json:"tool_version,omitempty"`
	// DotnetVersion selects the .NET target framework, like net8.0 or 8.0.x.
	DotnetVersion string `json:"dotnet_version,omitempty"`
	// NpgsqlVersion pins the Npgsql package version of .NET projects.
	NpgsqlVersion string `json:"npgsql_version,omitempty"`
	// AcceptNoVenv allows Python projects to run outside a virtualenv.
	AcceptNoVenv bool `json:"accept_no_venv,omitempty"`
	// Task names the task or job invoked by task-runner based recipes.
	Task string `json:"task,omitempty"`
}
