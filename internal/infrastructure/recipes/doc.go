// Package recipes provides the per-ecosystem build-and-test recipes.
//
// Every supported ecosystem has one recipe. A recipe is declarative: it
// inspects the project listing and options and returns the ordered steps to
// run, but never executes anything itself.
//
// Supported ecosystems:
//   - .NET: dotnet restore / dotnet test
//   - Elixir: mix deps.get / mix test
//   - Go: go build / go test
//   - Haskell: stack build / stack test
//   - Java: Maven or Gradle, including their wrappers
//   - JavaScript: npm, yarn or pnpm
//   - Julia: Pkg.build / Pkg.test
//   - Meltano: meltano install / meltano run
//   - PHP: composer install / composer run test
//   - Python: pip or poetry, then pytest
//   - Ruby: bundle install / rake test
//   - Rust: cargo build / cargo test
//   - go-task and just task runners
//   - Make, as the fallback of last resort
//
// Usage:
//
//	registry := recipes.Default()
//	recipe, err := registry.Lookup(domain.EcosystemPython)
//	if err != nil {
//	    return err
//	}
//	steps := recipe.Steps(project)
package recipes
