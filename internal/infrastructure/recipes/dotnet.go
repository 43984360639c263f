package recipes

import (
	"strings"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// DotNet restores and tests .NET projects with code coverage collection.
type DotNet struct{}

// Ecosystem returns the ecosystem this recipe serves.
func (DotNet) Ecosystem() domain.Ecosystem { return domain.EcosystemDotNet }

// RequiredTool returns the dotnet CLI.
func (DotNet) RequiredTool(application.Project) string { return "dotnet" }

// Check has no preconditions.
func (DotNet) Check(application.Project) error { return nil }

// Steps returns the info, restore and test steps.
func (DotNet) Steps(p application.Project) []domain.Step {
	steps := []domain.Step{optional(command("info", "dotnet", "--info"))}

	if v := p.Options.NpgsqlVersion; v != "" {
		args := []string{"add"}
		if projects := p.Listing.Glob("*.csproj"); len(projects) > 0 {
			args = append(args, projects[0])
		}
		args = append(args, "package", "Npgsql", "--version", v)
		steps = append(steps, command("npgsql", "dotnet", args...))
	}

	steps = append(steps,
		command("restore", "dotnet", "restore"),
		optional(command("list-packages", "dotnet", "list", "package")),
	)

	test := command("test", "dotnet", "test", "--collect:XPlat Code Coverage")
	version := p.Options.DotnetVersion
	if version == "" {
		version = p.Options.ToolVersion
	}
	if fw := Framework(version); fw != "" {
		test.Args = append(test.Args, "--framework="+fw)
	}
	return append(steps, test)
}

// Framework converts an SDK version like 8.0.x or 8 into a target framework
// moniker like net8.0. Monikers are returned unchanged.
func Framework(version string) string {
	version = strings.TrimSpace(version)
	if version == "" || strings.HasPrefix(version, "net") {
		return version
	}
	parts := strings.SplitN(version, ".", 3)
	minor := "0"
	if len(parts) > 1 && parts[1] != "x" && parts[1] != "" {
		minor = parts[1]
	}
	return "net" + parts[0] + "." + minor
}
