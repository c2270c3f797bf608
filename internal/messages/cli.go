package messages

// CLI messages for user-facing commands and flags.
const (
	// RootUse is the CLI command name.
	RootUse = "retrofit"
	// RootShort is the short description for the root command.
	RootShort       = "Add optional capabilities to an existing project"
	RootFlagRoot    = "Project root to operate on (defaults to the current directory)"
	RootFlagVerbose = "Enable verbose diagnostic logging"

	// VersionTemplate renders the --version output.
	VersionTemplate  = "{{.Version}}\n"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"

	// DetectUse is the detect command name.
	DetectUse           = "detect"
	DetectShort         = "Detect the framework, language, and package manager of a project"
	DetectFrameworkFmt  = "framework:       %s\n"
	DetectLanguageFmt   = "language:        %s\n"
	DetectPackageMgrFmt = "package manager: %s\n"
	DetectValueUnknown  = "-"

	// FeaturesUse is the features command name.
	FeaturesUse     = "features"
	FeaturesShort   = "List the features available in the manifest"
	FeaturesLineFmt = "%s  %s\n"
	FeaturesDescFmt = "    providers: %s\n"

	// PlanUse is the plan command usage.
	PlanUse          = "plan <feature>"
	PlanShort        = "Show the operations that adding a feature would perform"
	PlanFlagProvider = "Provider to use when the feature offers more than one"
	PlanHeaderFmt    = "Plan for feature %q (provider %q) on %s/%s:\n"
	PlanOpFmt        = "  %-19s %s\n"
	PlanOpDepFmt     = "  %-19s %s (%s@%s)\n"
	PlanEmpty        = "Nothing to do."

	// AddUse is the add command usage.
	AddUse           = "add <feature>"
	AddShort         = "Apply a feature to the current project"
	AddFlagOverwrite = "Overwrite existing files that differ from the planned content"
	AddResultFmt     = "%s %s\n"
	AddReasonFmt     = "%s %s (%s)\n"
	AddSummaryFmt    = "\n%d applied, %d skipped, %d conflicts, %d failed\n"
	AddConflictHint  = "Re-run with --overwrite to replace conflicting files."
)
