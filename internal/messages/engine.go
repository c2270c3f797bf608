package messages

// Engine messages shared by the stack detector, planner, and executor.
const (
	// StackUnresolved indicates no framework or language signature matched.
	StackUnresolved = "no recognized framework or language signature in project root"
	// StackRootRequired indicates the project root path is required.
	StackRootRequired            = "project root is required"
	StackFSRequired              = "project filesystem is required"
	StackMultipleLockFilesFmt    = "Warning: multiple lock files found (%s); using %s (%s)\n"
	StackSignatureReadFailedFmt  = "failed to read signature override %s: %w"
	StackSignatureParseFailedFmt = "invalid signature override %s: %w"
	StackSignatureEmptyID        = "signature entry is missing an id"

	// ManifestEmptyPayload indicates the manifest payload contained no features.
	ManifestEmptyPayload          = "manifest payload contains no features"
	ManifestParseFailedFmt        = "invalid manifest payload: %w"
	ManifestDuplicateFeatureFmt   = "manifest declares key %q more than once"
	ManifestUnknownActionFmt      = "feature %q: file %q has unknown action %q"
	ManifestMissingPathFmt        = "feature %q: provider %q declares a file with no path"
	ManifestUnsafePathFmt         = "feature %q: file path %q must be relative and must not escape the project root"
	ManifestMissingDependencyFmt  = "feature %q: file %q uses install-dependency but declares no dependency name and version"
	ManifestFeatureNoProvidersFmt = "feature %q declares no providers"

	// PlanUnsupportedFeature indicates the feature/stack combination is absent from the manifest.
	PlanUnsupportedFeature      = "feature is not supported for this project stack"
	PlanAmbiguousProvider       = "feature has multiple providers; select one explicitly"
	PlanUnknownFeatureFmt       = "%w: unknown feature %q"
	PlanUnknownProviderFmt      = "%w: feature %q has no provider %q"
	PlanNoProvidersFmt          = "%w: feature %q declares no providers"
	PlanProviderChoicesFmt      = "%w: feature %q offers %s"
	PlanFrameworkNotInTreeFmt   = "%w: feature %q (provider %q) has no files for framework %q"
	PlanLanguageNotInTreeFmt    = "%w: feature %q (provider %q, framework %q) has no files for language %q"
	PlanFrameworkUnsupportedFmt = "%w: feature %q does not support framework %q"
	PlanLanguageUnsupportedFmt  = "%w: feature %q does not support language %q"

	// ApplyPathTraversal indicates a planned target escapes the project root.
	ApplyPathTraversal            = "planned target escapes the project root"
	ApplyPathTraversalTargetFmt   = "%w: %q"
	ApplySystemRequired           = "apply system is required"
	ApplyTemplatesRequired        = "apply template source is required"
	ApplyRootRequired             = "apply project root is required"
	ApplyReasonUpToDate           = "already up to date"
	ApplyReasonBlockPresent       = "content block already present"
	ApplyReasonExistsDiffers      = "target exists with different content"
	ApplyReasonOverwritten        = "existing content overwritten"
	ApplyReasonDependencyExists   = "already installed at %s"
	ApplyReasonDependencyDiffers  = "%s is pinned at %s (planned %s); not changed"
	ApplyReasonDependencyDowngr   = "%s is pinned at %s; refusing downgrade to %s"
	ApplyReasonUnsupportedDepFile = "unsupported dependency manifest %q"
	ApplyReasonManifestMissing    = "dependency manifest %q does not exist"
	ApplyReadTemplateFailedFmt    = "read template %s: %v"
	ApplyReadTargetFailedFmt      = "read %s: %v"
	ApplyWriteTargetFailedFmt     = "write %s: %v"
)
