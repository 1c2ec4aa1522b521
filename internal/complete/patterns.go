package complete

import "regexp"

// Completion-context patterns, one per context, tested in the priority
// order documented on Resolver.Complete. These are deliberately shallow:
// the contract is heuristic classification of the line prefix, not a
// grammar.
var (
	// `x.` immediately before the cursor.
	memberAccessRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\.$`)

	// `@partial` at line start.
	decoratorRe = regexp.MustCompile(`^@([A-Za-z_][A-Za-z0-9_]*)?$`)

	// `import partial.dotted.path`.
	importRe = regexp.MustCompile(`^import\s+([A-Za-z_][A-Za-z0-9_.]*)?$`)

	// `from module import a, b, partial`. Tested before importRe so the
	// leading `import` keyword inside it cannot be misclassified.
	fromImportRe = regexp.MustCompile(`^from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import\s*(.*)$`)
)
