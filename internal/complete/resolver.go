package complete

import (
	"strings"

	"funls/internal/index"
	"funls/internal/lang"
	"funls/internal/shared/observability"
	"funls/internal/shared/util"
)

// Kind tags a candidate for the editor's item-kind mapping.
type Kind string

const (
	KindKeyword  Kind = "keyword"
	KindType     Kind = "type"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindVariable Kind = "variable"
	KindMethod   Kind = "method"
	KindProperty Kind = "property"
	KindModule   Kind = "module"
)

// Candidate is one completion suggestion. Candidates carry no score: order
// is insertion order, and fuzzy re-ranking is the editor's job.
type Candidate struct {
	Name string
	Kind Kind
}

// Resolver turns a cursor position into a candidate list. It reads the
// workspace index but never writes it.
type Resolver struct {
	index *index.Service
}

func NewResolver(idx *index.Service) *Resolver {
	return &Resolver{index: idx}
}

// Complete classifies the text before the cursor and assembles candidates.
// linePrefix is the current line up to the cursor, docModule the module
// name of the triggering document (empty when unresolvable).
//
// Contexts are tested in priority order: member access, decorator, import,
// from-import, then the general fallback.
func (r *Resolver) Complete(linePrefix, docModule string) []Candidate {
	if m := memberAccessRe.FindStringSubmatch(linePrefix); m != nil {
		if candidates := r.memberCandidates(m[1], docModule); len(candidates) > 0 {
			observability.CompletionRequestsTotal.WithLabelValues("member").Inc()
			return candidates
		}
	}

	trimmed := strings.TrimLeft(linePrefix, " \t")

	if m := decoratorRe.FindStringSubmatch(linePrefix); m != nil {
		observability.CompletionRequestsTotal.WithLabelValues("decorator").Inc()
		return r.decoratorCandidates(m[1])
	}

	if m := fromImportRe.FindStringSubmatch(trimmed); m != nil {
		observability.CompletionRequestsTotal.WithLabelValues("from_import").Inc()
		return r.fromImportCandidates(m[1], m[2])
	}

	if m := importRe.FindStringSubmatch(trimmed); m != nil {
		observability.CompletionRequestsTotal.WithLabelValues("import").Inc()
		return r.importCandidates(m[1])
	}

	observability.CompletionRequestsTotal.WithLabelValues("general").Inc()
	return r.generalCandidates()
}

// memberCandidates resolves `x.` against the current document's module
// only: methods via the inferred class (or x itself when it names a
// class), plus recorded object-literal keys. When it finds anything it is
// returned exclusively, with no fallback to generic symbols.
func (r *Resolver) memberCandidates(ident, docModule string) []Candidate {
	table, ok := r.index.Lookup(docModule)
	if !ok {
		return nil
	}

	var out []Candidate
	seen := make(map[string]bool)

	className, hasClass := table.VariableTypes[ident]
	if !hasClass && table.Classes[ident] {
		className, hasClass = ident, true
	}
	if hasClass {
		for _, method := range util.SortedStringKeys(table.ClassMethods[className]) {
			if !seen[method] {
				seen[method] = true
				out = append(out, Candidate{Name: method, Kind: KindMethod})
			}
		}
	}

	if props, ok := table.ObjectProperties[ident]; ok {
		for _, key := range util.SortedStringKeys(props) {
			if !seen[key] {
				seen[key] = true
				out = append(out, Candidate{Name: key, Kind: KindProperty})
			}
		}
	}

	return out
}

func (r *Resolver) decoratorCandidates(prefix string) []Candidate {
	var out []Candidate
	for _, name := range lang.Decorators {
		if strings.HasPrefix(name, prefix) {
			out = append(out, Candidate{Name: name, Kind: KindFunction})
		}
	}
	return out
}

// importCandidates returns built-in and indexed module names matching the
// typed prefix.
func (r *Resolver) importCandidates(prefix string) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)

	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			out = append(out, Candidate{Name: name, Kind: KindModule})
		}
	}

	for _, name := range lang.Modules {
		add(name)
	}
	for _, name := range r.index.ModuleNames() {
		add(name)
	}
	return out
}

// fromImportCandidates lists a module's exports (functions, classes and
// top-level variables), filtered by the partial item after the last comma.
func (r *Resolver) fromImportCandidates(moduleName, itemList string) []Candidate {
	table, ok := r.index.Lookup(moduleName)
	if !ok {
		return nil
	}

	partial := itemList
	if idx := strings.LastIndex(partial, ","); idx >= 0 {
		partial = partial[idx+1:]
	}
	partial = strings.TrimSpace(partial)

	var out []Candidate
	add := func(name string, kind Kind) {
		if partial == "" || strings.HasPrefix(name, partial) {
			out = append(out, Candidate{Name: name, Kind: kind})
		}
	}

	for _, name := range util.SortedStringKeys(table.Functions) {
		add(name, KindFunction)
	}
	for _, name := range util.SortedStringKeys(table.Classes) {
		add(name, KindClass)
	}
	for _, name := range util.SortedStringKeys(table.Variables) {
		add(name, KindVariable)
	}
	return out
}

// generalCandidates merges the static built-in tables with every
// function, class and top-level variable across the whole index.
// Duplicates collapse by name; candidates carry no module qualification.
func (r *Resolver) generalCandidates() []Candidate {
	var out []Candidate
	seen := make(map[string]bool)

	add := func(name string, kind Kind) {
		if !seen[name] {
			seen[name] = true
			out = append(out, Candidate{Name: name, Kind: kind})
		}
	}

	for _, name := range lang.Keywords {
		add(name, KindKeyword)
	}
	for _, name := range lang.Types {
		add(name, KindType)
	}
	for _, name := range lang.Functions {
		add(name, KindFunction)
	}

	snapshot := r.index.Snapshot()
	for _, moduleName := range util.SortedStringKeys(snapshot) {
		table := snapshot[moduleName]
		for _, name := range util.SortedStringKeys(table.Functions) {
			add(name, KindFunction)
		}
		for _, name := range util.SortedStringKeys(table.Classes) {
			add(name, KindClass)
		}
		for _, name := range util.SortedStringKeys(table.Variables) {
			add(name, KindVariable)
		}
	}

	return out
}
