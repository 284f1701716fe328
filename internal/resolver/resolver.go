package resolver

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"rustex/internal/model"
)

// maxSuggestionDistance bounds the edit distance for did-you-mean hints
// on unresolved references.
const maxSuggestionDistance = 2

// Stats summarize one resolution pass.
type Stats struct {
	Attempted  int
	Resolved   int
	Unresolved int
}

// Resolver matches raw usages against the declarations of the same file
// under lexical-ancestry rules. It is a pure transformation: resolution
// never fails, an unresolved reference is a normal terminal state.
type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

type candidate struct {
	id    string
	scope string // qualified name of the enclosing scope, "" at file root
	order int
}

// Resolve produces one CrossReference per usage, in usage order.
//
// A candidate declaration is visible from a usage when the candidate's
// enclosing scope is an ancestor of, or equal to, the usage's scope.
// Among visible candidates the nearest scope (longest qualified prefix)
// wins; ties fall back to traversal order. Declarations the usage site is
// not nested under never resolve, even when the name is unique.
func (r *Resolver) Resolve(elements []*model.CodeElement, usages []model.RawUsage) ([]model.CrossReference, Stats) {
	byShort := make(map[string][]candidate)
	var shortNames []string
	seenShort := make(map[string]bool)

	for i, e := range elements {
		byShort[e.Name] = append(byShort[e.Name], candidate{
			id:    e.ID,
			scope: enclosingScope(e.Hierarchy.QualifiedName),
			order: i,
		})
		if !seenShort[e.Name] {
			seenShort[e.Name] = true
			shortNames = append(shortNames, e.Name)
		}
	}
	sort.Strings(shortNames)

	refs := make([]model.CrossReference, 0, len(usages))
	stats := Stats{Attempted: len(usages)}

	for _, u := range usages {
		short := lastSegment(u.Text)
		ref := model.CrossReference{
			FromElementID: u.FromElementID,
			ReferenceType: u.ReferenceType,
			ReferenceText: u.Text,
			Context:       model.ReferenceContext{Scope: u.Scope},
		}

		if best, ok := pickCandidate(byShort[short], u.Scope); ok {
			id := best.id
			ref.ToElementID = &id
			ref.IsResolved = true
			stats.Resolved++
		} else {
			ref.Suggestion = suggest(short, shortNames, seenShort)
			stats.Unresolved++
		}
		refs = append(refs, ref)
	}
	return refs, stats
}

// pickCandidate applies the visibility rule and nearest-scope tie-break.
func pickCandidate(candidates []candidate, usageScope string) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range candidates {
		if !scopeVisible(c.scope, usageScope) {
			continue
		}
		if !found || len(c.scope) > len(best.scope) {
			best = c
			found = true
		}
	}
	return best, found
}

// scopeVisible reports whether a declaration living in declScope can be
// named from usageScope: the usage must sit inside (or at) the
// declaration's scope. Root declarations are visible everywhere in the
// file.
func scopeVisible(declScope, usageScope string) bool {
	if declScope == "" {
		return true
	}
	return usageScope == declScope || strings.HasPrefix(usageScope, declScope+"::")
}

// suggest finds the closest declared name to an unresolved reference.
// Names are scanned in sorted order so equal distances pick the
// lexicographically first.
func suggest(short string, sortedNames []string, declared map[string]bool) string {
	if declared[short] {
		// the name exists but out of scope; a spelling hint would mislead
		return ""
	}
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, name := range sortedNames {
		if d := edlib.LevenshteinDistance(short, name); d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best
}

func enclosingScope(qualifiedName string) string {
	if i := strings.LastIndex(qualifiedName, "::"); i >= 0 {
		return qualifiedName[:i]
	}
	return ""
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}
