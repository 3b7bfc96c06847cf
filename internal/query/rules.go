package query

import "strings"

// fallbackQuery is the bounded catch-all used when no rule matches.
const fallbackQuery = "MATCH (n) RETURN n LIMIT 25"

// rule is one keyword-triggered heuristic mapping a question shape to a graph
// query. Rules are evaluated in table order; the first to produce a query
// wins. The question passed to build is lowercased.
type rule struct {
	name  string
	build func(question string, tokens []string) (string, map[string]any, bool)
}

// ruleTable is evaluated top to bottom: counts, scoped listings, unscoped
// listings, call traversals, structural overviews, then the fallback.
var ruleTable = []rule{
	{name: "count", build: buildCount},
	{name: "scoped-listing", build: buildScopedListing},
	{name: "unscoped-listing", build: buildUnscopedListing},
	{name: "calls", build: buildCalls},
	{name: "structure", build: buildStructure},
}

// translateWithRules maps a question to a query using the rule table alone.
func translateWithRules(question string) (string, map[string]any) {
	q := strings.ToLower(question)
	tokens := tokenizeQuestion(q)
	for _, r := range ruleTable {
		if query, params, ok := r.build(q, tokens); ok {
			return query, params
		}
	}
	return fallbackQuery, nil
}

func buildCount(q string, _ []string) (string, map[string]any, bool) {
	if !strings.Contains(q, "how many") && !strings.HasPrefix(q, "count ") {
		return "", nil, false
	}
	switch {
	case strings.Contains(q, "file"):
		return "MATCH (f:File) RETURN count(f) AS count", nil, true
	case strings.Contains(q, "class"):
		return "MATCH (c:Class) RETURN count(c) AS count", nil, true
	case strings.Contains(q, "function"), strings.Contains(q, "method"):
		return "MATCH (fn:Function) RETURN count(fn) AS count", nil, true
	}
	return "", nil, false
}

// buildScopedListing handles "methods of class X", "functions in Y" and
// "classes in Y" shapes. For functions, a name containing a path separator
// or extension dot scopes by file, anything else by class. Classes only
// ever scope by file.
func buildScopedListing(q string, tokens []string) (string, map[string]any, bool) {
	if strings.Contains(q, "function") || strings.Contains(q, "method") {
		if !strings.Contains(q, "class") && !strings.Contains(q, " in ") && !strings.Contains(q, " from ") {
			return "", nil, false
		}
		name, ok := extractName(tokens)
		if !ok {
			return "", nil, false
		}
		if strings.ContainsAny(name, "./") {
			return "MATCH (f:File)-[:CONTAINS_FUNCTION]->(fn:Function) WHERE f.path CONTAINS $path RETURN fn.name, fn.args, fn.docstring",
				map[string]any{"path": name}, true
		}
		return "MATCH (c:Class)-[:DEFINES]->(fn:Function) WHERE c.name CONTAINS $name RETURN fn.name, fn.args, fn.docstring",
			map[string]any{"name": name}, true
	}
	if strings.Contains(q, "class") && (strings.Contains(q, " in ") || strings.Contains(q, " from ")) {
		name, ok := extractName(tokens)
		if !ok {
			return "", nil, false
		}
		return "MATCH (f:File)-[:CONTAINS_CLASS]->(c:Class) WHERE f.path CONTAINS $path RETURN c.name, c.file_path",
			map[string]any{"path": name}, true
	}
	return "", nil, false
}

func buildUnscopedListing(q string, _ []string) (string, map[string]any, bool) {
	// A question about calls is never a bare listing even when it names an
	// entity type ("which functions call X").
	if hasCallTrigger(q) {
		return "", nil, false
	}
	switch {
	case strings.Contains(q, "file"):
		return "MATCH (f:File) RETURN f.path, f.language", nil, true
	case strings.Contains(q, "class"):
		return "MATCH (c:Class) RETURN c.name, c.file_path", nil, true
	case strings.Contains(q, "function"), strings.Contains(q, "method"):
		return "MATCH (fn:Function) RETURN fn.name, fn.file_path", nil, true
	}
	return "", nil, false
}

// buildCalls answers "who calls X" shapes with a directional CALLS traversal
// toward the named callee.
func buildCalls(q string, tokens []string) (string, map[string]any, bool) {
	if !hasCallTrigger(q) {
		return "", nil, false
	}
	name, ok := nameNearCallTrigger(tokens)
	if !ok {
		return "", nil, false
	}
	return "MATCH (caller:Function)-[:CALLS]->(callee:Function {name: $name}) RETURN caller.name, caller.file_path",
		map[string]any{"name": name}, true
}

func buildStructure(q string, _ []string) (string, map[string]any, bool) {
	if !strings.Contains(q, "structure") && !strings.Contains(q, "overview") && !strings.Contains(q, "summary") {
		return "", nil, false
	}
	return "MATCH (f:File) " +
		"OPTIONAL MATCH (f)-[:CONTAINS_CLASS]->(c:Class) " +
		"OPTIONAL MATCH (f)-[:CONTAINS_FUNCTION]->(fn:Function) " +
		"RETURN f.path, count(DISTINCT c) AS classes, count(DISTINCT fn) AS functions", nil, true
}

// --- token helpers ---

var callTriggers = map[string]bool{
	"call": true, "calls": true, "calling": true, "called": true,
}

// anchorWords precede or follow a target name in scoped questions.
var anchorWords = map[string]bool{
	"in": true, "from": true, "class": true, "the": true,
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "from": true,
	"is": true, "are": true, "do": true, "does": true, "did": true,
	"what": true, "which": true, "who": true, "where": true, "how": true,
	"many": true, "all": true, "any": true, "there": true, "have": true,
	"has": true, "list": true, "show": true, "me": true, "get": true,
	"find": true, "file": true, "files": true, "class": true, "classes": true,
	"function": true, "functions": true, "method": true, "methods": true,
	"defined": true, "call": true, "calls": true, "calling": true,
	"called": true, "by": true, "to": true, "and": true, "or": true,
	"code": true, "repo": true, "repository": true, "project": true,
	"graph": true, "with": true,
}

func tokenizeQuestion(q string) []string {
	fields := strings.Fields(q)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?!.,;:'\"()")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func hasCallTrigger(q string) bool {
	for _, tok := range tokenizeQuestion(q) {
		if callTriggers[tok] {
			return true
		}
	}
	return false
}

// extractName scans tokens around anchor words for the first token that is
// not a stopword. The token after an anchor is preferred over the one before
// ("in the Foo class" and "the Foo class" both yield foo).
func extractName(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if !anchorWords[tok] {
			continue
		}
		if i+1 < len(tokens) && !stopwords[tokens[i+1]] {
			return tokens[i+1], true
		}
		if i > 0 && !stopwords[tokens[i-1]] {
			return tokens[i-1], true
		}
	}
	return "", false
}

// nameNearCallTrigger picks the function name adjacent to a call keyword,
// preferring the token after it ("what calls helper") and falling back to
// the token before ("where is helper called").
func nameNearCallTrigger(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if !callTriggers[tok] {
			continue
		}
		for j := i + 1; j < len(tokens); j++ {
			if !stopwords[tokens[j]] {
				return tokens[j], true
			}
		}
		for j := i - 1; j >= 0; j-- {
			if !stopwords[tokens[j]] {
				return tokens[j], true
			}
		}
	}
	return "", false
}
