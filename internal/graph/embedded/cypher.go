package embedded

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	"codeatlas/internal/graph"
)

// This file implements the openCypher subset the query translator emits:
//
//	MATCH (a:Label {prop: 'v'})-[:TYPE]->(b:Label)
//	OPTIONAL MATCH ...
//	WHERE a.prop = 'v' AND b.prop CONTAINS $name
//	RETURN a.prop, b, count(DISTINCT b) AS n
//	LIMIT 25
//
// Patterns are one or two nodes joined by a single outgoing relationship.
// Values are single- or double-quoted strings, integers, or $parameters.
// CONTAINS matches case-insensitively; = is exact.

type valueRef struct {
	literal any
	param   string
}

type nodePattern struct {
	variable string
	label    string
	props    map[string]valueRef
}

type relPattern struct {
	edgeType string
}

type matchClause struct {
	optional bool
	src      nodePattern
	rel      *relPattern
	dst      *nodePattern
}

type condition struct {
	variable string
	property string
	op       string // "=" or "CONTAINS"
	value    valueRef
}

type returnItem struct {
	agg      bool
	distinct bool
	variable string
	property string // empty for whole-node or count targets
	alias    string
}

type queryAST struct {
	matches []matchClause
	where   []condition
	returns []returnItem
	limit   int // 0 means no limit
}

// --- tokenizer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokParam
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			var sb strings.Builder
			for j < len(runes) && runes[j] != quote {
				sb.WriteRune(runes[j])
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		case r == '$':
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("empty parameter name at offset %d", i)
			}
			toks = append(toks, token{kind: tokParam, text: string(runes[i+1 : j])})
			i = j
		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: string(runes[i:j])})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		case strings.ContainsRune("()[]{}:,.=", r):
			toks = append(toks, token{kind: tokPunct, text: string(r)})
			i++
		case r == '-':
			if i+1 < len(runes) && runes[i+1] == '>' {
				toks = append(toks, token{kind: tokPunct, text: "->"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokPunct, text: "-"})
				i++
			}
		case r == ';':
			i++ // trailing semicolons are harmless
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	return toks, nil
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func parseQuery(input string) (*queryAST, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	ast := &queryAST{}

	for p.peekKeyword("MATCH") || p.peekKeyword("OPTIONAL") {
		optional := false
		if p.peekKeyword("OPTIONAL") {
			p.pos++
			optional = true
		}
		if !p.acceptKeyword("MATCH") {
			return nil, fmt.Errorf("expected MATCH after OPTIONAL")
		}
		m, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		m.optional = optional
		ast.matches = append(ast.matches, *m)
	}
	if len(ast.matches) == 0 {
		return nil, fmt.Errorf("query must start with MATCH")
	}

	if p.acceptKeyword("WHERE") {
		for {
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			ast.where = append(ast.where, *cond)
			if !p.acceptKeyword("AND") {
				break
			}
		}
	}

	if !p.acceptKeyword("RETURN") {
		return nil, fmt.Errorf("expected RETURN clause")
	}
	for {
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		ast.returns = append(ast.returns, *item)
		if !p.acceptPunct(",") {
			break
		}
	}

	if p.acceptKeyword("LIMIT") {
		tok, ok := p.next()
		if !ok || tok.kind != tokNumber {
			return nil, fmt.Errorf("expected number after LIMIT")
		}
		n, err := strconv.Atoi(tok.text)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid LIMIT value %q", tok.text)
		}
		ast.limit = n
	}

	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected trailing token %q", p.toks[p.pos].text)
	}
	return ast, nil
}

func (p *parser) parsePattern() (*matchClause, error) {
	src, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	m := &matchClause{src: *src}

	if p.acceptPunct("-") {
		if !p.acceptPunct("[") {
			return nil, fmt.Errorf("expected [ in relationship pattern")
		}
		// Optional relationship variable (ignored; never returned).
		if tok, ok := p.peek(); ok && tok.kind == tokIdent {
			p.pos++
		}
		if !p.acceptPunct(":") {
			return nil, fmt.Errorf("expected : in relationship pattern")
		}
		tok, ok := p.next()
		if !ok || tok.kind != tokIdent {
			return nil, fmt.Errorf("expected relationship type")
		}
		m.rel = &relPattern{edgeType: tok.text}
		if !p.acceptPunct("]") {
			return nil, fmt.Errorf("expected ] in relationship pattern")
		}
		if !p.acceptPunct("->") {
			return nil, fmt.Errorf("only outgoing -> relationships are supported")
		}
		dst, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		m.dst = dst
	}
	return m, nil
}

func (p *parser) parseNodePattern() (*nodePattern, error) {
	if !p.acceptPunct("(") {
		return nil, fmt.Errorf("expected ( to open node pattern")
	}
	np := &nodePattern{}
	if tok, ok := p.peek(); ok && tok.kind == tokIdent {
		np.variable = tok.text
		p.pos++
	}
	if p.acceptPunct(":") {
		tok, ok := p.next()
		if !ok || tok.kind != tokIdent {
			return nil, fmt.Errorf("expected node label after :")
		}
		np.label = tok.text
	}
	if p.acceptPunct("{") {
		np.props = make(map[string]valueRef)
		for {
			key, ok := p.next()
			if !ok || key.kind != tokIdent {
				return nil, fmt.Errorf("expected property name in map")
			}
			if !p.acceptPunct(":") {
				return nil, fmt.Errorf("expected : after property name %q", key.text)
			}
			val, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			np.props[key.text] = *val
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct("}") {
			return nil, fmt.Errorf("expected } to close property map")
		}
	}
	if !p.acceptPunct(")") {
		return nil, fmt.Errorf("expected ) to close node pattern")
	}
	if np.variable == "" && np.label == "" {
		return nil, fmt.Errorf("node pattern must name a variable or label")
	}
	return np, nil
}

func (p *parser) parseCondition() (*condition, error) {
	v, ok := p.next()
	if !ok || v.kind != tokIdent {
		return nil, fmt.Errorf("expected variable in WHERE condition")
	}
	if !p.acceptPunct(".") {
		return nil, fmt.Errorf("expected property access in WHERE condition")
	}
	prop, ok := p.next()
	if !ok || prop.kind != tokIdent {
		return nil, fmt.Errorf("expected property name in WHERE condition")
	}
	cond := &condition{variable: v.text, property: prop.text}
	switch {
	case p.acceptPunct("="):
		cond.op = "="
	case p.acceptKeyword("CONTAINS"):
		cond.op = "CONTAINS"
	default:
		return nil, fmt.Errorf("expected = or CONTAINS in WHERE condition")
	}
	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	cond.value = *val
	return cond, nil
}

func (p *parser) parseReturnItem() (*returnItem, error) {
	tok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("expected return item")
	}
	item := &returnItem{}
	if tok.kind == tokIdent && strings.EqualFold(tok.text, "count") && p.acceptPunct("(") {
		item.agg = true
		if p.peekKeyword("DISTINCT") {
			p.pos++
			item.distinct = true
		}
		v, ok := p.next()
		if !ok || v.kind != tokIdent {
			return nil, fmt.Errorf("expected variable inside count()")
		}
		item.variable = v.text
		if !p.acceptPunct(")") {
			return nil, fmt.Errorf("expected ) to close count()")
		}
		item.alias = "count"
	} else {
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("expected variable in return item, got %q", tok.text)
		}
		item.variable = tok.text
		item.alias = tok.text
		if p.acceptPunct(".") {
			prop, ok := p.next()
			if !ok || prop.kind != tokIdent {
				return nil, fmt.Errorf("expected property name after %s.", tok.text)
			}
			item.property = prop.text
			item.alias = item.variable + "." + item.property
		}
	}
	if p.acceptKeyword("AS") {
		alias, ok := p.next()
		if !ok || alias.kind != tokIdent {
			return nil, fmt.Errorf("expected alias after AS")
		}
		item.alias = alias.text
	}
	return item, nil
}

func (p *parser) parseValue() (*valueRef, error) {
	tok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("expected value")
	}
	switch tok.kind {
	case tokString:
		return &valueRef{literal: tok.text}, nil
	case tokNumber:
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.text)
		}
		return &valueRef{literal: n}, nil
	case tokParam:
		return &valueRef{param: tok.text}, nil
	default:
		return nil, fmt.Errorf("expected literal or parameter, got %q", tok.text)
	}
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) peekKeyword(kw string) bool {
	tok, ok := p.peek()
	return ok && tok.kind == tokIdent && strings.EqualFold(tok.text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peekKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptPunct(text string) bool {
	tok, ok := p.peek()
	if ok && tok.kind == tokPunct && tok.text == text {
		p.pos++
		return true
	}
	return false
}

// --- evaluator ---

// binding maps pattern variables to node property maps. An entry may hold a
// nil Row when bound by a failed OPTIONAL MATCH.
type binding map[string]graph.Row

func cloneBinding(b binding) binding {
	return maps.Clone(b)
}

func evaluate(ast *queryAST, snap *graphSnapshot, params map[string]any) ([]graph.Row, error) {
	rows := []binding{{}}
	var err error
	for _, m := range ast.matches {
		rows, err = evalMatch(rows, m, snap, params)
		if err != nil {
			return nil, err
		}
	}

	for _, cond := range ast.where {
		filtered := rows[:0:0]
		for _, b := range rows {
			ok, err := evalCondition(b, cond, params)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, b)
			}
		}
		rows = filtered
	}

	out, err := project(ast.returns, rows)
	if err != nil {
		return nil, err
	}
	if ast.limit > 0 && len(out) > ast.limit {
		out = out[:ast.limit]
	}
	return out, nil
}

func evalMatch(rows []binding, m matchClause, snap *graphSnapshot, params map[string]any) ([]binding, error) {
	var out []binding
	for _, b := range rows {
		expanded, err := expand(b, m, snap, params)
		if err != nil {
			return nil, err
		}
		if len(expanded) > 0 {
			out = append(out, expanded...)
			continue
		}
		if m.optional {
			nb := cloneBinding(b)
			if _, bound := nb[m.src.variable]; !bound && m.src.variable != "" {
				nb[m.src.variable] = nil
			}
			if m.dst != nil && m.dst.variable != "" {
				if _, bound := nb[m.dst.variable]; !bound {
					nb[m.dst.variable] = nil
				}
			}
			out = append(out, nb)
		}
	}
	return out, nil
}

func expand(b binding, m matchClause, snap *graphSnapshot, params map[string]any) ([]binding, error) {
	srcIDs, err := candidateIDs(b, m.src, snap, params)
	if err != nil {
		return nil, err
	}

	var out []binding
	for _, srcID := range srcIDs {
		if m.rel == nil {
			nb := cloneBinding(b)
			if m.src.variable != "" {
				nb[m.src.variable] = snap.nodes[srcID]
			}
			out = append(out, nb)
			continue
		}
		for _, edge := range snap.outgoing[srcID] {
			if string(edge.Type) != m.rel.edgeType {
				continue
			}
			ok, err := nodeMatches(b, *m.dst, edge.Target, snap, params)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			nb := cloneBinding(b)
			if m.src.variable != "" {
				nb[m.src.variable] = snap.nodes[srcID]
			}
			if m.dst.variable != "" {
				nb[m.dst.variable] = snap.nodes[edge.Target]
			}
			out = append(out, nb)
		}
	}
	return out, nil
}

// candidateIDs returns the node IDs a pattern endpoint can bind to, honoring
// an existing binding for the same variable.
func candidateIDs(b binding, np nodePattern, snap *graphSnapshot, params map[string]any) ([]string, error) {
	if np.variable != "" {
		if bound, ok := b[np.variable]; ok {
			if bound == nil {
				return nil, nil
			}
			id, _ := bound["id"].(string)
			ok, err := nodeMatches(nil, np, id, snap, params)
			if err != nil || !ok {
				return nil, err
			}
			return []string{id}, nil
		}
	}
	var ids []string
	if np.label != "" {
		ids = snap.byLabel[graph.Label(np.label)]
	} else {
		ids = snap.allIDs
	}
	var out []string
	for _, id := range ids {
		ok, err := propsMatch(np, snap.nodes[id], params)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// nodeMatches reports whether the node with the given ID satisfies the
// pattern's label, property map, and any existing binding of its variable.
func nodeMatches(b binding, np nodePattern, id string, snap *graphSnapshot, params map[string]any) (bool, error) {
	props, exists := snap.nodes[id]
	if !exists {
		return false, nil
	}
	if np.label != "" && snap.labels[id] != graph.Label(np.label) {
		return false, nil
	}
	if b != nil && np.variable != "" {
		if bound, ok := b[np.variable]; ok {
			if bound == nil {
				return false, nil
			}
			boundID, _ := bound["id"].(string)
			if boundID != id {
				return false, nil
			}
		}
	}
	return propsMatch(np, props, params)
}

func propsMatch(np nodePattern, props graph.Row, params map[string]any) (bool, error) {
	for key, ref := range np.props {
		want, err := resolveValue(ref, params)
		if err != nil {
			return false, err
		}
		if !valuesEqual(props[key], want) {
			return false, nil
		}
	}
	return true, nil
}

func evalCondition(b binding, cond condition, params map[string]any) (bool, error) {
	node, bound := b[cond.variable]
	if !bound {
		return false, fmt.Errorf("undefined variable %q in WHERE", cond.variable)
	}
	if node == nil {
		return false, nil
	}
	want, err := resolveValue(cond.value, params)
	if err != nil {
		return false, err
	}
	got := node[cond.property]
	switch cond.op {
	case "=":
		return valuesEqual(got, want), nil
	case "CONTAINS":
		gs, ok1 := got.(string)
		ws := fmt.Sprint(want)
		if !ok1 {
			return false, nil
		}
		return strings.Contains(strings.ToLower(gs), strings.ToLower(ws)), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", cond.op)
	}
}

func project(items []returnItem, rows []binding) ([]graph.Row, error) {
	hasAgg := false
	for _, item := range items {
		if item.agg {
			hasAgg = true
			break
		}
	}
	if !hasAgg {
		var out []graph.Row
		for _, b := range rows {
			row := graph.Row{}
			for _, item := range items {
				val, err := itemValue(b, item)
				if err != nil {
					return nil, err
				}
				row[item.alias] = val
			}
			out = append(out, row)
		}
		return out, nil
	}

	// Group by the non-aggregate items, preserving first-seen order.
	type group struct {
		row  graph.Row
		seen map[string]map[string]struct{} // per-aggregate alias -> distinct IDs
		n    map[string]int64               // per-aggregate alias -> plain count
	}
	var order []string
	groups := make(map[string]*group)

	for _, b := range rows {
		var keyParts []string
		row := graph.Row{}
		for _, item := range items {
			if item.agg {
				continue
			}
			val, err := itemValue(b, item)
			if err != nil {
				return nil, err
			}
			row[item.alias] = val
			keyParts = append(keyParts, fmt.Sprint(val))
		}
		key := strings.Join(keyParts, "\x00")
		g, ok := groups[key]
		if !ok {
			g = &group{row: row, seen: make(map[string]map[string]struct{}), n: make(map[string]int64)}
			groups[key] = g
			order = append(order, key)
		}
		for _, item := range items {
			if !item.agg {
				continue
			}
			node, bound := b[item.variable]
			if !bound {
				return nil, fmt.Errorf("undefined variable %q in count()", item.variable)
			}
			if node == nil {
				continue
			}
			if item.distinct {
				id, _ := node["id"].(string)
				if g.seen[item.alias] == nil {
					g.seen[item.alias] = make(map[string]struct{})
				}
				g.seen[item.alias][id] = struct{}{}
			} else {
				g.n[item.alias]++
			}
		}
	}

	// A global aggregate with no matches still yields one zero row.
	if len(order) == 0 {
		allAgg := true
		for _, item := range items {
			if !item.agg {
				allAgg = false
				break
			}
		}
		if allAgg {
			row := graph.Row{}
			for _, item := range items {
				row[item.alias] = int64(0)
			}
			return []graph.Row{row}, nil
		}
	}

	var out []graph.Row
	for _, key := range order {
		g := groups[key]
		for _, item := range items {
			if !item.agg {
				continue
			}
			if item.distinct {
				g.row[item.alias] = int64(len(g.seen[item.alias]))
			} else {
				g.row[item.alias] = g.n[item.alias]
			}
		}
		out = append(out, g.row)
	}
	return out, nil
}

func itemValue(b binding, item returnItem) (any, error) {
	node, bound := b[item.variable]
	if !bound {
		return nil, fmt.Errorf("undefined variable %q in RETURN", item.variable)
	}
	if node == nil {
		return nil, nil
	}
	if item.property == "" {
		return node, nil
	}
	return node[item.property], nil
}

func resolveValue(ref valueRef, params map[string]any) (any, error) {
	if ref.param != "" {
		val, ok := params[ref.param]
		if !ok {
			return nil, fmt.Errorf("parameter $%s not provided", ref.param)
		}
		return val, nil
	}
	return ref.literal, nil
}

// valuesEqual compares property values loosely: numbers compare by value
// regardless of int/float representation, everything else by string form.
func valuesEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == want
	}
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
