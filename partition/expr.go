// Package partition turns grouping and subsetting rules into named sets of
// cells and expands configured designs into comparison jobs.
package partition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/scmetab/scmetab"
)

// Expr is a compiled boolean expression over metadata columns. The grammar
// is deliberately small: column references, string and number literals,
// TRUE/FALSE, comparisons, logical and/or/not, and parentheses. It is not a
// general-purpose interpreter and must not grow into one.
type Expr struct {
	src  string
	root exprNode
	cols []string
}

// Compile parses an expression. Syntax errors are ConfigErrors: they are
// caught before any computation starts.
func Compile(src string) (*Expr, error) {
	tokens, err := scan(src)
	if err != nil {
		return nil, scmetab.NewConfigError("expression %q: %v", src, err)
	}

	p := parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, scmetab.NewConfigError("expression %q: %v", src, err)
	}
	if !p.atEOF() {
		return nil, scmetab.NewConfigError("expression %q: unexpected %q", src, p.peek().text)
	}

	seen := make(map[string]struct{})
	var cols []string
	collectColumns(root, seen, &cols)

	return &Expr{src: src, root: root, cols: cols}, nil
}

// Columns returns the metadata columns the expression references, in first
// reference order.
func (e *Expr) Columns() []string {
	return e.cols
}

func (e *Expr) String() string {
	return e.src
}

// Eval evaluates the expression for one cell. lookup maps a column name to
// that cell's value; it is only called for columns the caller has already
// verified exist.
func (e *Expr) Eval(lookup func(column string) string) (bool, error) {
	v, err := e.root.eval(lookup)
	if err != nil {
		return false, scmetab.NewConfigError("expression %q: %v", e.src, err)
	}

	b, err := v.truth()
	if err != nil {
		return false, scmetab.NewConfigError("expression %q: %v", e.src, err)
	}

	return b, nil
}

// --- values ---

type valueKind int

const (
	boolVal valueKind = iota
	strVal
	numVal
)

type value struct {
	kind valueKind
	b    bool
	s    string
	n    float64
}

func (v value) truth() (bool, error) {
	switch v.kind {
	case boolVal:
		return v.b, nil
	case numVal:
		return v.n != 0, nil
	case strVal:
		switch strings.ToLower(v.s) {
		case "true", "t":
			return true, nil
		case "false", "f":
			return false, nil
		}
	}

	return false, fmt.Errorf("value %q is not boolean", v.s)
}

func (v value) text() string {
	switch v.kind {
	case boolVal:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case numVal:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	}
	return v.s
}

func numericPair(a, b value) (float64, float64, bool) {
	fa, aok := a.numeric()
	fb, bok := b.numeric()
	return fa, fb, aok && bok
}

func (v value) numeric() (float64, bool) {
	switch v.kind {
	case numVal:
		return v.n, true
	case strVal:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f, err == nil
	}
	return 0, false
}

// --- AST ---

type exprNode interface {
	eval(lookup func(string) string) (value, error)
}

type literalNode struct {
	val value
}

func (n literalNode) eval(func(string) string) (value, error) {
	return n.val, nil
}

type columnNode struct {
	name string
}

func (n columnNode) eval(lookup func(string) string) (value, error) {
	return value{kind: strVal, s: lookup(n.name)}, nil
}

type notNode struct {
	operand exprNode
}

func (n notNode) eval(lookup func(string) string) (value, error) {
	v, err := n.operand.eval(lookup)
	if err != nil {
		return value{}, err
	}
	b, err := v.truth()
	if err != nil {
		return value{}, err
	}

	return value{kind: boolVal, b: !b}, nil
}

type logicNode struct {
	op          string // "&" or "|"
	left, right exprNode
}

func (n logicNode) eval(lookup func(string) string) (value, error) {
	lv, err := n.left.eval(lookup)
	if err != nil {
		return value{}, err
	}
	lb, err := lv.truth()
	if err != nil {
		return value{}, err
	}

	// Short circuit
	if n.op == "&" && !lb {
		return value{kind: boolVal, b: false}, nil
	}
	if n.op == "|" && lb {
		return value{kind: boolVal, b: true}, nil
	}

	rv, err := n.right.eval(lookup)
	if err != nil {
		return value{}, err
	}
	rb, err := rv.truth()
	if err != nil {
		return value{}, err
	}

	return value{kind: boolVal, b: rb}, nil
}

type cmpNode struct {
	op          string
	left, right exprNode
}

func (n cmpNode) eval(lookup func(string) string) (value, error) {
	lv, err := n.left.eval(lookup)
	if err != nil {
		return value{}, err
	}
	rv, err := n.right.eval(lookup)
	if err != nil {
		return value{}, err
	}

	switch n.op {
	case "==", "!=":
		eq := equalValues(lv, rv)
		if n.op == "!=" {
			eq = !eq
		}
		return value{kind: boolVal, b: eq}, nil
	}

	// Ordering: numeric when both sides are numbers, lexicographic when both
	// are strings.
	if fa, fb, ok := numericPair(lv, rv); ok {
		return value{kind: boolVal, b: compareFloats(n.op, fa, fb)}, nil
	}
	if lv.kind == strVal && rv.kind == strVal {
		return value{kind: boolVal, b: compareStrings(n.op, lv.s, rv.s)}, nil
	}

	return value{}, fmt.Errorf("cannot order %q against %q", lv.text(), rv.text())
}

func equalValues(a, b value) bool {
	if fa, fb, ok := numericPair(a, b); ok {
		return fa == fb
	}
	if a.kind == boolVal || b.kind == boolVal {
		ab, aerr := a.truth()
		bb, berr := b.truth()
		if aerr == nil && berr == nil {
			return ab == bb
		}
	}

	return a.text() == b.text()
}

func compareFloats(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	}
	return a >= b
}

func compareStrings(op, a, b string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	}
	return a >= b
}

func collectColumns(n exprNode, seen map[string]struct{}, out *[]string) {
	switch node := n.(type) {
	case columnNode:
		if _, exists := seen[node.name]; !exists {
			seen[node.name] = struct{}{}
			*out = append(*out, node.name)
		}
	case notNode:
		collectColumns(node.operand, seen, out)
	case logicNode:
		collectColumns(node.left, seen, out)
		collectColumns(node.right, seen, out)
	case cmpNode:
		collectColumns(node.left, seen, out)
		collectColumns(node.right, seen, out)
	}
}

// --- scanner ---

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func scan(src string) ([]token, error) {
	var out []token
	runes := []rune(src)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j == len(runes) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			out = append(out, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) && startsOperand(out)):
			j := i + 1
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.' || runes[j] == 'e' || runes[j] == 'E' ||
				((runes[j] == '+' || runes[j] == '-') && (runes[j-1] == 'e' || runes[j-1] == 'E'))) {
				j++
			}
			text := string(runes[i:j])
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, fmt.Errorf("bad number %q", text)
			}
			out = append(out, token{kind: tokNumber, text: text})
			i = j
		case unicode.IsLetter(r) || r == '_' || r == '.':
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			out = append(out, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		default:
			two := ""
			if i+1 < len(runes) {
				two = string(runes[i : i+2])
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				out = append(out, token{kind: tokOp, text: two})
				i += 2
				continue
			}
			switch r {
			case '<', '>', '&', '|', '!', '(', ')':
				out = append(out, token{kind: tokOp, text: string(r)})
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q at offset %d", string(r), i)
			}
		}
	}

	return append(out, token{kind: tokEOF}), nil
}

// startsOperand reports whether a '-' at the current position could begin a
// negative number rather than follow an operand.
func startsOperand(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	last := toks[len(toks)-1]
	return last.kind == tokOp && last.text != ")"
}

// --- parser ---

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokEOF
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("|", "||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicNode{op: "|", left: left, right: right}
	}
}

func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&", "&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = logicNode{op: "&", left: left, right: right}
	}
}

func (p *parser) parseNot() (exprNode, error) {
	if _, ok := p.acceptOp("!"); ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{operand: operand}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	op, ok := p.acceptOp("==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, nil
	}

	right, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	return cmpNode{op: op, left: left, right: right}, nil
}

func (p *parser) parseTerm() (exprNode, error) {
	t := p.peek()

	if t.kind == tokEOF {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch t.kind {
	case tokString:
		p.next()
		return literalNode{val: value{kind: strVal, s: t.text}}, nil
	case tokNumber:
		p.next()
		f, _ := strconv.ParseFloat(t.text, 64)
		return literalNode{val: value{kind: numVal, n: f}}, nil
	case tokIdent:
		p.next()
		switch t.text {
		case "TRUE", "true":
			return literalNode{val: value{kind: boolVal, b: true}}, nil
		case "FALSE", "false":
			return literalNode{val: value{kind: boolVal, b: false}}, nil
		}
		return columnNode{name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			p.next()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("missing closing parenthesis")
			}
			return inner, nil
		}
	}

	return nil, fmt.Errorf("unexpected %q", t.text)
}
