package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"talos/util"
)

// ExprError is the typed evaluation error raised for malformed or
// non-numeric expressions. Callers catch it and substitute sentinels;
// it never aborts a normalization run.
type ExprError struct {
	Expr string
	Msg  string
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("expression error in %q: %s", e.Expr, e.Msg)
}

// exprCacheSize bounds the compiled expression cache. Schemas declare a
// few dozen expressions at most; the cache exists so fleet runs do not
// re-parse per host.
const exprCacheSize = 256

// Evaluator parses and evaluates the restricted arithmetic grammar used
// by compute fields and computed_filter conditions:
//
//	numeric literals, + - * /, unary +/-, parentheses, and {field_name}
//	references resolved from the field map at evaluation time.
//
// Division by zero evaluates to 0.0 rather than failing, so
// capacity-percentage formulas never break a field extraction on a zero
// denominator. Parse trees are cached per expression string.
type Evaluator struct {
	cache *lru.Cache[string, exprNode]
}

// NewEvaluator creates an evaluator with an LRU-cached parser.
func NewEvaluator() *Evaluator {
	cache, _ := lru.New[string, exprNode](exprCacheSize)
	return &Evaluator{cache: cache}
}

// Evaluate parses expr (or reuses a cached parse) and evaluates it against
// fields. A {name} reference resolves to the numeric value of fields[name],
// or 0 when absent or non-numeric.
func (e *Evaluator) Evaluate(expr string, fields map[string]interface{}) (float64, error) {
	node, ok := e.cache.Get(expr)
	if !ok {
		parsed, err := parseExpr(expr)
		if err != nil {
			return 0, err
		}
		e.cache.Add(expr, parsed)
		node = parsed
	}
	return node.eval(fields), nil
}

// --- syntax tree ---

type exprNode interface {
	eval(fields map[string]interface{}) float64
}

type literalNode float64

func (n literalNode) eval(map[string]interface{}) float64 { return float64(n) }

type fieldRefNode string

func (n fieldRefNode) eval(fields map[string]interface{}) float64 {
	f, ok := util.ToFloat(fields[string(n)])
	if !ok {
		return 0
	}
	return f
}

type unaryNode struct {
	op      byte
	operand exprNode
}

func (n unaryNode) eval(fields map[string]interface{}) float64 {
	v := n.operand.eval(fields)
	if n.op == '-' {
		return -v
	}
	return v
}

type binaryNode struct {
	op          byte
	left, right exprNode
}

func (n binaryNode) eval(fields map[string]interface{}) float64 {
	left := n.left.eval(fields)
	right := n.right.eval(fields)
	switch n.op {
	case '+':
		return left + right
	case '-':
		return left - right
	case '*':
		return left * right
	default:
		if right == 0 {
			return 0
		}
		return left / right
	}
}

// --- lexer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokRef
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind  tokenKind
	num   float64
	text  string
	op    byte
}

func lexExpr(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, &ExprError{Expr: expr, Msg: fmt.Sprintf("bad numeric literal %q", expr[i:j])}
			}
			tokens = append(tokens, token{kind: tokNumber, num: num})
			i = j
		case c == '{':
			end := strings.IndexByte(expr[i:], '}')
			if end < 0 {
				return nil, &ExprError{Expr: expr, Msg: "unterminated field reference"}
			}
			name := expr[i+1 : i+end]
			if name == "" || !isFieldName(name) {
				return nil, &ExprError{Expr: expr, Msg: fmt.Sprintf("bad field reference %q", name)}
			}
			tokens = append(tokens, token{kind: tokRef, text: name})
			i += end + 1
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOp, op: c})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		default:
			return nil, &ExprError{Expr: expr, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

func isFieldName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// --- recursive descent parser ---

type exprParser struct {
	expr   string
	tokens []token
	pos    int
}

func parseExpr(expr string) (exprNode, error) {
	tokens, err := lexExpr(expr)
	if err != nil {
		return nil, err
	}
	p := &exprParser{expr: expr, tokens: tokens}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, &ExprError{Expr: expr, Msg: "trailing input after expression"}
	}
	return node, nil
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

// parseSum handles + and - at the lowest precedence.
func (p *exprParser) parseSum() (exprNode, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '+' && t.op != '-') {
			return left, nil
		}
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.op, left: left, right: right}
	}
}

// parseProduct handles * and /.
func (p *exprParser) parseProduct() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '*' && t.op != '/') {
			return left, nil
		}
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.op, left: left, right: right}
	}
}

// parseFactor handles literals, references, unary +/- and parentheses.
func (p *exprParser) parseFactor() (exprNode, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return literalNode(t.num), nil
	case tokRef:
		return fieldRefNode(t.text), nil
	case tokOp:
		if t.op == '+' || t.op == '-' {
			operand, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return unaryNode{op: t.op, operand: operand}, nil
		}
		return nil, &ExprError{Expr: p.expr, Msg: fmt.Sprintf("unexpected operator %q", t.op)}
	case tokLParen:
		node, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, &ExprError{Expr: p.expr, Msg: "missing closing parenthesis"}
		}
		return node, nil
	default:
		return nil, &ExprError{Expr: p.expr, Msg: "unexpected end of expression"}
	}
}
