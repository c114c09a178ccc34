package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
)

// Pin is the repository and commit a nested dependency is locked to.
type Pin struct {
	Repo   string
	Commit string
}

// DepsFile is a parsed upstream DEPS file. Only the vars and deps
// assignments are evaluated; every other statement must be syntactically
// valid but is otherwise ignored.
type DepsFile struct {
	vars        map[string]string
	deps        map[string]node
	defaultHost string
}

// ParseDeps parses a DEPS file. defaultHost is substituted for Var()
// references that the file does not define itself.
func ParseDeps(text, defaultHost string) (*DepsFile, error) {
	p := &parser{lex: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	stmts := map[string]node{}
	for p.tok.kind != tokEOF {
		name, value, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts[name] = value
	}

	d := &DepsFile{vars: map[string]string{}, defaultHost: defaultHost}

	if raw, ok := stmts["vars"]; ok {
		dict, ok := raw.(dictNode)
		if !ok {
			return nil, errors.New(errors.ErrManifestParse, "vars must be a dict")
		}
		for _, kv := range dict {
			key, ok := kv.key.(strNode)
			if !ok {
				return nil, errors.New(errors.ErrManifestParse, "vars keys must be strings")
			}
			// vars values are evaluated in isolation: they may not reference each other
			val, err := d.eval(kv.value)
			if err != nil {
				return nil, err
			}
			switch v := val.(type) {
			case string:
				d.vars[string(key)] = v
			case bool:
				d.vars[string(key)] = strconv.FormatBool(v)
			}
		}
	}

	raw, ok := stmts["deps"]
	if !ok {
		return nil, errors.New(errors.ErrManifestParse, "no deps block found")
	}
	dict, ok := raw.(dictNode)
	if !ok {
		return nil, errors.New(errors.ErrManifestParse, "deps must be a dict")
	}
	d.deps = make(map[string]node, len(dict))
	for _, kv := range dict {
		key, ok := kv.key.(strNode)
		if !ok {
			return nil, errors.New(errors.ErrManifestParse, "deps keys must be strings")
		}
		d.deps[string(key)] = kv.value
	}
	return d, nil
}

// Keys returns the dependency keys declared in the deps block.
func (d *DepsFile) Keys() []string {
	keys := make([]string, 0, len(d.deps))
	for k := range d.deps {
		keys = append(keys, k)
	}
	return keys
}

// Resolve evaluates the declaration of key into its repo@commit pin.
func (d *DepsFile) Resolve(key string) (Pin, error) {
	raw, ok := d.deps[key]
	if !ok {
		return Pin{}, errors.Newf(errors.ErrManifestParse, "dependency %q not found in DEPS", key)
	}
	val, err := d.eval(raw)
	if err != nil {
		return Pin{}, errors.Wrapf(err, errors.ErrManifestParse, "dependency %q", key)
	}

	var value string
	switch v := val.(type) {
	case string:
		value = v
	case map[string]interface{}:
		url, ok := v["url"].(string)
		if !ok {
			return Pin{}, errors.Newf(errors.ErrManifestParse, "dependency %q has no git url", key)
		}
		value = url
	default:
		return Pin{}, errors.Newf(errors.ErrManifestParse, "dependency %q has unexpected value %v", key, val)
	}

	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		return Pin{}, errors.Newf(errors.ErrManifestParse, "dependency %q is not of the form repo@commit: %q", key, value)
	}
	return Pin{Repo: value[:at], Commit: value[at+1:]}, nil
}

// ResolvePinnedCommit parses text and resolves key in one go.
func ResolvePinnedCommit(text, key, defaultHost string) (Pin, error) {
	d, err := ParseDeps(text, defaultHost)
	if err != nil {
		return Pin{}, err
	}
	return d.Resolve(key)
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

func (d *DepsFile) lookupVar(name string) (string, error) {
	if v, ok := d.vars[name]; ok {
		return v, nil
	}
	if d.defaultHost != "" {
		return d.defaultHost, nil
	}
	return "", errors.Newf(errors.ErrManifestParse, "undefined variable %q", name)
}

// expand substitutes {name} placeholders that name a defined var.
func (d *DepsFile) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := d.vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func (d *DepsFile) eval(n node) (interface{}, error) {
	switch v := n.(type) {
	case strNode:
		return d.expand(string(v)), nil
	case varNode:
		return d.lookupVar(string(v))
	case constNode:
		return v.value, nil
	case concatNode:
		var b strings.Builder
		for _, part := range v {
			val, err := d.eval(part)
			if err != nil {
				return nil, err
			}
			s, ok := val.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrManifestParse, "cannot concatenate %v", val)
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case dictNode:
		out := make(map[string]interface{}, len(v))
		for _, kv := range v {
			k, err := d.eval(kv.key)
			if err != nil {
				return nil, err
			}
			ks, ok := k.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrManifestParse, "dict key %v is not a string", k)
			}
			val, err := d.eval(kv.value)
			if err != nil {
				return nil, err
			}
			out[ks] = val
		}
		return out, nil
	case listNode:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			val, err := d.eval(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		return nil, errors.Newf(errors.ErrInternal, "unknown node %T", n)
	}
}

// AST

type node interface{}

type strNode string
type varNode string
type constNode struct{ value interface{} }
type concatNode []node
type listNode []node
type dictNode []pair

type pair struct {
	key   node
	value node
}

// Lexer

type tokKind int

const (
	tokEOF tokKind = iota
	tokString
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind tokKind
	text string
	line int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.text)
}

type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrManifestParse, "line %d: %s", l.line, fmt.Sprintf(format, args...))
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\\':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return l.token()
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

func (l *lexer) token() (token, error) {
	c := l.src[l.pos]
	start := l.pos
	switch {
	case c == '\'' || c == '"':
		s, err := l.quoted(c)
		return token{kind: tokString, text: s, line: l.line}, err
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: l.line}, nil
	case c >= '0' && c <= '9' || c == '-':
		l.pos++
		for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], line: l.line}, nil
	case strings.IndexByte("{}[]():,+=", c) >= 0:
		l.pos++
		return token{kind: tokPunct, text: string(c), line: l.line}, nil
	default:
		return token{}, l.errorf("unexpected character %q", c)
	}
}

func (l *lexer) quoted(q byte) (string, error) {
	triple := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3))
	if triple {
		l.pos += 3
	} else {
		l.pos++
	}
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case triple && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3)):
			l.pos += 3
			return b.String(), nil
		case !triple && c == q:
			l.pos++
			return b.String(), nil
		case !triple && c == '\n':
			return "", l.errorf("unterminated string")
		case c == '\\' && l.pos+1 < len(l.src):
			l.pos++
			switch e := l.src[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\n':
				l.line++
			default:
				b.WriteByte(e)
			}
			l.pos++
		default:
			if c == '\n' {
				l.line++
			}
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", l.errorf("unterminated string")
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// Parser

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrManifestParse, "line %d: %s", p.tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return p.errorf("expected %q, found %s", s, p.tok)
	}
	return p.advance()
}

// statement parses `name = expr`.
func (p *parser) statement() (string, node, error) {
	if p.tok.kind != tokIdent {
		return "", nil, p.errorf("expected assignment, found %s", p.tok)
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return "", nil, err
	}
	if err := p.expect("="); err != nil {
		return "", nil, err
	}
	value, err := p.expr()
	return name, value, err
}

// expr parses term ('+' term)*.
func (p *parser) expr() (node, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	parts := concatNode{first}
	for p.isPunct("+") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return first, nil
	}
	return parts, nil
}

func (p *parser) term() (node, error) {
	switch p.tok.kind {
	case tokString:
		// adjacent literals concatenate
		var parts concatNode
		for p.tok.kind == tokString {
			parts = append(parts, strNode(p.tok.text))
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return parts, nil
	case tokNumber:
		text := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(text); err == nil {
			return constNode{n}, nil
		}
		return constNode{text}, nil
	case tokIdent:
		return p.identTerm()
	case tokPunct:
		switch p.tok.text {
		case "{":
			return p.dict()
		case "[":
			return p.list()
		case "(":
			if err := p.advance(); err != nil {
				return nil, err
			}
			inner, err := p.expr()
			if err != nil {
				return nil, err
			}
			return inner, p.expect(")")
		}
	}
	return nil, p.errorf("unexpected %s", p.tok)
}

func (p *parser) identTerm() (node, error) {
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch name {
	case "True":
		return constNode{true}, nil
	case "False":
		return constNode{false}, nil
	case "None":
		return constNode{nil}, nil
	case "Var", "Str":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		if p.tok.kind != tokString {
			return nil, p.errorf("%s() takes a string literal, found %s", name, p.tok)
		}
		arg := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		if name == "Var" {
			return varNode(arg), nil
		}
		return strNode(arg), nil
	}
	return nil, p.errorf("unsupported identifier %q", name)
}

func (p *parser) dict() (node, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var d dictNode
	for !p.isPunct("}") {
		key, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		d = append(d, pair{key: key, value: value})
		if !p.isPunct(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return d, p.expect("}")
}

func (p *parser) list() (node, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var l listNode
	for !p.isPunct("]") {
		item, err := p.expr()
		if err != nil {
			return nil, err
		}
		l = append(l, item)
		if !p.isPunct(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return l, p.expect("]")
}
