package wiretest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// The XPath subset understood by the server: absolute ("/", "//") and
// relative ("./", ".//") location paths of element name tests ("li", "*"),
// each with any number of predicates among
//
//	[3] [last()] [@attr] [@attr=LIT] [text()=LIT]
//	[contains(text(),LIT)] [contains(.,LIT)] [normalize-space()=LIT]
//
// where LIT is a quoted literal or a concat() of quoted literals.

type xpathPredicate func(n *html.Node, pos, size int) bool

type xpathStep struct {
	descendant bool
	name       string
	predicates []xpathPredicate
}

type xpathExpr struct {
	relative bool
	steps    []xpathStep
}

var errXPathEOF = errors.New("unexpected end of expression")

func parseXPath(expr string) (*xpathExpr, error) {
	p := &xpathParser{s: strings.TrimSpace(expr)}
	e := &xpathExpr{}

	var descendant bool
	switch {
	case p.consume(".//"):
		e.relative, descendant = true, true
	case p.consume("./"):
		e.relative = true
	case p.consume("//"):
		descendant = true
	case p.consume("/"):
	default:
		e.relative = true
	}

	for {
		st, err := p.step(descendant)
		if err != nil {
			return nil, err
		}
		e.steps = append(e.steps, st)

		p.skipSpace()
		switch {
		case p.eof():
			return e, nil
		case p.consume("//"):
			descendant = true
		case p.consume("/"):
			descendant = false
		default:
			return nil, p.unexpected()
		}
	}
}

// evaluate returns the matching nodes in document order. Absolute paths
// start at root whatever the scope.
func (e *xpathExpr) evaluate(root, scope *html.Node) []*html.Node {
	ctx := []*html.Node{root}
	if e.relative {
		ctx = []*html.Node{scope}
	}

	for _, st := range e.steps {
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, c := range ctx {
			parents := []*html.Node{c}
			if st.descendant {
				parents = append(parents, elements(c)...)
			}
			for _, parent := range parents {
				for _, n := range st.match(parent) {
					if !seen[n] {
						seen[n] = true
						next = append(next, n)
					}
				}
			}
		}
		ctx = inDocumentOrder(root, next)
	}

	return ctx
}

func (st xpathStep) match(parent *html.Node) []*html.Node {
	var cands []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (st.name == "*" || c.Data == st.name) {
			cands = append(cands, c)
		}
	}
	for _, pred := range st.predicates {
		var kept []*html.Node
		for i, n := range cands {
			if pred(n, i+1, len(cands)) {
				kept = append(kept, n)
			}
		}
		cands = kept
	}
	return cands
}

func inDocumentOrder(root *html.Node, nodes []*html.Node) []*html.Node {
	if len(nodes) < 2 {
		return nodes
	}
	index := make(map[*html.Node]int)
	for i, n := range elements(root) {
		index[n] = i
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return index[nodes[i]] < index[nodes[j]]
	})
	return nodes
}

type xpathParser struct {
	s   string
	pos int
}

func (p *xpathParser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *xpathParser) consume(tok string) bool {
	if strings.HasPrefix(p.s[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *xpathParser) expect(tok string) error {
	p.skipSpace()
	if !p.consume(tok) {
		return p.unexpected()
	}
	return nil
}

func (p *xpathParser) skipSpace() {
	for !p.eof() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *xpathParser) unexpected() error {
	if p.eof() {
		return errXPathEOF
	}
	return fmt.Errorf("unexpected %q at offset %d", p.s[p.pos:], p.pos)
}

func (p *xpathParser) name() string {
	if p.consume("*") {
		return "*"
	}
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if c == '-' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	return p.s[start:p.pos]
}

func (p *xpathParser) step(descendant bool) (xpathStep, error) {
	st := xpathStep{descendant: descendant, name: p.name()}
	if st.name == "" {
		return st, p.unexpected()
	}
	for {
		p.skipSpace()
		if !p.consume("[") {
			return st, nil
		}
		pred, err := p.predicate()
		if err != nil {
			return st, err
		}
		if err := p.expect("]"); err != nil {
			return st, err
		}
		st.predicates = append(st.predicates, pred)
	}
}

//nolint:cyclop
func (p *xpathParser) predicate() (xpathPredicate, error) {
	p.skipSpace()
	switch {
	case !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9':
		start := p.pos
		for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		want, _ := strconv.Atoi(p.s[start:p.pos])
		return func(_ *html.Node, pos, _ int) bool { return pos == want }, nil

	case p.consume("last()"):
		return func(_ *html.Node, pos, size int) bool { return pos == size }, nil

	case p.consume("contains("):
		p.skipSpace()
		var value func(*html.Node) string
		switch {
		case p.consume("text()"):
			value = firstText
		case p.consume("."):
			value = textContent
		default:
			return nil, p.unexpected()
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return func(n *html.Node, _, _ int) bool { return strings.Contains(value(n), lit) }, nil

	case p.consume("text()"):
		lit, err := p.equalsLiteral()
		if err != nil {
			return nil, err
		}
		return func(n *html.Node, _, _ int) bool { return firstText(n) == lit }, nil

	case p.consume("normalize-space()"):
		lit, err := p.equalsLiteral()
		if err != nil {
			return nil, err
		}
		return func(n *html.Node, _, _ int) bool {
			return strings.Join(strings.Fields(textContent(n)), " ") == lit
		}, nil

	case p.consume("@"):
		name := p.name()
		if name == "" || name == "*" {
			return nil, p.unexpected()
		}
		p.skipSpace()
		if !p.consume("=") {
			return func(n *html.Node, _, _ int) bool { return hasAttr(n, name) }, nil
		}
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		return func(n *html.Node, _, _ int) bool {
			v, ok := getAttr(n, name)
			return ok && v == lit
		}, nil
	}

	return nil, p.unexpected()
}

func (p *xpathParser) equalsLiteral() (string, error) {
	if err := p.expect("="); err != nil {
		return "", err
	}
	return p.literal()
}

func (p *xpathParser) literal() (string, error) {
	p.skipSpace()
	if p.consume("concat(") {
		var sb strings.Builder
		for {
			part, err := p.literal()
			if err != nil {
				return "", err
			}
			sb.WriteString(part)
			p.skipSpace()
			if p.consume(",") {
				continue
			}
			if err := p.expect(")"); err != nil {
				return "", err
			}
			return sb.String(), nil
		}
	}

	if p.eof() {
		return "", errXPathEOF
	}
	quote := p.s[p.pos]
	if quote != '\'' && quote != '"' {
		return "", p.unexpected()
	}
	end := strings.IndexByte(p.s[p.pos+1:], quote)
	if end < 0 {
		return "", fmt.Errorf("unterminated literal at offset %d", p.pos)
	}
	lit := p.s[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return lit, nil
}
