package wiretest

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, name string) string {
	v, _ := getAttr(n, name)
	return v
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := getAttr(n, name)
	return ok
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != name {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

// elements returns the element descendants of n in document order.
func elements(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attached(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// displayed approximates visibility from markup alone: hidden attributes,
// inline display:none styles, hidden inputs and anything in the head.
func displayed(n *html.Node) bool {
	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		return false
	}
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if p.DataAtom == atom.Head || hasAttr(p, "hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(attr(p, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func setTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// firstText returns the first text node child of n, which is what the XPath
// text() function yields when converted to a string.
func firstText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data
		}
	}
	return ""
}

//nolint:gochecknoglobals
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// visibleText renders the text of n the way a browser reports it: hidden
// parts left out, whitespace collapsed, block elements on lines of their own.
func visibleText(n *html.Node) string {
	if n.Type == html.ElementNode && !displayed(n) {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		switch p.Type {
		case html.TextNode:
			sb.WriteString(p.Data)
			return
		case html.ElementNode:
			if p.DataAtom == atom.Script || p.DataAtom == atom.Style || !displayed(p) {
				return
			}
		}
		block := blockElements[p.DataAtom]
		if block {
			sb.WriteByte('\n')
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func selected(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Option:
		return hasAttr(n, "selected")
	case atom.Input:
		return hasAttr(n, "checked")
	default:
		return false
	}
}

// selectOption selects opt, deselecting its siblings unless the enclosing
// select allows multiple choices.
func selectOption(opt *html.Node) {
	var sel *html.Node
	for p := opt.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Select {
			sel = p
			break
		}
	}
	if sel != nil && hasAttr(sel, "multiple") {
		if hasAttr(opt, "selected") {
			removeAttr(opt, "selected")
		} else {
			setAttr(opt, "selected", "selected")
		}
		return
	}
	if sel != nil {
		for _, o := range elements(sel) {
			if o.DataAtom == atom.Option {
				removeAttr(o, "selected")
			}
		}
	}
	setAttr(opt, "selected", "selected")
}

//nolint:gochecknoglobals
var booleanAttributes = map[string]bool{
	"checked": true, "selected": true, "disabled": true, "readonly": true,
	"hidden": true, "multiple": true, "required": true,
}

// property answers the attribute command: boolean attributes read as "true"
// when present, a textarea's value is its content.
func property(n *html.Node, name string) (string, bool) {
	if booleanAttributes[name] {
		if hasAttr(n, name) {
			return "true", true
		}
		return "", false
	}
	if name == "value" && n.DataAtom == atom.Textarea {
		return textContent(n), true
	}
	return getAttr(n, name)
}
