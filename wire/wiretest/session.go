package wiretest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/grafana/xk6-webdriver/wire"
)

var errUnknownCommand = errors.New("unknown command")

type session struct {
	srv *Server
	id  string

	doc     *goquery.Document
	history []string
	pos     int

	refs    map[string]*html.Node
	ids     map[*html.Node]string
	nextRef int

	alert *openAlert
}

type openAlert struct {
	kind  string
	text  string
	typed string
	run   *scriptRun
}

func newSession(srv *Server, id string) *session {
	ss := &session{
		srv:     srv,
		id:      id,
		history: []string{"about:blank"},
		refs:    make(map[string]*html.Node),
		ids:     make(map[*html.Node]string),
	}
	ss.load("about:blank")
	return ss
}

func (ss *session) load(url string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ss.srv.page(url)))
	if err != nil {
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	ss.doc = doc
}

func (ss *session) root() *html.Node {
	return ss.doc.Nodes[0]
}

func (ss *session) shutdown() {
	for ss.alert != nil {
		_ = ss.closeAlert(false)
	}
}

//nolint:cyclop
func (ss *session) handle(method string, segs []string, body []byte) (any, error) {
	cmd := method + " " + strings.Join(segs, "/")

	switch cmd {
	case "GET alert_text":
		if ss.alert == nil {
			return nil, noAlert()
		}
		return ss.alert.text, nil
	case "POST alert_text":
		if ss.alert == nil {
			return nil, noAlert()
		}
		ss.alert.typed = gjson.GetBytes(body, "text").String()
		return nil, nil
	case "POST accept_alert":
		return nil, ss.closeAlert(true)
	case "POST dismiss_alert":
		return nil, ss.closeAlert(false)
	}

	if ss.alert != nil {
		return nil, wire.NewError(wire.StatusUnexpectedAlertOpen, "unexpected alert open: "+ss.alert.text)
	}

	switch cmd {
	case "POST url":
		ss.navigate(gjson.GetBytes(body, "url").String())
		return nil, nil
	case "GET url":
		return ss.history[ss.pos], nil
	case "GET title":
		return ss.doc.Find("title").First().Text(), nil
	case "GET source":
		return goquery.OuterHtml(ss.doc.Selection)
	case "POST back":
		if ss.pos > 0 {
			ss.pos--
			ss.load(ss.history[ss.pos])
		}
		return nil, nil
	case "POST forward":
		if ss.pos < len(ss.history)-1 {
			ss.pos++
			ss.load(ss.history[ss.pos])
		}
		return nil, nil
	case "POST refresh":
		ss.load(ss.history[ss.pos])
		return nil, nil
	case "GET screenshot":
		return ss.srv.screenshot, nil
	case "DELETE cookie":
		return nil, nil
	case "POST execute":
		return ss.execute(body)
	case "POST element":
		return ss.findOne(ss.root(), body)
	case "POST elements":
		return ss.findAll(ss.root(), body)
	}

	if len(segs) >= 3 && segs[0] == "element" {
		return ss.handleElement(method, segs[1], segs[2:], body)
	}

	return nil, errUnknownCommand
}

//nolint:cyclop
func (ss *session) handleElement(method, ref string, rest []string, body []byte) (any, error) {
	n, err := ss.node(ref)
	if err != nil {
		return nil, err
	}

	switch cmd := method + " " + strings.Join(rest, "/"); {
	case cmd == "POST element":
		return ss.findOne(n, body)
	case cmd == "POST elements":
		return ss.findAll(n, body)
	case cmd == "GET name":
		return n.Data, nil
	case cmd == "GET text":
		return visibleText(n), nil
	case cmd == "GET enabled":
		return !hasAttr(n, "disabled"), nil
	case cmd == "GET displayed":
		return displayed(n), nil
	case cmd == "GET selected":
		return selected(n), nil
	case method == "GET" && len(rest) == 2 && rest[0] == "attribute":
		if v, ok := property(n, rest[1]); ok {
			return v, nil
		}
		return nil, nil
	case cmd == "POST click":
		return nil, ss.click(n)
	case cmd == "POST value":
		var keys strings.Builder
		for _, k := range gjson.GetBytes(body, "value").Array() {
			keys.WriteString(k.String())
		}
		return nil, ss.typeInto(n, keys.String())
	case cmd == "POST clear":
		return nil, ss.clear(n)
	}

	return nil, errUnknownCommand
}

func (ss *session) navigate(url string) {
	ss.history = append(ss.history[:ss.pos+1], url)
	ss.pos++
	ss.load(url)
}

func (ss *session) closeAlert(accept bool) error {
	a := ss.alert
	if a == nil {
		return noAlert()
	}
	ss.alert = nil
	a.run.answers <- alertAnswer{accept: accept, text: a.typed}
	// errors thrown by the page once it resumes don't concern the client
	_, _ = ss.await(a.run)
	return nil
}

func noAlert() error {
	return wire.NewError(wire.StatusNoAlertOpenError, "no alert open")
}

// ref returns the reference id of n, assigning one on first sight.
func (ss *session) ref(n *html.Node) string {
	if id, ok := ss.ids[n]; ok {
		return id
	}
	ss.nextRef++
	id := strconv.Itoa(ss.nextRef)
	ss.ids[n] = id
	ss.refs[id] = n
	return id
}

func (ss *session) node(ref string) (*html.Node, error) {
	n, ok := ss.refs[ref]
	if !ok || !attached(ss.root(), n) {
		return nil, wire.NewError(wire.StatusStaleElementReference,
			fmt.Sprintf("element %s is no longer attached to the DOM", ref))
	}
	return n, nil
}

func (ss *session) find(scope *html.Node, body []byte) ([]*html.Node, error) {
	using := gjson.GetBytes(body, "using").String()
	value := gjson.GetBytes(body, "value").String()

	switch using {
	case "css selector":
		sel, err := cascadia.Compile(value)
		if err != nil {
			return nil, wire.NewError(wire.StatusInvalidSelector, fmt.Sprintf("invalid selector %q: %v", value, err))
		}
		return goquery.NewDocumentFromNode(scope).FindMatcher(sel).Nodes, nil
	case "xpath":
		expr, err := parseXPath(value)
		if err != nil {
			return nil, wire.NewError(wire.StatusInvalidSelector, fmt.Sprintf("invalid xpath %q: %v", value, err))
		}
		return expr.evaluate(ss.root(), scope), nil
	default:
		return nil, wire.NewError(wire.StatusInvalidSelector, fmt.Sprintf("unsupported locator strategy %q", using))
	}
}

func (ss *session) findOne(scope *html.Node, body []byte) (any, error) {
	nodes, err := ss.find(scope, body)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, wire.NewError(wire.StatusNoSuchElement, fmt.Sprintf(
			"Unable to locate element: {%q: %q}",
			gjson.GetBytes(body, "using").String(), gjson.GetBytes(body, "value").String(),
		))
	}
	return wire.ElementRef(ss.ref(nodes[0])), nil
}

func (ss *session) findAll(scope *html.Node, body []byte) (any, error) {
	nodes, err := ss.find(scope, body)
	if err != nil {
		return nil, err
	}
	refs := make([]any, 0, len(nodes))
	for _, n := range nodes {
		refs = append(refs, wire.ElementRef(ss.ref(n)))
	}
	return refs, nil
}

func (ss *session) click(n *html.Node) error {
	if !displayed(n) {
		return wire.NewError(wire.StatusElementNotVisible, "element is not currently visible")
	}
	if hasAttr(n, "disabled") {
		return nil
	}

	switch {
	case n.Data == "option":
		selectOption(n)
	case n.Data == "input" && attr(n, "type") == "checkbox":
		if hasAttr(n, "checked") {
			removeAttr(n, "checked")
		} else {
			setAttr(n, "checked", "checked")
		}
	case n.Data == "input" && attr(n, "type") == "radio":
		name := attr(n, "name")
		for _, other := range elements(ss.root()) {
			if other.Data == "input" && attr(other, "type") == "radio" && attr(other, "name") == name {
				removeAttr(other, "checked")
			}
		}
		setAttr(n, "checked", "checked")
	}

	if onclick, ok := getAttr(n, "onclick"); ok {
		_, err := ss.runScript(onclick, n, nil)
		return err
	}
	return nil
}

func (ss *session) typeInto(n *html.Node, keys string) error {
	if !displayed(n) {
		return wire.NewError(wire.StatusElementNotVisible, "element is not currently visible")
	}
	if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
		return wire.NewError(wire.StatusInvalidElementState, "element is disabled or read-only")
	}

	switch n.Data {
	case "select":
		for _, opt := range elements(n) {
			if opt.Data == "option" && strings.HasPrefix(strings.ToLower(visibleText(opt)), strings.ToLower(keys)) {
				selectOption(opt)
				break
			}
		}
	case "textarea":
		setTextContent(n, applyKeys(textContent(n), keys, true))
	default:
		setAttr(n, "value", applyKeys(attr(n, "value"), keys, false))
	}
	return nil
}

func (ss *session) clear(n *html.Node) error {
	if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
		return wire.NewError(wire.StatusInvalidElementState, "element is disabled or read-only")
	}
	if n.Data == "textarea" {
		setTextContent(n, "")
		return nil
	}
	setAttr(n, "value", "")
	return nil
}

func (ss *session) execute(body []byte) (any, error) {
	raw := gjson.GetBytes(body, "args").Raw
	if raw == "" {
		raw = "[]"
	}
	args, err := wire.Decode([]byte(raw))
	if err != nil {
		return nil, wire.NewError(wire.StatusJavaScriptError, "invalid script arguments: "+err.Error())
	}
	list, _ := args.([]any)

	return ss.runScript(gjson.GetBytes(body, "script").String(), nil, list)
}

// applyKeys types keys into value. Backspace deletes the last character,
// the other special keys in the private use area are ignored.
func applyKeys(value, keys string, multiline bool) string {
	out := []rune(value)
	for _, r := range keys {
		switch {
		case r == '\ue003':
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case r == '\ue00d':
			out = append(out, ' ')
		case r == '\ue006' || r == '\ue007':
			if multiline {
				out = append(out, '\n')
			}
		case r >= '\ue000' && r <= '\ue03d':
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
