package wiretest

import (
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/dop251/goja"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/grafana/xk6-webdriver/wire"
)

// A script runs on its own goroutine so that alert, confirm and prompt can
// block it until the client answers the dialog. It only ever runs while a
// request handler holding the server lock waits for it in await.
type scriptRun struct {
	answers chan alertAnswer
	events  chan scriptEvent
}

type alertAnswer struct {
	accept bool
	text   string
}

type scriptEvent struct {
	done  bool
	value any
	err   error

	// set when a dialog opened
	kind string
	text string
}

// runScript runs body as a function with this bound to thisNode and args as
// its arguments. It returns once the script finishes or opens a dialog.
func (ss *session) runScript(body string, thisNode *html.Node, args []any) (any, error) {
	run := &scriptRun{
		answers: make(chan alertAnswer),
		events:  make(chan scriptEvent),
	}
	go func() {
		v, err := ss.evalScript(run, body, thisNode, args)
		run.events <- scriptEvent{done: true, value: v, err: err}
	}()
	return ss.await(run)
}

func (ss *session) await(run *scriptRun) (any, error) {
	ev := <-run.events
	if ev.done {
		return ev.value, ev.err
	}
	ss.alert = &openAlert{kind: ev.kind, text: ev.text, run: run}
	return nil, nil
}

func (ss *session) evalScript(run *scriptRun, body string, thisNode *html.Node, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if werr, ok := r.(*wire.Error); ok {
				v, err = nil, werr
				return
			}
			panic(r)
		}
	}()

	rt := goja.New()
	b := &bindings{
		ss:       ss,
		rt:       rt,
		wrappers: make(map[*html.Node]*goja.Object),
		nodes:    make(map[*goja.Object]*html.Node),
	}
	b.install(run)

	jsArgs := make([]any, 0, len(args))
	for _, a := range args {
		jsArgs = append(jsArgs, b.toJS(a))
	}
	if err := rt.Set("__args", rt.NewArray(jsArgs...)); err != nil {
		return nil, wire.NewError(wire.StatusJavaScriptError, err.Error())
	}
	if err := rt.Set("__this", b.wrap(thisNode)); err != nil {
		return nil, wire.NewError(wire.StatusJavaScriptError, err.Error())
	}

	res, err := rt.RunString("(function() {\n" + body + "\n}).apply(__this, __args)")
	if err != nil {
		return nil, wire.NewError(wire.StatusJavaScriptError, err.Error())
	}

	return b.fromJS(res), nil
}

type bindings struct {
	ss       *session
	rt       *goja.Runtime
	wrappers map[*html.Node]*goja.Object
	nodes    map[*goja.Object]*html.Node
}

func (b *bindings) install(run *scriptRun) {
	dialog := func(kind string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			text := ""
			if arg := call.Argument(0); !goja.IsUndefined(arg) {
				text = arg.String()
			}
			run.events <- scriptEvent{kind: kind, text: text}
			ans := <-run.answers

			switch kind {
			case "confirm":
				return b.rt.ToValue(ans.accept)
			case "prompt":
				if !ans.accept {
					return goja.Null()
				}
				if ans.text == "" && !goja.IsUndefined(call.Argument(1)) {
					return call.Argument(1)
				}
				return b.rt.ToValue(ans.text)
			default:
				return goja.Undefined()
			}
		}
	}
	_ = b.rt.Set("alert", dialog("alert"))
	_ = b.rt.Set("confirm", dialog("confirm"))
	_ = b.rt.Set("prompt", dialog("prompt"))

	doc := b.rt.NewObject()
	root := b.ss.root()
	_ = doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		for _, n := range elements(root) {
			if attr(n, "id") == id {
				return b.wrap(n)
			}
		}
		return goja.Null()
	})
	_ = doc.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return b.querySelector(root, call.Argument(0).String())
	})
	_ = doc.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.querySelectorAll(root, call.Argument(0).String())
	})
	_ = doc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		tag := strings.ToLower(call.Argument(0).String())
		return b.wrap(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))})
	})
	b.accessor(doc, "title", func() goja.Value {
		return b.rt.ToValue(b.ss.doc.Find("title").First().Text())
	}, nil)
	b.accessor(doc, "body", func() goja.Value {
		return b.wrap(b.ss.doc.Find("body").Get(0))
	}, nil)
	_ = b.rt.Set("document", doc)
}

func (b *bindings) accessor(o *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := b.rt.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = b.rt.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	_ = o.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

func (b *bindings) querySelector(scope *html.Node, selector string) goja.Value {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		panic(b.rt.NewTypeError("invalid selector " + strconv.Quote(selector)))
	}
	for _, n := range elements(scope) {
		if sel.Match(n) {
			return b.wrap(n)
		}
	}
	return goja.Null()
}

func (b *bindings) querySelectorAll(scope *html.Node, selector string) goja.Value {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		panic(b.rt.NewTypeError("invalid selector " + strconv.Quote(selector)))
	}
	var found []any
	for _, n := range elements(scope) {
		if sel.Match(n) {
			found = append(found, b.wrap(n))
		}
	}
	return b.rt.NewArray(found...)
}

// wrap returns the script object standing for n. The same node always maps
// to the same object.
func (b *bindings) wrap(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if o, ok := b.wrappers[n]; ok {
		return o
	}

	o := b.rt.NewObject()
	b.wrappers[n] = o
	b.nodes[o] = n

	b.accessor(o, "tagName", func() goja.Value {
		return b.rt.ToValue(strings.ToUpper(n.Data))
	}, nil)
	b.accessor(o, "id", func() goja.Value {
		return b.rt.ToValue(attr(n, "id"))
	}, func(v goja.Value) {
		setAttr(n, "id", v.String())
	})
	b.accessor(o, "textContent", func() goja.Value {
		return b.rt.ToValue(textContent(n))
	}, func(v goja.Value) {
		setTextContent(n, v.String())
	})
	b.accessor(o, "value", func() goja.Value {
		if n.DataAtom == atom.Textarea {
			return b.rt.ToValue(textContent(n))
		}
		return b.rt.ToValue(attr(n, "value"))
	}, func(v goja.Value) {
		if n.DataAtom == atom.Textarea {
			setTextContent(n, v.String())
			return
		}
		setAttr(n, "value", v.String())
	})
	b.accessor(o, "parentNode", func() goja.Value {
		if n.Parent == nil || n.Parent.Type != html.ElementNode {
			return goja.Null()
		}
		return b.wrap(n.Parent)
	}, nil)

	_ = o.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := getAttr(n, call.Argument(0).String()); ok {
			return b.rt.ToValue(v)
		}
		return goja.Null()
	})
	_ = o.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		setAttr(n, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = o.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		removeAttr(n, call.Argument(0).String())
		return goja.Undefined()
	})
	_ = o.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child, ok := b.nodes[call.Argument(0).ToObject(b.rt)]
		if !ok {
			panic(b.rt.NewTypeError("appendChild: argument is not a node"))
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		n.AppendChild(child)
		return call.Argument(0)
	})
	_ = o.Set("remove", func(goja.FunctionCall) goja.Value {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return goja.Undefined()
	})
	_ = o.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return b.querySelector(n, call.Argument(0).String())
	})
	_ = o.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.querySelectorAll(n, call.Argument(0).String())
	})

	return o
}

// toJS converts a decoded script argument. Element references become the
// script objects of their nodes.
func (b *bindings) toJS(v any) goja.Value {
	if id, ok := wire.ElementID(v); ok {
		n, err := b.ss.node(id)
		if err != nil {
			panic(err)
		}
		return b.wrap(n)
	}

	switch v := v.(type) {
	case []any:
		items := make([]any, 0, len(v))
		for _, e := range v {
			items = append(items, b.toJS(e))
		}
		return b.rt.NewArray(items...)
	case *wire.Object:
		o := b.rt.NewObject()
		v.Range(func(k string, e any) bool {
			_ = o.Set(k, b.toJS(e))
			return true
		})
		return o
	case nil:
		return goja.Null()
	default:
		return b.rt.ToValue(v)
	}
}

// fromJS converts a script result to a wire value. Node objects become
// element references.
func (b *bindings) fromJS(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}

	o, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case int64:
			return float64(x)
		default:
			return x
		}
	}

	if n, ok := b.nodes[o]; ok {
		return wire.ElementRef(b.ss.ref(n))
	}
	switch o.ClassName() {
	case "Array":
		length := int(o.Get("length").ToInteger())
		items := make([]any, 0, length)
		for i := 0; i < length; i++ {
			items = append(items, b.fromJS(o.Get(strconv.Itoa(i))))
		}
		return items
	case "Function":
		return nil
	}

	obj := wire.NewObject()
	for _, k := range o.Keys() {
		obj.Set(k, b.fromJS(o.Get(k)))
	}
	return obj
}
