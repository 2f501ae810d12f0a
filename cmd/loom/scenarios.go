package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/vdom"
)

// scenario is a runnable demo: a root component and a script of user
// interactions against its rendered document.
type scenario struct {
	name        string
	description string
	root        *component.Definition
	steps       []step
}

type step struct {
	label string
	run   func(app *component.App, doc *dom.Node) error
}

var scenarios = map[string]func() *scenario{
	"counter": counterScenario,
	"todo":    todoScenario,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupScenario(name string) (*scenario, error) {
	build, ok := scenarios[name]
	if !ok {
		return nil, errors.New("E160").WithDetail(fmt.Sprintf("unknown demo %q (available: %v)", name, scenarioNames()))
	}
	return build(), nil
}

func trigger(event, id, value string) step {
	label := event + " #" + id
	if value != "" {
		label += " " + strconv.Quote(value)
	}
	return step{
		label: label,
		run: func(app *component.App, doc *dom.Node) error {
			el := doc.ByID(id)
			if el == nil {
				return fmt.Errorf("no element #%s", id)
			}
			return app.Trigger(el, event, value)
		},
	}
}

func click(id string) step { return trigger("click", id, "") }

func input(id, value string) step { return trigger("input", id, value) }

func counterScenario() *scenario {
	Counter := component.Define("Counter", func(c *component.Node) component.RenderFunc {
		rt := c.Runtime()
		count := reactive.NewSignal(rt, 0).WithLabel("count")
		double := reactive.NewMemo(rt, func() int { return count.Get() * 2 }).WithLabel("double")
		c.OnWillDestroy(double.Dispose)

		return func() *vdom.VNode {
			return vdom.Div(vdom.ID("counter"),
				vdom.P(vdom.Textf("count=%d double=%d", count.Get(), double.Get())),
				vdom.Button(vdom.ID("inc"), vdom.OnClick(func() {
					count.Update(func(n int) int { return n + 1 })
				}), "+"),
				vdom.Button(vdom.ID("reset"), vdom.OnClick(func() { count.Set(0) }), "reset"),
			)
		}
	})

	return &scenario{
		name:        "counter",
		description: "a signal, a derived memo and two buttons",
		root:        Counter,
		steps:       []step{click("inc"), click("inc"), click("inc"), click("reset")},
	}
}

type todo struct {
	ID   int
	Text string
	Done bool
}

func todoScenario() *scenario {
	TodoItem := component.Static("TodoItem", func(c *component.Node) *vdom.VNode {
		text, _ := c.Prop("text").(string)
		done, _ := c.Prop("done").(bool)
		key := c.Key()
		return vdom.Li(vdom.ID("item-"+key), vdom.ClassIf(done, "done"),
			vdom.Span(text),
			vdom.Button(vdom.ID("toggle-"+key), vdom.OnClick(c.Prop("onToggle")), "toggle"),
			vdom.Button(vdom.ID("remove-"+key), vdom.OnClick(c.Prop("onRemove")), "remove"),
		)
	})

	TodoApp := component.Define("TodoApp", func(c *component.Node) component.RenderFunc {
		rt := c.Runtime()
		items := reactive.NewList[todo](rt).WithLabel("todos")
		draft := reactive.NewSignal(rt, "").WithLabel("draft")
		nextID := 1
		remaining := reactive.NewMemo(rt, func() int {
			n := 0
			for _, it := range items.Values() {
				if !it.Done {
					n++
				}
			}
			return n
		}).WithLabel("remaining")
		c.OnWillDestroy(remaining.Dispose)

		index := func(id int) int {
			for i, it := range items.Peek() {
				if it.ID == id {
					return i
				}
			}
			return -1
		}
		add := func() {
			text := draft.Peek()
			if text == "" {
				return
			}
			rt.Batch(func() {
				items.Append(todo{ID: nextID, Text: text})
				draft.Set("")
			})
			nextID++
		}

		return func() *vdom.VNode {
			children := vdom.Range(items.Values(), func(it todo, _ int) *vdom.VNode {
				id := it.ID
				return TodoItem.Keyed(strconv.Itoa(id), vdom.Props{
					"text": it.Text,
					"done": it.Done,
					"onToggle": func() {
						if i := index(id); i >= 0 {
							cur := items.At(i)
							cur.Done = !cur.Done
							items.SetAt(i, cur)
						}
					},
					"onRemove": func() {
						if i := index(id); i >= 0 {
							items.RemoveAt(i)
						}
					},
				})
			})
			return vdom.Section(vdom.ID("todos"),
				vdom.Input(vdom.ID("new"), vdom.Value(draft.Get()), vdom.OnInput(func(v string) { draft.Set(v) })),
				vdom.Button(vdom.ID("add"), vdom.OnClick(add), "add"),
				vdom.Ul(children),
				vdom.P(vdom.Textf("%d remaining", remaining.Get())),
			)
		}
	})

	return &scenario{
		name:        "todo",
		description: "a keyed list with per-item components",
		root:        TodoApp,
		steps: []step{
			input("new", "write docs"),
			click("add"),
			input("new", "ship release"),
			click("add"),
			input("new", "celebrate"),
			click("add"),
			click("toggle-1"),
			click("remove-2"),
		},
	}
}
