package vdom

import "testing"

type testComp struct{ name string }

func (c *testComp) ComponentName() string { return c.name }

func TestCreateElement(t *testing.T) {
	handler := func() {}
	node := Div(
		ID("main"),
		Class("a"),
		Class("b"),
		ClassIf(false, "never"),
		Key("k1"),
		OnClick(handler),
		nil,
		"hello",
		[]*VNode{Span(), nil},
		H1(Text("Title")),
	)

	if node.Kind != KindElement || node.Tag != "div" {
		t.Fatalf("node = %v %q", node.Kind, node.Tag)
	}
	if node.Props["id"] != "main" {
		t.Errorf("id = %v", node.Props["id"])
	}
	if node.Props["class"] != "a b" {
		t.Errorf("class = %q, want merged classes", node.Props["class"])
	}
	if node.Key != "k1" {
		t.Errorf("Key = %q", node.Key)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key must not be stored as an attribute")
	}
	if !node.IsInteractive() || node.Handler("click") == nil {
		t.Error("click handler missing")
	}
	if len(node.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(node.Children))
	}
	if node.Children[0].Kind != KindText || node.Children[0].Text != "hello" {
		t.Errorf("first child = %+v", node.Children[0])
	}
}

func TestFragmentAndHelpers(t *testing.T) {
	f := Fragment("a", nil, Text("b"), Range([]int{1, 2}, func(i, _ int) *VNode {
		return Textf("%d", i)
	}))
	if len(f.Children) != 4 {
		t.Errorf("fragment children = %d, want 4", len(f.Children))
	}
	if If(false, Div()) != nil || If(true, Span()).Tag != "span" {
		t.Error("If misbehaves")
	}
	if got := El("x-widget", AttrOf("data-n", 1)); got.Tag != "x-widget" || got.Props["data-n"] != 1 {
		t.Errorf("El() = %+v", got)
	}
	if !IsVoidElement("input") || IsVoidElement("div") {
		t.Error("IsVoidElement wrong")
	}
}

func TestChildCopiesProps(t *testing.T) {
	comp := &testComp{name: "Item"}
	props := Props{"n": 1}
	ph := KeyedChild(comp, "x", props)
	props["n"] = 2

	if ph.Kind != KindComponent || ph.Comp != comp || ph.Key != "x" {
		t.Fatalf("placeholder = %+v", ph)
	}
	if ph.Props["n"] != 1 {
		t.Error("props were not copied")
	}
}

func TestPlaceholders(t *testing.T) {
	a, b := &testComp{"A"}, &testComp{"B"}
	tree := Div(
		Child(a, nil),
		Ul(Li(Child(b, nil))),
		Fragment(KeyedChild(a, "2", nil)),
	)
	got := Placeholders(tree)
	if len(got) != 3 || got[0].Comp != a || got[1].Comp != b || got[2].Key != "2" {
		t.Errorf("Placeholders() = %+v", got)
	}
}

func TestShallowEqual(t *testing.T) {
	s := []int{1}
	fn := func() {}
	tests := []struct {
		name string
		a, b Props
		want bool
	}{
		{"empty", nil, Props{}, true},
		{"same scalars", Props{"a": 1, "b": "x"}, Props{"a": 1, "b": "x"}, true},
		{"different value", Props{"a": 1}, Props{"a": 2}, false},
		{"missing key", Props{"a": 1}, Props{"b": 1}, false},
		{"same slice", Props{"s": s}, Props{"s": s}, true},
		{"equal but distinct slices", Props{"s": []int{1}}, Props{"s": []int{1}}, false},
		{"function", Props{"f": fn}, Props{"f": fn}, false},
		{"nil vs value", Props{"a": nil}, Props{"a": 1}, false},
		{"value vs nil", Props{"a": []int{}}, Props{"a": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShallowEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ShallowEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffBothNil(t *testing.T) {
	if patches := Diff(nil, nil); len(patches) != 0 {
		t.Errorf("Expected 0 patches, got %d", len(patches))
	}
}

func TestDiffTextChange(t *testing.T) {
	patches := Diff(Div(Text("Hello")), Div(Text("World")))

	if len(patches) != 1 {
		t.Fatalf("Expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Op != PatchSetText || p.Path != "0" || p.Value != "World" {
		t.Errorf("patch = %+v", p)
	}
}

func TestDiffUnchanged(t *testing.T) {
	build := func() *VNode {
		return Div(Class("x"), OnClick(func() {}), P(Text("a")), Span(Text("b")))
	}
	if patches := Diff(build(), build()); len(patches) != 0 {
		t.Errorf("Expected no patches, got %+v", patches)
	}
}

func TestDiffAttrs(t *testing.T) {
	prev := Div(Class("a"), ID("x"))
	next := Div(Class("b"), AttrOf("title", "t"))

	patches := Diff(prev, next)
	want := []struct {
		op  PatchOp
		key string
	}{
		{PatchSetAttr, "class"},
		{PatchRemoveAttr, "id"},
		{PatchSetAttr, "title"},
	}
	if len(patches) != len(want) {
		t.Fatalf("patches = %+v", patches)
	}
	for i, w := range want {
		if patches[i].Op != w.op || patches[i].Key != w.key {
			t.Errorf("patch %d = %v %s, want %v %s", i, patches[i].Op, patches[i].Key, w.op, w.key)
		}
	}
}

func TestDiffUnkeyedChildren(t *testing.T) {
	prev := Ul(Li(Text("a")), Li(Text("b")), Li(Text("c")))
	next := Ul(Li(Text("a")), Li(Text("B")))

	patches := Diff(prev, next)
	if len(patches) != 2 {
		t.Fatalf("patches = %+v", patches)
	}
	if patches[0].Op != PatchRemoveNode || patches[0].Path != "2" {
		t.Errorf("first patch = %+v", patches[0])
	}
	if patches[1].Op != PatchSetText || patches[1].Path != "1.0" {
		t.Errorf("second patch = %+v", patches[1])
	}
}

func TestDiffKeyedChildren(t *testing.T) {
	prev := Ul(Li(Key("a"), Text("A")), Li(Key("b"), Text("B")))
	next := Ul(Li(Key("b"), Text("B")), Li(Key("c"), Text("C")))

	patches := Diff(prev, next)
	ops := make([]PatchOp, len(patches))
	for i, p := range patches {
		ops[i] = p.Op
	}
	want := []PatchOp{PatchMoveNode, PatchInsertNode, PatchRemoveNode}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops = %v, want %v", ops, want)
			break
		}
	}
}

func TestDiffComponentPlaceholders(t *testing.T) {
	a, b := &testComp{"A"}, &testComp{"B"}

	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []PatchOp
	}{
		{"same props", Child(a, Props{"n": 1}), Child(a, Props{"n": 1}), nil},
		{"new props", Child(a, Props{"n": 1}), Child(a, Props{"n": 2}), []PatchOp{PatchUpdateProps}},
		{"other component", Child(a, nil), Child(b, nil), []PatchOp{PatchReplaceNode}},
		{"other key", KeyedChild(a, "1", nil), KeyedChild(a, "2", nil), []PatchOp{PatchReplaceNode}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patches := Diff(Div(tt.prev), Div(tt.next))
			if len(patches) != len(tt.want) {
				t.Fatalf("patches = %+v", patches)
			}
			for i, op := range tt.want {
				if patches[i].Op != op || patches[i].Path != "0" {
					t.Errorf("patch %d = %+v, want %v at 0", i, patches[i], op)
				}
			}
		})
	}
}

func TestPatchOpString(t *testing.T) {
	if PatchUpdateProps.String() != "UpdateProps" || PatchOp(0xFF).String() != "Unknown" {
		t.Error("PatchOp.String() wrong")
	}
	if KindComponent.String() != "Component" {
		t.Error("VKind.String() wrong")
	}
}

func TestTally(t *testing.T) {
	prev := Ul(Li(Key("a"), Text("a")), Li(Key("b"), Text("b")))
	next := Ul(Li(Key("b"), Text("B")), Li(Key("c"), Text("c")))

	got := Tally(Diff(prev, next))
	want := map[PatchOp]int{PatchMoveNode: 1, PatchSetText: 1, PatchInsertNode: 1, PatchRemoveNode: 1}
	if len(got) != len(want) {
		t.Fatalf("Tally() = %v, want %v", got, want)
	}
	for op, n := range want {
		if got[op] != n {
			t.Errorf("Tally()[%v] = %d, want %d", op, got[op], n)
		}
	}
	if got.Total() != 4 {
		t.Errorf("Total() = %d, want 4", got.Total())
	}

	sum := make(OpCounts)
	sum.Add(got)
	sum.Add(Tally(Diff(Text("x"), Text("y"))))
	byName := sum.ByName()
	if byName["SetText"] != 2 || byName["MoveNode"] != 1 || len(byName) != 4 {
		t.Errorf("ByName() = %v", byName)
	}
	if OpCounts(nil).ByName() != nil {
		t.Error("ByName() of no operations should be nil")
	}
}
