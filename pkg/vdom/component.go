package vdom

// Child creates a placeholder for component c rendered with props. Props
// are shallow-copied.
func Child(c Component, props Props) *VNode {
	return KeyedChild(c, "", props)
}

// KeyedChild is Child with a reconciliation key. Siblings of the same
// component are matched by key across renders; without a key they are
// matched by position.
func KeyedChild(c Component, key string, props Props) *VNode {
	cp := make(Props, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return &VNode{
		Kind:  KindComponent,
		Comp:  c,
		Key:   key,
		Props: cp,
	}
}

// ShallowEqual reports whether two prop sets hold the same keys with
// identical values. Functions compare as unequal, so a parent passing a
// fresh callback makes its child re-render.
func ShallowEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !propsEqual(av, bv) {
			return false
		}
	}
	return true
}
