// Package native renders slides from component trees built in Go. Trees
// carry region markers directly, so no markup injection is involved.
package native

import (
	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// Kind is component kind.
type Kind int

const (
	KindStack   Kind = iota // vertical flow
	KindRow                 // horizontal flow
	KindBox                 // absolutely positioned against slide
	KindPicture             // image covering its box
	KindAvatar              // circular image
	KindText
)

var kindNames = [...]string{"stack", "row", "box", "picture", "avatar", "text"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Marker ties component to editable region.
type Marker struct {
	ID   string
	Type common.RegionType
}

// Node is a component of slide tree. Style holds template defaults, live
// edits are kept separately and merged over them.
type Node struct {
	Kind     Kind
	Marker   *Marker
	Style    css.Style
	Value    string // text or image source
	Children []*Node

	live css.Style
}

func newNode(k Kind, style css.Style, children []*Node) *Node {
	return &Node{Kind: k, Style: style, Children: children}
}

func Stack(style css.Style, children ...*Node) *Node {
	return newNode(KindStack, style, children)
}

func Row(style css.Style, children ...*Node) *Node {
	return newNode(KindRow, style, children)
}

// Box is laid out as stack placed with top, right, bottom and left against
// slide bounds.
func Box(style css.Style, children ...*Node) *Node {
	return newNode(KindBox, style, children)
}

func Picture(src string, style css.Style) *Node {
	n := newNode(KindPicture, style, nil)
	n.Value = src
	return n
}

// Avatar is square picture of given size painted as circle.
func Avatar(src string, size float64) *Node {
	px := css.Style{"width": css.FormatPx(size), "height": css.FormatPx(size)}
	n := newNode(KindAvatar, px, nil)
	n.Value = src
	return n
}

func Text(value string, style css.Style) *Node {
	n := newNode(KindText, style, nil)
	n.Value = value
	return n
}

// Mark makes node editable region t of slide.
func (n *Node) Mark(slide int, t common.RegionType) *Node {
	n.Marker = &Marker{ID: surface.MarkerID(slide, t), Type: t}
	return n
}

// Effective returns template style with live edits applied.
func (n *Node) Effective() css.Style {
	return n.Style.Merge(n.live)
}

// Walk visits nodes depth first, stopping when fn returns false.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	var walk func(n *Node, depth int) bool
	walk = func(n *Node, depth int) bool {
		if !fn(n, depth) {
			return false
		}
		for _, c := range n.Children {
			if !walk(c, depth+1) {
				return false
			}
		}
		return true
	}
	walk(n, 0)
}

// Find returns node marked as region t.
func (n *Node) Find(t common.RegionType) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if c.Marker != nil && c.Marker.Type == t {
			found = c
			return false
		}
		return true
	})
	return found
}
