// Package xml provides namespace-aware XML loading, XPath selection, child
// reordering, and faithful serialization.
//
// The document tree is backed by xmlquery nodes. Namespace prefixes are kept
// exactly as written in the source: the loader records every prefix declared
// anywhere in the document, in encounter order, and the serializer re-emits
// the recorded prefixes verbatim so a round trip never invents synthetic
// prefixes (ns0, ns1, ...) or drops declared ones.
//
// Security Notes:
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties (external entities are
//     not fetched).
package xml

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/Kopachris/sortxml/core/encoding"
	"github.com/Kopachris/sortxml/core/errors"
)

// utf8BOM is the byte order mark some editors prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Namespace is a single prefix -> URI binding declared in the source document.
// An empty Prefix denotes the default namespace (xmlns="...").
type Namespace struct {
	Prefix string
	URI    string
}

// NamespaceMap holds every namespace declared in a document, in encounter
// order. It is recorded at load time and exposed so callers (and tests) can
// verify that serialization preserves exactly the declared prefixes.
type NamespaceMap []Namespace

// Lookup returns the URI bound to prefix, or "" if the prefix is not declared.
func (m NamespaceMap) Lookup(prefix string) string {
	for _, ns := range m {
		if ns.Prefix == prefix {
			return ns.URI
		}
	}
	return ""
}

// Prefixes returns the declared prefixes in encounter order.
func (m NamespaceMap) Prefixes() []string {
	prefixes := make([]string, len(m))
	for i, ns := range m {
		prefixes[i] = ns.Prefix
	}
	return prefixes
}

// Document represents a parsed XML document and its namespace map.
type Document struct {
	root *xmlquery.Node

	// Namespaces holds every prefix declared in the source, in encounter
	// order. Serialize emits these prefixes verbatim.
	Namespaces NamespaceMap
}

// Element represents an element node in a Document.
type Element struct {
	node *xmlquery.Node
}

// Parse parses XML data and returns a Document. A leading UTF-8 byte order
// mark is stripped before parsing.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("", err.Error(), err)
	}
	// xmlquery inserts a declaration node even when the source has none.
	// Only keep it if the source actually started with one.
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		dropDeclaration(root)
	}
	return &Document{
		root:       root,
		Namespaces: collectNamespaces(root),
	}, nil
}

// dropDeclaration unlinks a leading declaration node from the document root.
func dropDeclaration(root *xmlquery.Node) {
	first := root.FirstChild
	if first == nil || first.Type != xmlquery.DeclarationNode {
		return
	}
	root.FirstChild = first.NextSibling
	if first.NextSibling != nil {
		first.NextSibling.PrevSibling = nil
	} else {
		root.LastChild = nil
	}
}

// Load reads and parses the XML file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInput(path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var perr *errors.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// LoadReader reads and parses XML from r.
func LoadReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInput("", err)
	}
	return Parse(data)
}

// collectNamespaces walks the tree in document order and records every
// xmlns / xmlns:prefix declaration the first time it is encountered.
func collectNamespaces(root *xmlquery.Node) NamespaceMap {
	var m NamespaceMap
	seen := make(map[string]bool)
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			for _, attr := range n.Attr {
				var prefix string
				switch {
				case attr.Name.Space == "xmlns":
					prefix = attr.Name.Local
				case attr.Name.Space == "" && attr.Name.Local == "xmlns":
					prefix = ""
				default:
					continue
				}
				if !seen[prefix] {
					seen[prefix] = true
					m = append(m, Namespace{Prefix: prefix, URI: attr.Value})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return m
}

// Root returns the root element of the document, or nil if the document has
// no element content.
func (d *Document) Root() *Element {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Element{node: child}
		}
	}
	return nil
}

// Select resolves an XPath-style path expression to the matching elements.
// A syntactically invalid expression returns a PathError; an expression that
// matches nothing returns an empty slice and no error.
func (d *Document) Select(expr string) ([]*Element, error) {
	// Compile first so syntax errors are reported as such, distinct from
	// a valid expression that happens to match nothing.
	if _, err := xpath.Compile(expr); err != nil {
		return nil, errors.NewPath(expr, err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, errors.NewPath(expr, err)
	}

	var result []*Element
	for _, n := range nodes {
		if n.Type == xmlquery.ElementNode {
			result = append(result, &Element{node: n})
		}
	}
	return result, nil
}

// Serialize converts the document back to XML bytes. Element prefixes,
// attributes, text, CDATA sections, comments, and whitespace are re-emitted
// exactly as parsed; only child order changed by ReplaceChildren differs
// from the source.
func (d *Document) Serialize() []byte {
	if d.root == nil {
		return nil
	}
	var buf bytes.Buffer
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		serializeNode(&buf, child)
	}
	return buf.Bytes()
}

// serializeNode re-emits a node and its subtree without reformatting.
func serializeNode(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DeclarationNode:
		w.WriteString("<?")
		w.WriteString(n.Data)
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(attr.Name.Space, attr.Name.Local))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		w.WriteString("?>")

	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(elementName(n))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(attr.Name.Space, attr.Name.Local))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			serializeNode(w, child)
		}
		w.WriteString("</")
		w.WriteString(elementName(n))
		w.WriteString(">")

	case xmlquery.TextNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))

	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")

	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")

	case xmlquery.NotationNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteString(">")
	}
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func attrName(space, local string) string {
	if space != "" {
		return space + ":" + local
	}
	return local
}

// ReplaceChildren permutes parent's element children into the given order.
// Every non-element child node (whitespace text, comments, CDATA) keeps its
// positional slot, so indentation is untouched. ordered must contain exactly
// parent's element children; subtrees move whole and keep their identity.
func ReplaceChildren(parent *Element, ordered []*Element) {
	if parent == nil || parent.node == nil || len(ordered) < 2 {
		return
	}

	var slots []*xmlquery.Node
	for child := parent.node.FirstChild; child != nil; child = child.NextSibling {
		slots = append(slots, child)
	}

	next := 0
	for i, n := range slots {
		if n.Type == xmlquery.ElementNode {
			slots[i] = ordered[next].node
			next++
		}
	}

	var prev *xmlquery.Node
	parent.node.FirstChild = nil
	parent.node.LastChild = nil
	for _, n := range slots {
		n.Parent = parent.node
		n.PrevSibling = prev
		n.NextSibling = nil
		if prev == nil {
			parent.node.FirstChild = n
		} else {
			prev.NextSibling = n
		}
		prev = n
	}
	parent.node.LastChild = prev
}

// Name returns the element's local name, without any namespace prefix.
func (e *Element) Name() string {
	if e.node == nil {
		return ""
	}
	return e.node.Data
}

// QualifiedName returns the element name as written in the source, including
// its namespace prefix if one was declared.
func (e *Element) QualifiedName() string {
	if e.node == nil {
		return ""
	}
	return elementName(e.node)
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	if e.node == nil {
		return "", false
	}
	for _, attr := range e.node.Attr {
		if attrName(attr.Name.Space, attr.Name.Local) == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Attributes returns all attributes of the element, keyed by name as written.
func (e *Element) Attributes() map[string]string {
	if e.node == nil {
		return nil
	}
	attrs := make(map[string]string)
	for _, attr := range e.node.Attr {
		attrs[attrName(attr.Name.Space, attr.Name.Local)] = attr.Value
	}
	return attrs
}

// Text returns the concatenated text content of the element and its
// descendants.
func (e *Element) Text() string {
	if e.node == nil {
		return ""
	}
	return e.node.InnerText()
}

// Children returns the direct child elements, in document order.
func (e *Element) Children() []*Element {
	if e.node == nil {
		return nil
	}
	var children []*Element
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Element{node: child})
		}
	}
	return children
}

// ChildNamed returns the first direct child element with the given name,
// or nil if there is none. A name containing a colon matches the child's
// prefixed name; otherwise only the local name is compared.
func (e *Element) ChildNamed(name string) *Element {
	if e.node == nil {
		return nil
	}
	qualified := strings.Contains(name, ":")
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if qualified {
			if elementName(child) == name {
				return &Element{node: child}
			}
		} else if child.Data == name {
			return &Element{node: child}
		}
	}
	return nil
}

// Parent returns the parent element, or nil for the root element. The
// back-reference is navigational only; it carries no ownership.
func (e *Element) Parent() *Element {
	if e.node == nil || e.node.Parent == nil || e.node.Parent.Type != xmlquery.ElementNode {
		return nil
	}
	return &Element{node: e.node.Parent}
}
