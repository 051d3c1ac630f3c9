package repr

import (
	"fmt"
	"strconv"

	"github.com/protocolbuffers/txtpbfmt/ast"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"github.com/protocolbuffers/txtpbfmt/unquote"
)

// textBuilder accumulates the fields of one text-format message.
type textBuilder struct {
	nodes []*ast.Node
}

func (b *textBuilder) str(name, v string) {
	b.nodes = append(b.nodes, ast.StringNode(name, v))
}

// optStr writes v only when it is non-empty.
func (b *textBuilder) optStr(name, v string) {
	if v != "" {
		b.str(name, v)
	}
}

func (b *textBuilder) scalar(name, v string) {
	b.nodes = append(b.nodes, &ast.Node{Name: name, Values: []*ast.Value{{Value: v}}})
}

func (b *textBuilder) uint(name string, v uint64) {
	b.scalar(name, strconv.FormatUint(v, 10))
}

func (b *textBuilder) int(name string, v int64) {
	b.scalar(name, strconv.FormatInt(v, 10))
}

func (b *textBuilder) boolean(name string, v bool) {
	b.scalar(name, strconv.FormatBool(v))
}

// optBool writes v only when it is true.
func (b *textBuilder) optBool(name string, v bool) {
	if v {
		b.boolean(name, v)
	}
}

func (b *textBuilder) enum(name, token string) {
	b.scalar(name, token)
}

func (b *textBuilder) msg(name string, fill func(*textBuilder)) {
	child := &textBuilder{nodes: []*ast.Node{}}
	fill(child)
	b.nodes = append(b.nodes, &ast.Node{Name: name, Children: child.nodes, SkipColon: true})
}

func (b *textBuilder) bytes() []byte {
	return parser.PrettyBytes(b.nodes, 0)
}

// parseText parses text-format input into its top-level fields.
func parseText(data []byte) ([]*ast.Node, error) {
	nodes, err := parser.Parse(data)
	if err != nil {
		return nil, &FormatError{Format: ProtobufTextFormat, Message: err.Error()}
	}
	return nodes, nil
}

func nodeError(nd *ast.Node, format string, args ...any) error {
	return &FormatError{
		Format:  ProtobufTextFormat,
		Line:    int(nd.Start.Line),
		Message: fmt.Sprintf("field %q: %s", nd.Name, fmt.Sprintf(format, args...)),
	}
}

// forEachField calls fn for every non-comment child of nd.
func forEachField(nodes []*ast.Node, fn func(*ast.Node) error) error {
	for _, child := range nodes {
		if child.IsCommentOnly() || child.Deleted {
			continue
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}

func requireMessage(nd *ast.Node) error {
	if nd.Children == nil {
		return nodeError(nd, "expected a message")
	}
	return nil
}

func requireScalar(nd *ast.Node) (string, error) {
	if nd.Children != nil || len(nd.Values) != 1 {
		return "", nodeError(nd, "expected a single value")
	}
	return nd.Values[0].Value, nil
}

func textString(nd *ast.Node) (string, error) {
	if nd.Children != nil || len(nd.Values) == 0 {
		return "", nodeError(nd, "expected a string")
	}
	s, _, err := unquote.Unquote(nd)
	if err != nil {
		return "", nodeError(nd, "%v", err)
	}
	return s, nil
}

func textUint(nd *ast.Node) (uint64, error) {
	raw, err := requireScalar(nd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, nodeError(nd, "invalid unsigned integer %q", raw)
	}
	return v, nil
}

func textInt(nd *ast.Node) (int64, error) {
	raw, err := requireScalar(nd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nodeError(nd, "invalid integer %q", raw)
	}
	return v, nil
}

func textBool(nd *ast.Node) (bool, error) {
	raw, err := requireScalar(nd)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nodeError(nd, "invalid bool %q", raw)
	}
	return v, nil
}

func textEnum[T comparable](nd *ast.Node, table enumTable[T]) (T, error) {
	var zero T
	raw, err := requireScalar(nd)
	if err != nil {
		return zero, err
	}
	v, ok := table.decode(raw)
	if !ok {
		return zero, nodeError(nd, "unknown %s %q", table.name, raw)
	}
	return v, nil
}
