package template

import (
	"fmt"
	"strings"
)

func renderNodes(nodes []node, scope *Scope, out *strings.Builder) error {
	for _, n := range nodes {
		if err := renderNode(n, scope, out); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(n node, scope *Scope, out *strings.Builder) error {
	switch t := n.(type) {
	case textNode:
		out.WriteString(t.text)
		return nil
	case exprNode:
		v, found, err := t.expr.eval(scope)
		if err != nil {
			return err
		}
		if !found {
			return errAt(t.line, t.col, "undefined variable")
		}
		out.WriteString(stringify(v))
		return nil
	case ifNode:
		v, found, err := t.cond.eval(scope)
		if err != nil {
			return err
		}
		if !found {
			return errAt(t.line, t.col, "undefined variable in if condition")
		}
		if truthy(v) {
			return renderNodes(t.then, scope, out)
		}
		return renderNodes(t.els_, scope, out)
	case forNode:
		v, found, err := t.list.eval(scope)
		if err != nil {
			return err
		}
		if !found {
			return errAt(t.line, t.col, "undefined variable in for loop")
		}
		items, ok := v.([]any)
		if !ok {
			return errAt(t.line, t.col, "for loop target is not a list")
		}
		for _, item := range items {
			childScope := scope.child(t.varName, item)
			if err := renderNodes(t.body, childScope, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("template: unknown node type %T", n)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
