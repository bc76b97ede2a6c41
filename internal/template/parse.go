package template

import "strings"

// node is one element of a parsed template body.
type node interface{}

type textNode struct{ text string }

type exprNode struct {
	expr      Expr
	line, col int
}

type ifNode struct {
	cond       Expr
	then, els_ []node
	line, col  int
}

type forNode struct {
	varName   string
	list      Expr
	body      []node
	line, col int
}

// parse turns lexed segments into a node tree, consuming matching
// if/else/endif and for/endfor pairs.
func parse(segs []segment) ([]node, error) {
	nodes, rest, err := parseUntil(segs, "")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errAt(rest[0].line, rest[0].col, "unexpected %q with no matching opening tag", rest[0].raw)
	}
	return nodes, nil
}

// parseUntil parses segments until it sees a stmt segment whose keyword is
// in stopWords (not consumed), or runs out of input. It returns the parsed
// nodes and the unconsumed remainder.
func parseUntil(segs []segment, stopWords string) ([]node, []segment, error) {
	var nodes []node
	for len(segs) > 0 {
		s := segs[0]
		switch s.kind {
		case segText:
			if s.raw != "" {
				nodes = append(nodes, textNode{text: s.raw})
			}
			segs = segs[1:]
		case segExpr:
			e, err := parseExpr(s.raw, s.line, s.col)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, exprNode{expr: e, line: s.line, col: s.col})
			segs = segs[1:]
		case segStmt:
			kw, arg := splitKeyword(s.raw)
			if stopWords != "" && isStopWord(kw, stopWords) {
				return nodes, segs, nil
			}
			switch kw {
			case "if":
				in, rem, err := parseIfTail(s, arg, segs[1:])
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, in)
				segs = rem
			case "for":
				fn, rem, err := parseForTail(s, arg, segs[1:])
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, fn)
				segs = rem
			default:
				return nil, nil, errAt(s.line, s.col, "unexpected tag %q", kw)
			}
		}
	}
	return nodes, nil, nil
}

func isStopWord(kw, stopWords string) bool {
	for _, w := range strings.Fields(stopWords) {
		if w == kw {
			return true
		}
	}
	return false
}

func splitKeyword(raw string) (kw, arg string) {
	raw = strings.TrimSpace(raw)
	i := strings.IndexAny(raw, " \t")
	if i < 0 {
		return raw, ""
	}
	return raw[:i], strings.TrimSpace(raw[i+1:])
}

func parseIfTail(open segment, arg string, rest []segment) (node, []segment, error) {
	cond, err := parseExpr(arg, open.line, open.col)
	if err != nil {
		return nil, nil, err
	}
	thenNodes, rest, err := parseUntil(rest, "else endif")
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, errAt(open.line, open.col, "unterminated {%% if %%}")
	}
	var elseNodes []node
	if kw, _ := splitKeyword(rest[0].raw); kw == "else" {
		elseNodes, rest, err = parseUntil(rest[1:], "endif")
		if err != nil {
			return nil, nil, err
		}
		if len(rest) == 0 {
			return nil, nil, errAt(open.line, open.col, "unterminated {%% if %%}")
		}
	}
	// rest[0] is endif
	rest = rest[1:]
	return ifNode{cond: cond, then: thenNodes, els_: elseNodes, line: open.line, col: open.col}, rest, nil
}

func parseForTail(open segment, arg string, rest []segment) (node, []segment, error) {
	parts := strings.Fields(arg)
	if len(parts) != 3 || parts[1] != "in" {
		return nil, nil, errAt(open.line, open.col, "expected {%% for x in xs %%}, got %q", arg)
	}
	listExpr, err := parseExpr(parts[2], open.line, open.col)
	if err != nil {
		return nil, nil, err
	}
	body, rest, err := parseUntil(rest, "endfor")
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, errAt(open.line, open.col, "unterminated {%% for %%}")
	}
	rest = rest[1:]
	return forNode{varName: parts[0], list: listExpr, body: body, line: open.line, col: open.col}, rest, nil
}
