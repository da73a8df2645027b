package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// Parse parses a condition using the grammar:
//
//	expr    := and ('||' and)*
//	and     := unary ('&&' unary)*
//	unary   := '!' unary | cmp
//	cmp     := operand (op operand)?      op: == != > >= < <= contains
//	operand := '(' expr ')' | string | number | true | false | null | path
func Parse(expression string) (Node, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	cursor := parsly.NewCursor("", []byte(expression), 0)
	node, err := parseOr(cursor)
	if err != nil {
		return nil, err
	}
	if rest := strings.TrimSpace(string(cursor.Input[cursor.Pos:])); rest != "" {
		return nil, fmt.Errorf("unexpected %q at position %d in %q", rest, cursor.Pos, expression)
	}
	return node, nil
}

func parseOr(cursor *parsly.Cursor) (Node, error) {
	left, err := parseAnd(cursor)
	if err != nil {
		return nil, err
	}
	for cursor.MatchAfterOptional(whitespaceToken, orToken).Code == orCode {
		right, err := parseAnd(cursor)
		if err != nil {
			return nil, err
		}
		left = &logical{left: left, right: right}
	}
	return left, nil
}

func parseAnd(cursor *parsly.Cursor) (Node, error) {
	left, err := parseUnary(cursor)
	if err != nil {
		return nil, err
	}
	for cursor.MatchAfterOptional(whitespaceToken, andToken).Code == andCode {
		right, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		left = &logical{and: true, left: left, right: right}
	}
	return left, nil
}

func parseUnary(cursor *parsly.Cursor) (Node, error) {
	if cursor.MatchAfterOptional(whitespaceToken, notEqualToken).Code == notEqualCode {
		return nil, cursor.NewError(notToken, openParenToken, identifierToken)
	}
	if cursor.MatchAfterOptional(whitespaceToken, notToken).Code == notCode {
		operand, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		return &not{operand: operand}, nil
	}
	return parseComparison(cursor)
}

func parseComparison(cursor *parsly.Cursor) (Node, error) {
	left, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	// the cursor reuses its match, so the operator code is copied before the right operand is read
	operator := cursor.MatchAfterOptional(whitespaceToken, comparisonTokens...).Code
	switch operator {
	case equalCode, notEqualCode, greaterEqualCode, lessEqualCode, greaterCode, lessCode, containsCode:
	default:
		return left, nil
	}
	right, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	return &comparison{operator: operator, left: left, right: right}, nil
}

func parseOperand(cursor *parsly.Cursor) (Node, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, openParenToken, stringToken, numberToken, identifierToken)
	switch matched.Code {
	case openParenCode:
		node, err := parseOr(cursor)
		if err != nil {
			return nil, err
		}
		if cursor.MatchAfterOptional(whitespaceToken, closeParenToken).Code != closeParenCode {
			return nil, cursor.NewError(closeParenToken)
		}
		return node, nil
	case stringCode:
		text := matched.Text(cursor)
		return &literal{value: unquote(text)}, nil
	case numberCode:
		value, err := strconv.ParseFloat(matched.Text(cursor), 64)
		if err != nil {
			return nil, err
		}
		return &literal{value: value}, nil
	case identifierCode:
		text := matched.Text(cursor)
		switch text {
		case "true":
			return &literal{value: true}, nil
		case "false":
			return &literal{value: false}, nil
		case "null", "nil":
			return &literal{value: nil}, nil
		}
		return &path{name: text}, nil
	}
	return nil, cursor.NewError(openParenToken, stringToken, numberToken, identifierToken)
}

func unquote(text string) string {
	body := text[1 : len(text)-1]
	if !strings.Contains(body, "\\") {
		return body
	}
	builder := strings.Builder{}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			default:
				builder.WriteByte(body[i])
			}
			continue
		}
		builder.WriteByte(c)
	}
	return builder.String()
}
