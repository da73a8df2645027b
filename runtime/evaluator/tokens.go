package evaluator

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes start at 1 so they never clash with parsly.EOF.
const (
	whitespaceCode = iota + 1
	orCode
	andCode
	notEqualCode
	notCode
	equalCode
	greaterEqualCode
	lessEqualCode
	greaterCode
	lessCode
	containsCode
	openParenCode
	closeParenCode
	stringCode
	numberCode
	identifierCode
)

var (
	whitespaceToken   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	orToken           = parsly.NewToken(orCode, "||", matcher.NewFragment("||"))
	andToken          = parsly.NewToken(andCode, "&&", matcher.NewFragment("&&"))
	notEqualToken     = parsly.NewToken(notEqualCode, "!=", matcher.NewFragment("!="))
	notToken          = parsly.NewToken(notCode, "!", matcher.NewByte('!'))
	equalToken        = parsly.NewToken(equalCode, "==", matcher.NewFragment("=="))
	greaterEqualToken = parsly.NewToken(greaterEqualCode, ">=", matcher.NewFragment(">="))
	lessEqualToken    = parsly.NewToken(lessEqualCode, "<=", matcher.NewFragment("<="))
	greaterToken      = parsly.NewToken(greaterCode, ">", matcher.NewByte('>'))
	lessToken         = parsly.NewToken(lessCode, "<", matcher.NewByte('<'))
	containsToken     = parsly.NewToken(containsCode, "contains", &keywordMatcher{keyword: "contains"})
	openParenToken    = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken   = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	stringToken       = parsly.NewToken(stringCode, "String", &stringMatcher{})
	numberToken       = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	identifierToken   = parsly.NewToken(identifierCode, "Identifier", &pathMatcher{})
)

// comparisonTokens are ordered so that two byte operators win over their prefixes
var comparisonTokens = []*parsly.Token{
	equalToken, notEqualToken, greaterEqualToken, lessEqualToken, greaterToken, lessToken, containsToken,
}

// keywordMatcher matches a word that is not followed by an identifier character
type keywordMatcher struct {
	keyword string
}

func (m *keywordMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := len(m.keyword)
	if pos+size > cursor.InputSize || string(input[pos:pos+size]) != m.keyword {
		return 0
	}
	if pos+size < cursor.InputSize && isIdentifierPart(input[pos+size]) {
		return 0
	}
	return size
}

// stringMatcher matches single or double quoted literals with backslash escapes
type stringMatcher struct{}

func (m *stringMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize {
		return 0
	}
	quote := input[pos]
	if quote != '\'' && quote != '"' {
		return 0
	}
	for i := pos + 1; i < cursor.InputSize; i++ {
		switch input[i] {
		case '\\':
			i++
		case quote:
			return i - pos + 1
		}
	}
	return 0
}

// numberMatcher matches integers and decimals with an optional leading minus
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	i := pos
	if i < cursor.InputSize && input[i] == '-' {
		i++
	}
	digits := 0
	for ; i < cursor.InputSize && isDigit(input[i]); i++ {
		digits++
	}
	if digits == 0 {
		return 0
	}
	if i+1 < cursor.InputSize && input[i] == '.' && isDigit(input[i+1]) {
		i++
		for ; i < cursor.InputSize && isDigit(input[i]); i++ {
		}
	}
	if i < cursor.InputSize && isIdentifierPart(input[i]) {
		return 0
	}
	return i - pos
}

// pathMatcher matches dotted identifiers: customer.address.city, items.0.sku
type pathMatcher struct{}

func (m *pathMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || !(isLetter(input[pos]) || input[pos] == '_') {
		return 0
	}
	i := pos + 1
	for i < cursor.InputSize {
		c := input[i]
		if isIdentifierPart(c) {
			i++
			continue
		}
		if c == '.' && i+1 < cursor.InputSize && isIdentifierPart(input[i+1]) {
			i++
			continue
		}
		break
	}
	return i - pos
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentifierPart(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-'
}
