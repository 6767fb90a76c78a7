package formula

import "fmt"

type tokenType int

const (
	tokNumber tokenType = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	typ   tokenType
	value string
	pos   int
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// tokenize breaks a formula string into tokens, recording byte offsets for
// error reporting.
func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]

		// Skip whitespace
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '+':
			tokens = append(tokens, token{typ: tokPlus, value: "+", pos: i})
			i++
			continue
		case '-':
			tokens = append(tokens, token{typ: tokMinus, value: "-", pos: i})
			i++
			continue
		case '*':
			tokens = append(tokens, token{typ: tokStar, value: "*", pos: i})
			i++
			continue
		case '/':
			tokens = append(tokens, token{typ: tokSlash, value: "/", pos: i})
			i++
			continue
		case '(':
			tokens = append(tokens, token{typ: tokLParen, value: "(", pos: i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{typ: tokRParen, value: ")", pos: i})
			i++
			continue
		}

		// Decimal number literal
		if isDigit(ch) || ch == '.' {
			start := i
			sawDot := false
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				if input[i] == '.' {
					if sawDot {
						return nil, &MalformedFormulaError{Position: i, Message: "unexpected '.'"}
					}
					sawDot = true
				}
				i++
			}
			value := input[start:i]
			if value == "." {
				return nil, &MalformedFormulaError{Position: start, Message: "unexpected '.'"}
			}
			tokens = append(tokens, token{typ: tokNumber, value: value, pos: start})
			continue
		}

		// Identifier (normalized variable name)
		if isIdentStart(ch) {
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{typ: tokIdent, value: input[start:i], pos: start})
			continue
		}

		return nil, &MalformedFormulaError{Position: i, Message: fmt.Sprintf("invalid character %q", string(ch))}
	}

	tokens = append(tokens, token{typ: tokEOF, value: "", pos: len(input)})
	return tokens, nil
}
