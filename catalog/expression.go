package catalog

import (
	"strings"

	"github.com/finnjohnston/enrollment/errs"
)

// RequisiteExpression is a textual requisite rule such as
// "MATH 1200 & (MATH 1300 | MATH 1301)". Doubled operators ("&&", "||") are
// accepted as well.
type RequisiteExpression struct {
	string
}

type TokenType int

const (
	TokenRequisite TokenType = iota
	TokenLParen
	TokenRParen
	TokenAnd
	TokenOr
	TokenEnd
)

type Token struct {
	Type  TokenType
	Value string
}

type LexerState int

const (
	LexerStart LexerState = iota
	LexerRequisite
)

// ParseExpression parses a requisite expression into canonical Requisites.
func ParseExpression(expression string) (Requisites, error) {
	requisiteExpression := RequisiteExpression{expression}
	return requisiteExpression.Evaluate()
}

func (requisiteExpression RequisiteExpression) Tokenize() *[]Token {
	initialPos := 0
	state := LexerStart

	var tokens []Token
	flush := func(pos int) {
		if state == LexerRequisite {
			value := strings.TrimSpace(requisiteExpression.string[initialPos:pos])
			if value != "" {
				tokens = append(tokens, Token{Type: TokenRequisite, Value: value})
			}
		}
		state = LexerStart
	}

	for pos, char := range requisiteExpression.string {
		switch char {
		case '(':
			flush(pos)
			tokens = append(tokens, Token{Type: TokenLParen, Value: "("})
		case ')':
			flush(pos)
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")"})
		case '&':
			flush(pos)
			if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenAnd || requisiteExpression.string[pos-1] != '&' {
				tokens = append(tokens, Token{Type: TokenAnd, Value: "&"})
			}
		case '|':
			flush(pos)
			if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenOr || requisiteExpression.string[pos-1] != '|' {
				tokens = append(tokens, Token{Type: TokenOr, Value: "|"})
			}
		default:
			if state == LexerStart {
				if char == ' ' || char == '\t' || char == '\n' {
					continue
				}
				state = LexerRequisite
				initialPos = pos
			}
		}
	}
	flush(len(requisiteExpression.string))
	tokens = append(tokens, Token{Type: TokenEnd, Value: "$"})
	return &tokens
}

func Eat(tokens *[]Token, tokenType TokenType) (string, error) {
	if len(*tokens) < 1 {
		return "", errs.InvalidInput("no token to eat")
	}
	if (*tokens)[0].Type != tokenType {
		return "", errs.InvalidInput("unexpected token %q", (*tokens)[0].Value)
	}

	token := (*tokens)[0]
	*tokens = (*tokens)[1:]
	return token.Value, nil
}

func (requisiteExpression RequisiteExpression) Evaluate() (Requisites, error) {
	if strings.TrimSpace(requisiteExpression.string) == "" {
		return nil, nil
	}

	tokens := requisiteExpression.Tokenize()
	requisites, err := Expression(tokens)
	if err != nil {
		return nil, err
	}
	if _, err := Eat(tokens, TokenEnd); err != nil {
		return nil, err
	}
	return compact(requisites), nil
}

// Expression := Term ('|' Term)*
func Expression(tokens *[]Token) (Requisites, error) {
	head, err := Term(tokens)
	if err != nil {
		return nil, err
	}

	tail, err := Terms(tokens)
	if err != nil {
		return nil, err
	}

	result := head
	for _, term := range tail {
		result = disjoin(result, term)
	}
	return result, nil
}

func Terms(tokens *[]Token) ([]Requisites, error) {
	var terms []Requisites
	for (*tokens)[0].Type == TokenOr {
		Eat(tokens, TokenOr)

		term, err := Term(tokens)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Term := Factor ('&' Factor)*
func Term(tokens *[]Token) (Requisites, error) {
	head, err := Factor(tokens)
	if err != nil {
		return nil, err
	}

	tail, err := Factors(tokens)
	if err != nil {
		return nil, err
	}

	result := append(Requisites{}, head...)
	for _, factor := range tail {
		result = append(result, factor...)
	}
	return result, nil
}

func Factors(tokens *[]Token) ([]Requisites, error) {
	var factors []Requisites
	for (*tokens)[0].Type == TokenAnd {
		Eat(tokens, TokenAnd)

		factor, err := Factor(tokens)
		if err != nil {
			return nil, err
		}
		factors = append(factors, factor)
	}
	return factors, nil
}

// Factor := REQUISITE | '(' Expression ')'
func Factor(tokens *[]Token) (Requisites, error) {
	switch (*tokens)[0].Type {
	case TokenRequisite:
		value, err := Eat(tokens, TokenRequisite)
		if err != nil {
			return nil, err
		}
		code, err := NormalizeCode(value)
		if err != nil {
			return nil, err
		}
		return Requisites{{code}}, nil
	case TokenLParen:
		Eat(tokens, TokenLParen)

		expression, err := Expression(tokens)
		if err != nil {
			return nil, err
		}

		if _, err := Eat(tokens, TokenRParen); err != nil {
			return nil, err
		}
		return expression, nil
	default:
		return nil, errs.InvalidInput("unexpected token %q in requisite expression", (*tokens)[0].Value)
	}
}
