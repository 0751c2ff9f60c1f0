package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// A Name is a hierarchical name that includes a series of tokens separated
// by dots, for example "Sys.Cache[1]".
type Name struct {
	Tokens []Token
}

// Token is an element of a name, with optional indices.
type Token struct {
	ElemName string
	Index    []int
}

// Parse splits a name into tokens.
func Parse(s string) (Name, error) {
	parts := strings.Split(s, ".")
	name := Name{Tokens: make([]Token, len(parts))}

	for i, part := range parts {
		token, err := parseToken(part)
		if err != nil {
			return Name{}, err
		}

		name.Tokens[i] = token
	}

	return name, nil
}

func parseToken(s string) (Token, error) {
	err := bracketsMustMatch(s)
	if err != nil {
		return Token{}, err
	}

	parts := strings.Split(s, "[")

	indices := make([]int, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		index, err := strconv.Atoi(strings.TrimSuffix(parts[i], "]"))
		if err != nil {
			return Token{}, errors.New("name index must be integer")
		}

		indices[i-1] = index
	}

	return Token{ElemName: parts[0], Index: indices}, nil
}

func bracketsMustMatch(s string) error {
	open := 0

	for _, c := range s {
		switch c {
		case '[':
			open++
		case ']':
			open--
			if open < 0 {
				return errors.New("name brackets must match")
			}
		}
	}

	if open != 0 {
		return errors.New("name brackets must match")
	}

	return nil
}

// Validate checks the naming convention. Elements must not be empty, must
// start with a capital letter, and must not contain underscores, dashes, or
// quotes. Elements in a series use square brackets, as in "Cache[0]".
func Validate(s string) error {
	name, err := Parse(s)
	if err != nil {
		return fmt.Errorf("name %q is not valid: %w", s, err)
	}

	for _, token := range name.Tokens {
		err = validateToken(token)
		if err != nil {
			return fmt.Errorf("name %q is not valid: %w", s, err)
		}
	}

	return nil
}

func validateToken(token Token) error {
	if token.ElemName == "" {
		return errors.New("name element must not be empty")
	}

	for _, c := range []string{"_", "\"", "'", "-"} {
		if strings.Contains(token.ElemName, c) {
			return fmt.Errorf("name element must not contain %s", c)
		}
	}

	if token.ElemName[0] < 'A' || token.ElemName[0] > 'Z' {
		return errors.New("name element must start with a capital letter")
	}

	return nil
}

// MustBeValid panics if the name does not follow the naming convention.
func MustBeValid(s string) {
	err := Validate(s)
	if err != nil {
		panic(err)
	}
}
