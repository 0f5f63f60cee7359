package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/0xd34d10cc/dumbdb/internal/dumbdb"
)

var (
	errEmptyStatement       = fmt.Errorf("statement cannot be empty")
	errInvalidStatementKind = fmt.Errorf("invalid statement kind")
	errSelectWithoutStar    = fmt.Errorf("at SELECT: expected '*'")
	errNoValuesToInsert     = fmt.Errorf("at INSERT: expected at least one value")
	errDanglingComma        = fmt.Errorf("at INSERT: expected value after comma")
)

var reservedWords = []string{
	"*", ",",
	"SELECT", "INSERT",
}

type step int

const (
	stepBeginning step = iota + 1
	stepSelectAsterisk
	stepInsertValue
	stepInsertCommaOrEnd
	stepStatementEnd
)

type parser struct {
	dumbdb.Statement
	i    int // where we are in the statement
	sql  string
	step step
}

func New() *parser {
	return new(parser)
}

// Parse turns user text into a structured statement. The parser holds no
// state between calls.
func (p *parser) Parse(ctx context.Context, sql string) (dumbdb.Statement, error) {
	p.reset()
	p.sql = strings.TrimSpace(sql)

	stmt, err := p.doParse()
	if err != nil {
		return dumbdb.Statement{}, err
	}
	return stmt, nil
}

func (p *parser) reset() {
	p.Statement = dumbdb.Statement{}
	p.sql = ""
	p.step = stepBeginning
	p.i = 0
}

func (p *parser) doParse() (dumbdb.Statement, error) {
	for p.i < len(p.sql) {
		switch p.step {
		case stepBeginning:
			switch strings.ToUpper(p.peek()) {
			case "SELECT":
				p.Kind = dumbdb.Select
				p.pop()
				p.step = stepSelectAsterisk
			case "INSERT":
				p.Kind = dumbdb.Insert
				p.pop()
				p.step = stepInsertValue
			default:
				return p.Statement, errInvalidStatementKind
			}
		case stepSelectAsterisk:
			if p.peek() != "*" {
				return p.Statement, errSelectWithoutStar
			}
			p.pop()
			p.step = stepStatementEnd
		case stepInsertValue:
			value, ln := p.peekValue()
			if ln == 0 {
				return p.Statement, fmt.Errorf("at INSERT: expected int or quoted string value")
			}
			p.Values = append(p.Values, value)
			p.pop()
			p.step = stepInsertCommaOrEnd
		case stepInsertCommaOrEnd:
			if p.peek() != "," {
				return p.Statement, fmt.Errorf("at INSERT: expected comma or end of statement")
			}
			p.pop()
			p.step = stepInsertValue
		case stepStatementEnd:
			return p.Statement, fmt.Errorf("unexpected token at end of statement: %s", p.peek())
		}
	}

	return p.Statement, p.validate()
}

func (p *parser) validate() error {
	switch p.Kind {
	case dumbdb.Select:
		if p.step != stepStatementEnd {
			return errSelectWithoutStar
		}
	case dumbdb.Insert:
		if len(p.Values) == 0 {
			return errNoValuesToInsert
		}
		if p.step == stepInsertValue {
			return errDanglingComma
		}
	default:
		return errEmptyStatement
	}
	return nil
}

func (p *parser) peek() string {
	peeked, _ := p.peekWithLength()
	return peeked
}

func (p *parser) pop() string {
	peeked, ln := p.peekWithLength()
	p.i += ln
	p.popWhitespace()
	return peeked
}

func (p *parser) popWhitespace() {
	for ; p.i < len(p.sql) && p.sql[p.i] == ' '; p.i++ {
	}
}

func (p *parser) peekWithLength() (string, int) {
	if p.i >= len(p.sql) {
		return "", 0
	}
	// First check for reserved words
	for _, rWord := range reservedWords {
		token := strings.ToUpper(p.sql[p.i:min(len(p.sql), p.i+len(rWord))])
		if token == rWord {
			return token, len(token)
		}
	}
	// Next for quoted string literals
	if p.sql[p.i] == '"' {
		_, ln := p.peekQuotedStringWithLength()
		if ln > 0 {
			return p.sql[p.i : p.i+ln], ln
		}
	}
	// And finally for integers
	_, ln := p.peekIntWithLength()
	if ln > 0 {
		return p.sql[p.i : p.i+ln], ln
	}
	return "", 0
}

func (p *parser) peekValue() (any, int) {
	intValue, ln := p.peekIntWithLength()
	if ln > 0 {
		return intValue, ln
	}
	quotedValue, ln := p.peekQuotedStringWithLength()
	if ln > 0 {
		return quotedValue, ln
	}
	return nil, 0
}

func (p *parser) peekQuotedStringWithLength() (string, int) {
	if p.i >= len(p.sql) || p.sql[p.i] != '"' {
		return "", 0
	}
	for i := p.i + 1; i < len(p.sql); i++ {
		if p.sql[i] == '"' && p.sql[i-1] != '\\' {
			return p.sql[p.i+1 : i], len(p.sql[p.i+1:i]) + 2 // +2 for the two quotes
		}
	}
	return "", 0
}

func (p *parser) peekIntWithLength() (int64, int) {
	start := p.i
	if start < len(p.sql) && p.sql[start] == '-' {
		start++
	}
	if start >= len(p.sql) || !unicode.IsDigit(rune(p.sql[start])) {
		return 0, 0
	}
	end := start + 1
	for ; end < len(p.sql) && unicode.IsDigit(rune(p.sql[end])); end++ {
	}
	intValue, err := strconv.ParseInt(p.sql[p.i:end], 10, 64)
	if err != nil {
		return 0, 0
	}
	return intValue, end - p.i
}
