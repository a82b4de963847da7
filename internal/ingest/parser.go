// Package ingest turns raw catalog files into validated laptops.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"laptopadvisor/internal/model"
)

// DefaultDelimiter separates fields when none is configured
const DefaultDelimiter = ','

// maxLineBytes bounds a single catalog line
const maxLineBytes = 1 << 20

// headerTolerance is how many trailing fields a data row may omit
const headerTolerance = 2

var (
	// ErrNoHeader is returned when the input has no non-blank line
	ErrNoHeader = errors.New("catalog has no header row")
	// errUnterminatedQuote marks a line whose quoted segment never closes
	errUnterminatedQuote = errors.New("unterminated quoted field")
	// errLineTooLong marks a line longer than maxLineBytes
	errLineTooLong = fmt.Errorf("line exceeds %d bytes", maxLineBytes)
)

// RawRecord is one parsed data row keyed by header name. It is never mutated
// after parsing.
type RawRecord struct {
	Line   int
	Fields map[string]string
}

// Get returns the raw value of a column, or "" when absent
func (r RawRecord) Get(header string) string {
	return r.Fields[header]
}

// Table is the parser output
type Table struct {
	Headers  []string
	Records  []RawRecord
	Warnings []model.ParseWarning
	// TotalRows counts non-blank data lines, including skipped ones
	TotalRows int
}

// Parser splits delimited catalog text into records
type Parser struct {
	Delimiter rune
}

// NewParser creates a parser for the given delimiter. A zero delimiter means comma.
func NewParser(delimiter rune) *Parser {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	return &Parser{Delimiter: delimiter}
}

// ParseString parses catalog text held in memory
func (p *Parser) ParseString(text string) (*Table, error) {
	return p.Parse(strings.NewReader(text))
}

// Parse reads delimited text with a header row. Rows that cannot be tokenized
// or that have fewer than len(headers)-2 fields are skipped and reported as
// warnings. Missing trailing fields default to "".
func (p *Parser) Parse(r io.Reader) (*Table, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	table := &Table{}
	lineNo := 0

	for {
		raw, tooLong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		lineNo++

		if tooLong {
			if table.Headers == nil {
				return nil, fmt.Errorf("header line %d: %w", lineNo, errLineTooLong)
			}
			table.TotalRows++
			table.Warnings = append(table.Warnings, model.ParseWarning{Line: lineNo, Reason: errLineTooLong.Error()})
			continue
		}

		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		values, err := p.splitLine(line)

		if table.Headers == nil {
			if err != nil {
				return nil, fmt.Errorf("header line %d: %w", lineNo, err)
			}
			table.Headers = values
			continue
		}

		table.TotalRows++
		if err != nil {
			table.Warnings = append(table.Warnings, model.ParseWarning{Line: lineNo, Reason: err.Error()})
			continue
		}
		if len(values) < len(table.Headers)-headerTolerance {
			table.Warnings = append(table.Warnings, model.ParseWarning{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected at least %d fields, got %d", len(table.Headers)-headerTolerance, len(values)),
			})
			continue
		}

		table.Records = append(table.Records, newRawRecord(lineNo, table.Headers, values))
	}

	if table.Headers == nil {
		return nil, ErrNoHeader
	}

	return table, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed in full and reported as too long instead.
func readLine(r *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", tooLong, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func newRawRecord(line int, headers, values []string) RawRecord {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(values) {
			fields[h] = values[i]
		} else {
			fields[h] = ""
		}
	}
	return RawRecord{Line: line, Fields: fields}
}

// splitLine tokenizes one line. A field whose first non-blank character is a
// single or double quote is read up to the matching quote, so delimiters
// inside it are kept. Quote characters never reach the values: a doubled
// quote inside a quoted segment and stray quotes elsewhere are dropped.
// Every value is trimmed.
func (p *Parser) splitLine(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		quoted  bool
		atStart = true
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if quoted {
			if c == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					i++
					continue
				}
				quoted = false
				continue
			}
			current.WriteRune(c)
			continue
		}

		switch {
		case c == p.Delimiter:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
			atStart = true
		case atStart && (c == '"' || c == '\''):
			quoted = true
			quote = c
			atStart = false
		case atStart && (c == ' ' || c == '\t'):
			// leading blanks before an opening quote
		case c == '"' || c == '\'':
			atStart = false
		default:
			current.WriteRune(c)
			atStart = false
		}
	}

	if quoted {
		return nil, errUnterminatedQuote
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields, nil
}
