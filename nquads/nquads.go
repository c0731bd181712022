// Package nquads reads and writes the line-based N-Quads statement format,
// including RDF-star quoted triples. It is the serialization boundary used
// by the durable backends and the CLI; the core store never depends on it.
package nquads

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jward/tern"
)

// FormatTerm renders a term in N-Quads syntax.
func FormatTerm(t tern.Term) string {
	switch v := t.(type) {
	case tern.IRI:
		return "<" + string(v) + ">"
	case tern.BlankNode:
		return "_:" + string(v)
	case tern.Literal:
		s := `"` + escape(v.Value) + `"`
		switch {
		case v.Language != "":
			s += "@" + v.Language
		case v.Datatype != "":
			s += "^^<" + string(v.Datatype) + ">"
		}
		return s
	case tern.Statement:
		return "<< " + FormatTerm(v.Subject) + " " + FormatTerm(v.Predicate) + " " + FormatTerm(v.Object) + " >>"
	default:
		return ""
	}
}

// FormatStatement renders st as one N-Quads line, without the newline.
func FormatStatement(st tern.Statement) string {
	var b strings.Builder
	b.WriteString(FormatTerm(st.Subject))
	b.WriteByte(' ')
	b.WriteString(FormatTerm(st.Predicate))
	b.WriteByte(' ')
	b.WriteString(FormatTerm(st.Object))
	if st.Graph != nil {
		b.WriteByte(' ')
		b.WriteString(FormatTerm(st.Graph))
	}
	b.WriteString(" .")
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseStatement parses one N-Quads line.
func ParseStatement(line string) (tern.Statement, error) {
	p := &parser{input: line}
	st, err := p.statement()
	if err != nil {
		return tern.Statement{}, fmt.Errorf("parse %q: %w", line, err)
	}
	return st, nil
}

// ParseTerm parses a single term in N-Quads syntax.
func ParseTerm(s string) (tern.Term, error) {
	p := &parser{input: s}
	t, err := p.term()
	if err != nil {
		return nil, fmt.Errorf("parse term %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("parse term %q: trailing input", s)
	}
	return t, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) statement() (tern.Statement, error) {
	subj, err := p.term()
	if err != nil {
		return tern.Statement{}, err
	}
	pred, err := p.term()
	if err != nil {
		return tern.Statement{}, err
	}
	obj, err := p.term()
	if err != nil {
		return tern.Statement{}, err
	}
	st := tern.Statement{Subject: subj, Predicate: pred, Object: obj}
	p.skipSpace()
	if p.peek() != '.' {
		graph, err := p.term()
		if err != nil {
			return tern.Statement{}, err
		}
		st.Graph = graph
		p.skipSpace()
	}
	if p.peek() != '.' {
		return tern.Statement{}, fmt.Errorf("missing terminating dot")
	}
	return st, nil
}

func (p *parser) term() (tern.Term, error) {
	p.skipSpace()
	switch {
	case strings.HasPrefix(p.rest(), "<<"):
		return p.quotedTriple()
	case p.peek() == '<':
		return p.iri()
	case strings.HasPrefix(p.rest(), "_:"):
		return p.blankNode()
	case p.peek() == '"':
		return p.literal()
	default:
		return nil, fmt.Errorf("unexpected input at offset %d", p.pos)
	}
}

func (p *parser) quotedTriple() (tern.Term, error) {
	p.pos += 2 // <<
	subj, err := p.term()
	if err != nil {
		return nil, err
	}
	pred, err := p.term()
	if err != nil {
		return nil, err
	}
	obj, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), ">>") {
		return nil, fmt.Errorf("unterminated quoted triple")
	}
	p.pos += 2
	return tern.Triple(subj, pred, obj), nil
}

func (p *parser) iri() (tern.Term, error) {
	end := strings.IndexByte(p.rest(), '>')
	if end < 0 {
		return nil, fmt.Errorf("unterminated IRI")
	}
	iri := tern.IRI(p.rest()[1:end])
	p.pos += end + 1
	return iri, nil
}

func (p *parser) blankNode() (tern.Term, error) {
	rest := p.rest()[2:]
	end := 0
	for end < len(rest) && !isTermBoundary(rest[end]) {
		end++
	}
	if end == 0 {
		return nil, fmt.Errorf("empty blank node label")
	}
	p.pos += 2 + end
	return tern.BlankNode(rest[:end]), nil
}

func (p *parser) literal() (tern.Term, error) {
	rest := p.rest()[1:]
	var b strings.Builder
	i := 0
	for {
		if i >= len(rest) {
			return nil, fmt.Errorf("unterminated literal")
		}
		c := rest[i]
		if c == '"' {
			break
		}
		if c == '\\' {
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("dangling escape")
			}
			switch rest[i+1] {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return nil, fmt.Errorf("unknown escape \\%c", rest[i+1])
			}
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	p.pos += 1 + i + 1
	lit := tern.Literal{Value: b.String()}
	switch {
	case p.peek() == '@':
		p.pos++
		rest := p.rest()
		end := 0
		for end < len(rest) && !isTermBoundary(rest[end]) {
			end++
		}
		lit.Language = rest[:end]
		p.pos += end
	case strings.HasPrefix(p.rest(), "^^<"):
		p.pos += 2
		dt, err := p.iri()
		if err != nil {
			return nil, err
		}
		lit.Datatype = dt.(tern.IRI)
	}
	return lit, nil
}

func (p *parser) rest() string { return p.input[p.pos:] }

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isTermBoundary(c byte) bool {
	return c == ' ' || c == '\t'
}

// Decoder reads N-Quads statements from a stream, skipping blank lines and
// comment lines.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{scanner: bufio.NewScanner(r)}
}

// Decode returns the next statement, or io.EOF at end of input.
func (d *Decoder) Decode() (tern.Statement, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return ParseStatement(line)
	}
	if err := d.scanner.Err(); err != nil {
		return tern.Statement{}, err
	}
	return tern.Statement{}, io.EOF
}

// Encoder writes statements as N-Quads lines.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

func (e *Encoder) Encode(st tern.Statement) error {
	_, err := io.WriteString(e.w, FormatStatement(st)+"\n")
	return err
}
