package crs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("crs: parse error")

// ParseError locates a syntax problem in a text reaction file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("crs: line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

const (
	sectionMeta      = "<meta-data>"
	sectionMolecules = "<molecules>"
	sectionReactions = "<reactions>"
)

// ReadText parses the sectioned text format:
//
//	<meta-data>
//	nrMolecules = 2
//	nrReactions = 1
//
//	<molecules>
//	[0] A
//	[1] B
//
//	<reactions>
//	[0] 1[A] + 1[B] -- 0.5 -> 2[B] STD (0.1[A])
//
// Reactions are normalized as they are read.
func ReadText(r io.Reader) (*System, error) {
	sys := &System{}
	var (
		section    string
		wantMols   = -1
		wantReacts = -1
		index      map[string]int
	)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		switch text {
		case sectionMeta, sectionMolecules, sectionReactions:
			section = text
			if section == sectionReactions {
				index = sys.MoleculeIndex()
			}
			continue
		}

		switch section {
		case sectionMeta:
			key, val, ok := strings.Cut(text, "=")
			if !ok {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected key = value, got %q", text)}
			}
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("bad count %q", strings.TrimSpace(val))}
			}
			switch strings.TrimSpace(key) {
			case "nrMolecules":
				wantMols = n
			case "nrReactions":
				wantReacts = n
			}
		case sectionMolecules:
			id, rest, err := splitID(text)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			if id != len(sys.Molecules) {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("molecule id %d out of order", id)}
			}
			sys.Molecules = append(sys.Molecules, rest)
		case sectionReactions:
			id, rest, err := splitID(text)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			if id != len(sys.Reactions) {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("reaction id %d out of order", id)}
			}
			rx, err := parseReaction(rest, index)
			if err != nil {
				if errors.Is(err, ErrUnknownMolecule) {
					return nil, fmt.Errorf("crs: line %d: %w", line, err)
				}
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			rx.ID = id
			sys.Reactions = append(sys.Reactions, rx)
		default:
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("content outside a section: %q", text)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if wantMols >= 0 && wantMols != len(sys.Molecules) {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("declared %d molecules, found %d", wantMols, len(sys.Molecules))}
	}
	if wantReacts >= 0 && wantReacts != len(sys.Reactions) {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("declared %d reactions, found %d", wantReacts, len(sys.Reactions))}
	}
	return sys, nil
}

// splitID strips the leading "[n]" from a line.
func splitID(text string) (int, string, error) {
	if !strings.HasPrefix(text, "[") {
		return 0, "", fmt.Errorf("expected [id], got %q", text)
	}
	end := strings.IndexByte(text, ']')
	if end < 0 {
		return 0, "", fmt.Errorf("unterminated id in %q", text)
	}
	id, err := strconv.Atoi(text[1:end])
	if err != nil {
		return 0, "", fmt.Errorf("bad id %q", text[1:end])
	}
	return id, strings.TrimSpace(text[end+1:]), nil
}

func parseReaction(text string, index map[string]int) (Reaction, error) {
	var rx Reaction
	lhs, rest, ok := strings.Cut(text, "--")
	if !ok {
		return rx, fmt.Errorf("missing \"--\" in %q", text)
	}
	rate, rhs, ok := strings.Cut(rest, "->")
	if !ok {
		return rx, fmt.Errorf("missing \"->\" in %q", text)
	}
	k, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil {
		return rx, fmt.Errorf("bad rate constant %q", strings.TrimSpace(rate))
	}
	rx.Constant = k

	if rx.Reactants, err = parseTerms(lhs, index); err != nil {
		return rx, err
	}

	rhs = strings.TrimSpace(rhs)
	if open := strings.IndexByte(rhs, '('); open >= 0 {
		closing := strings.LastIndexByte(rhs, ')')
		if closing < open {
			return rx, fmt.Errorf("unterminated catalyst list in %q", rhs)
		}
		if rx.Catalysts, err = parseCatalysts(rhs[open+1:closing], index); err != nil {
			return rx, err
		}
		rhs = strings.TrimSpace(rhs[:open])
	}

	fields := strings.Fields(rhs)
	if len(fields) == 0 {
		return rx, fmt.Errorf("missing propensity in %q", text)
	}
	rx.Propensity = fields[len(fields)-1]
	if rx.Products, err = parseTerms(strings.Join(fields[:len(fields)-1], " "), index); err != nil {
		return rx, err
	}
	rx.Normalize()
	return rx, nil
}

func parseTerms(text string, index map[string]int) ([]Term, error) {
	var terms []Term
	for _, tok := range strings.Fields(text) {
		if tok == "+" {
			continue
		}
		coeff, name, err := splitBracket(tok)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(coeff)
		if err != nil {
			return nil, fmt.Errorf("bad coefficient in %q", tok)
		}
		mol, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMolecule, name)
		}
		terms = append(terms, Term{Molecule: mol, Coeff: n})
	}
	return terms, nil
}

func parseCatalysts(text string, index map[string]int) ([]Catalyst, error) {
	var cats []Catalyst
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		constant, name, err := splitBracket(tok)
		if err != nil {
			return nil, err
		}
		k, err := strconv.ParseFloat(constant, 64)
		if err != nil {
			return nil, fmt.Errorf("bad catalytic constant in %q", tok)
		}
		mol, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMolecule, name)
		}
		cats = append(cats, Catalyst{Molecule: mol, Constant: k})
	}
	return cats, nil
}

// splitBracket splits "2[A]" into "2" and "A".
func splitBracket(tok string) (string, string, error) {
	open := strings.IndexByte(tok, '[')
	if open <= 0 || !strings.HasSuffix(tok, "]") {
		return "", "", fmt.Errorf("expected value[molecule], got %q", tok)
	}
	return tok[:open], tok[open+1 : len(tok)-1], nil
}

// WriteText writes sys in the format read by ReadText.
func WriteText(w io.Writer, sys *System) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, sectionMeta)
	fmt.Fprintf(bw, "nrMolecules = %d\n", len(sys.Molecules))
	fmt.Fprintf(bw, "nrReactions = %d\n\n", len(sys.Reactions))

	fmt.Fprintln(bw, sectionMolecules)
	for i, m := range sys.Molecules {
		fmt.Fprintf(bw, "[%d] %s\n", i, m)
	}

	fmt.Fprintf(bw, "\n%s\n", sectionReactions)
	for _, r := range sys.Reactions {
		fmt.Fprintf(bw, "[%d] %s\n", r.ID, sys.FormatReaction(r))
	}
	return bw.Flush()
}

// FormatReaction renders r with molecule names, as a line of the text format
// without its id.
func (s *System) FormatReaction(r Reaction) string {
	var b strings.Builder
	writeTerms(&b, s, r.Reactants)
	b.WriteString("-- ")
	b.WriteString(strconv.FormatFloat(r.Constant, 'g', -1, 64))
	b.WriteString(" -> ")
	writeTerms(&b, s, r.Products)
	prop := r.Propensity
	if prop == "" {
		prop = PropensityStandard
	}
	b.WriteString(prop)
	if len(r.Catalysts) > 0 {
		b.WriteString(" (")
		for i, c := range r.Catalysts {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s[%s]", strconv.FormatFloat(c.Constant, 'g', -1, 64), s.Molecules[c.Molecule])
		}
		b.WriteByte(')')
	}
	return b.String()
}

func writeTerms(b *strings.Builder, s *System, terms []Term) {
	for i, t := range terms {
		if i > 0 {
			b.WriteString("+ ")
		}
		fmt.Fprintf(b, "%d[%s] ", t.Coeff, s.Molecules[t.Molecule])
	}
}
