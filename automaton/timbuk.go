package automaton

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Timbuk A word automaton read from the Timbuk format, with the names of its states.
//
//	Ops a:1 b:1 x:0
//	Automaton A
//	States q0 q1
//	Final States q1
//	Transitions
//	x -> q0
//	a(q0) -> q1
//
// Nullary symbols mark start states; unary symbols label transitions. (* comments *) may span lines.
type Timbuk struct {
	Name       string
	Automaton  *Automaton
	StateNames []string
}

// StripComments Removes every (* ... *) comment. An unterminated comment runs to the end of the input.
func StripComments(s string) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, "(*")
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		j := strings.Index(s[i+2:], "*)")
		if j < 0 {
			return sb.String()
		}
		s = s[i+2+j+2:]
	}
}

type timbukReader struct {
	alphabet *Alphabet
	builder  *Builder
	states   map[string]int
	names    []string
	nullary  map[string]bool
	line     int
}

func (r *timbukReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: timbuk line %d: %s", ErrSyntax, r.line, fmt.Sprintf(format, args...))
}

func (r *timbukReader) state(name string) int {
	if name = stateName(name); name == "" {
		return -1
	}
	if s, ok := r.states[name]; ok {
		return s
	}
	s := r.builder.CreateState()
	r.states[name] = s
	r.names = append(r.names, name)
	return s
}

// stateName Drops the ":arity" annotation some writers attach to states.
func stateName(token string) string {
	if i := strings.IndexByte(token, ':'); i >= 0 {
		token = token[:i]
	}
	return strings.TrimSpace(token)
}

// ReadTimbuk Parses a Timbuk word automaton, interning its unary symbols into alphabet.
func ReadTimbuk(in io.Reader, alphabet *Alphabet) (*Timbuk, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	r := &timbukReader{
		alphabet: alphabet,
		builder:  NewBuilder(),
		states:   make(map[string]int),
		nullary:  make(map[string]bool),
	}
	result := &Timbuk{}

	inTransitions := false
	scanner := bufio.NewScanner(strings.NewReader(StripComments(string(data))))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		r.line++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch {
		case fields[0] == "Ops":
			for _, op := range fields[1:] {
				name, arity, ok := strings.Cut(op, ":")
				if !ok {
					return nil, r.errorf("operation %q lacks an arity", op)
				}
				switch arity {
				case "0":
					r.nullary[name] = true
				case "1":
					alphabet.Intern(name)
				default:
					return nil, r.errorf("operation %q: only arities 0 and 1 describe word automata", op)
				}
			}
		case fields[0] == "Automaton":
			if len(fields) > 1 {
				result.Name = fields[1]
			}
		case fields[0] == "States":
			for _, name := range fields[1:] {
				r.state(name)
			}
		case fields[0] == "Final" && len(fields) > 1 && fields[1] == "States":
			for _, name := range fields[2:] {
				if s := r.state(name); s >= 0 {
					r.builder.SetAccept(s, true)
				}
			}
		case fields[0] == "Transitions":
			inTransitions = true
		case inTransitions:
			if err := r.transition(line); err != nil {
				return nil, err
			}
		default:
			return nil, r.errorf("unexpected %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.Automaton = r.builder.Finish()
	result.StateNames = r.names
	return result, nil
}

func (r *timbukReader) transition(line string) error {
	lhs, rhs, ok := strings.Cut(line, "->")
	if !ok {
		return r.errorf("expected '->' in %q", line)
	}
	dest := r.state(rhs)
	if dest < 0 {
		return r.errorf("missing destination state in %q", line)
	}

	lhs = strings.TrimSpace(lhs)
	open := strings.IndexByte(lhs, '(')
	if open < 0 {
		if !r.nullary[lhs] && lhs != "x" {
			return r.errorf("symbol %q used without a source state", lhs)
		}
		r.builder.SetStart(dest, true)
		return nil
	}
	if !strings.HasSuffix(lhs, ")") {
		return r.errorf("expected ')' in %q", line)
	}
	symbol := strings.TrimSpace(lhs[:open])
	if symbol == "" {
		return r.errorf("missing symbol in %q", line)
	}
	src := r.state(lhs[open+1 : len(lhs)-1])
	if src < 0 {
		return r.errorf("missing source state in %q", line)
	}
	r.builder.AddTransitionLabel(src, dest, r.alphabet.Intern(symbol))
	return nil
}

// WriteTimbuk Writes a in the Timbuk format. Symbols are named through alphabet, states through
// stateNames when it is long enough and as q<n> otherwise. The start marker symbol is x.
func WriteTimbuk(out io.Writer, name string, a *Automaton, alphabet *Alphabet, stateNames []string) error {
	a.FinishState()
	w := bufio.NewWriter(out)
	nameOf := func(s int) string {
		if s < len(stateNames) {
			return stateNames[s]
		}
		return fmt.Sprintf("q%d", s)
	}

	edges := a.Edges()
	used := make(map[int]bool)
	var symbols []int
	for _, e := range edges {
		if !used[e.Symbol] {
			used[e.Symbol] = true
			symbols = append(symbols, e.Symbol)
		}
	}

	fmt.Fprint(w, "Ops")
	for s := 0; s < alphabet.Len(); s++ {
		if used[s] {
			fmt.Fprintf(w, " %s:1", alphabet.Name(s))
		}
	}
	for _, s := range symbols {
		if s >= alphabet.Len() {
			fmt.Fprintf(w, " %s:1", alphabet.Name(s))
		}
	}
	fmt.Fprint(w, " x:0\n\n")
	fmt.Fprintf(w, "Automaton %s\n\n", name)

	fmt.Fprint(w, "States")
	for s := 0; s < a.GetNumStates(); s++ {
		fmt.Fprintf(w, " %s", nameOf(s))
	}
	fmt.Fprint(w, "\n\nFinal States")
	for _, s := range a.AcceptStates() {
		fmt.Fprintf(w, " %s", nameOf(s))
	}
	fmt.Fprint(w, "\n\nTransitions\n")
	for _, s := range a.StartStates() {
		fmt.Fprintf(w, "x -> %s\n", nameOf(s))
	}
	for _, e := range edges {
		fmt.Fprintf(w, "%s(%s) -> %s\n", alphabet.Name(e.Symbol), nameOf(e.Source), nameOf(e.Dest))
	}
	return w.Flush()
}
