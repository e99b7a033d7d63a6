package automaton

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Kind int

const (
	REGEXP_UNION         = Kind(iota) // The union of two expressions
	REGEXP_CONCATENATION              // A sequence of two expressions
	REGEXP_INTERSECTION               // The intersection of two expressions
	REGEXP_OPTIONAL                   // An optional expression
	REGEXP_REPEAT                     // An expression that repeats
	REGEXP_REPEAT_MIN                 // An expression that repeats a minimum number of times
	REGEXP_REPEAT_MINMAX              // An expression that repeats a minimum and maximum number of times
	REGEXP_COMPLEMENT                 // The complement of an expression
	REGEXP_SYMBOL                     // A single symbol
	REGEXP_ANYSYMBOL                  // Any symbol of the alphabet
	REGEXP_EMPTY                      // The empty language
	REGEXP_STRING                     // A sequence of symbols
	REGEXP_ANYSTRING                  // Any string over the alphabet
)

// Syntax flags.
const (
	INTERSECTION = 0x0001 // Enables '&'
	COMPLEMENT   = 0x0002 // Enables '~'
	EMPTY        = 0x0004 // Enables '#'
	ANYSTRING    = 0x0008 // Enables '@'
	NAMED        = 0x0010 // Enables <name> for multi-character symbols
	ALL          = 0xff
	NONE         = 0x0000
)

// RegExp A regular expression over the symbols of an Alphabet. Every character is a symbol named by
// that character, and <name> denotes the symbol called name. Symbols are interned into the alphabet
// while parsing; "." and "@" range over the alphabet as it is when ToAutomaton is called, so parse
// every expression that shares the alphabet before converting any of them.
//
// Syntax, by decreasing precedence:
//
//	~e       complement (COMPLEMENT)
//	e? e* e+ e{n} e{n,} e{n,m}
//	e1e2     concatenation
//	e1&e2    intersection (INTERSECTION)
//	e1|e2    union
//
// with atoms: a char, \c an escaped char, [abc] [a-c] [^ab] classes, . any symbol, # the empty language
// (EMPTY), @ any string (ANYSTRING), "s" a literal string, () the empty string, <name> (NAMED).
type RegExp struct {
	kind       Kind
	exp1, exp2 *RegExp
	symbols    []int
	min, max   int

	alphabet       *Alphabet
	originalString []rune
	flags          int
	pos            int
}

type regExpOption struct {
	syntaxFlags int
}

type RegExpOption func(*regExpOption)

func WithSyntaxFlags(flags int) RegExpOption {
	return func(o *regExpOption) {
		o.syntaxFlags = flags
	}
}

// NewRegExp Parses s, interning its symbols into alphabet.
func NewRegExp(s string, alphabet *Alphabet, options ...RegExpOption) (*RegExp, error) {
	opts := &regExpOption{
		syntaxFlags: ALL,
	}
	for _, fn := range options {
		fn(opts)
	}
	if opts.syntaxFlags > ALL || opts.syntaxFlags < 0 {
		return nil, fmt.Errorf("illegal syntax flags %#x", opts.syntaxFlags)
	}

	exp := &RegExp{
		alphabet:       alphabet,
		originalString: []rune(s),
		flags:          opts.syntaxFlags,
	}

	var e *RegExp
	var err error
	if len(s) == 0 {
		e = exp.makeString(nil)
	} else {
		e, err = exp.parseUnionExp()
		if err != nil {
			return nil, err
		}
		if exp.more() {
			return nil, exp.syntaxError("end-of-string expected")
		}
	}
	exp.kind = e.kind
	exp.exp1 = e.exp1
	exp.exp2 = e.exp2
	exp.symbols = e.symbols
	exp.min = e.min
	exp.max = e.max
	return exp, nil
}

func (r *RegExp) syntaxError(msg string) error {
	return fmt.Errorf("%w: %s at position %d in %q", ErrSyntax, msg, r.pos, string(r.originalString))
}

func (r *RegExp) node(kind Kind, exp1, exp2 *RegExp) *RegExp {
	return &RegExp{kind: kind, exp1: exp1, exp2: exp2, alphabet: r.alphabet, flags: r.flags}
}

func (r *RegExp) makeUnion(exp1, exp2 *RegExp) *RegExp {
	return r.node(REGEXP_UNION, exp1, exp2)
}

func (r *RegExp) makeConcatenation(exp1, exp2 *RegExp) *RegExp {
	// Adjacent literals fold into one string.
	if isLiteral(exp1) && isLiteral(exp2) {
		symbols := append(append([]int{}, exp1.symbols...), exp2.symbols...)
		return r.makeString(symbols)
	}
	return r.node(REGEXP_CONCATENATION, exp1, exp2)
}

func isLiteral(e *RegExp) bool {
	return e.kind == REGEXP_SYMBOL || e.kind == REGEXP_STRING
}

func (r *RegExp) makeIntersection(exp1, exp2 *RegExp) *RegExp {
	return r.node(REGEXP_INTERSECTION, exp1, exp2)
}

func (r *RegExp) makeOptional(exp *RegExp) *RegExp {
	return r.node(REGEXP_OPTIONAL, exp, nil)
}

func (r *RegExp) makeRepeat(exp *RegExp) *RegExp {
	return r.node(REGEXP_REPEAT, exp, nil)
}

func (r *RegExp) makeRepeatMin(exp *RegExp, min int) *RegExp {
	e := r.node(REGEXP_REPEAT_MIN, exp, nil)
	e.min = min
	return e
}

func (r *RegExp) makeRepeatRange(exp *RegExp, min, max int) *RegExp {
	e := r.node(REGEXP_REPEAT_MINMAX, exp, nil)
	e.min, e.max = min, max
	return e
}

func (r *RegExp) makeComplement(exp *RegExp) *RegExp {
	return r.node(REGEXP_COMPLEMENT, exp, nil)
}

func (r *RegExp) makeSymbol(name string) *RegExp {
	e := r.node(REGEXP_SYMBOL, nil, nil)
	e.symbols = []int{r.alphabet.Intern(name)}
	return e
}

func (r *RegExp) makeSymbolRange(from, to rune) (*RegExp, error) {
	if from > to {
		return nil, r.syntaxError(fmt.Sprintf("invalid range %c-%c", from, to))
	}
	e := r.makeSymbol(string(from))
	for c := from + 1; c <= to; c++ {
		e = r.makeUnion(e, r.makeSymbol(string(c)))
	}
	return e, nil
}

func (r *RegExp) makeString(symbols []int) *RegExp {
	e := r.node(REGEXP_STRING, nil, nil)
	e.symbols = symbols
	return e
}

// ToAutomaton Converts the expression into an automaton over the ids of its alphabet.
func (r *RegExp) ToAutomaton(determinizeWorkLimit int) (*Automaton, error) {
	a, err := r.toAutomatonInternal(determinizeWorkLimit)
	if err != nil {
		return nil, err
	}
	trimmed, _ := Trim(a)
	return trimmed, nil
}

func (r *RegExp) toAutomatonInternal(determinizeWorkLimit int) (*Automaton, error) {
	maxSymbol := r.alphabet.Len() - 1

	switch r.kind {
	case REGEXP_UNION, REGEXP_CONCATENATION:
		list := make([]*Automaton, 0)
		if err := r.findLeaves(r.exp1, r.kind, &list, determinizeWorkLimit); err != nil {
			return nil, err
		}
		if err := r.findLeaves(r.exp2, r.kind, &list, determinizeWorkLimit); err != nil {
			return nil, err
		}
		if r.kind == REGEXP_UNION {
			return Union(list...), nil
		}
		return Concatenate(list...), nil
	case REGEXP_INTERSECTION:
		a1, err := r.exp1.toAutomatonInternal(determinizeWorkLimit)
		if err != nil {
			return nil, err
		}
		a2, err := r.exp2.toAutomatonInternal(determinizeWorkLimit)
		if err != nil {
			return nil, err
		}
		a, _ := Intersection(a1, a2, false)
		return a, nil
	case REGEXP_OPTIONAL, REGEXP_REPEAT, REGEXP_REPEAT_MIN, REGEXP_REPEAT_MINMAX, REGEXP_COMPLEMENT:
		a1, err := r.exp1.toAutomatonInternal(determinizeWorkLimit)
		if err != nil {
			return nil, err
		}
		switch r.kind {
		case REGEXP_OPTIONAL:
			return Optional(a1), nil
		case REGEXP_REPEAT:
			return Repeat(a1), nil
		case REGEXP_REPEAT_MIN:
			return RepeatMin(a1, r.min), nil
		case REGEXP_REPEAT_MINMAX:
			return RepeatRange(a1, r.min, r.max), nil
		default:
			return Complement(a1, maxSymbol, determinizeWorkLimit)
		}
	case REGEXP_SYMBOL, REGEXP_STRING:
		return defaultAutomata.MakeString(r.symbols)
	case REGEXP_ANYSYMBOL:
		if maxSymbol < 0 {
			return defaultAutomata.MakeEmpty(), nil
		}
		return defaultAutomata.MakeSymbolRange(0, maxSymbol)
	case REGEXP_EMPTY:
		return defaultAutomata.MakeEmpty(), nil
	case REGEXP_ANYSTRING:
		return defaultAutomata.MakeAnyString(maxSymbol + 1)
	}
	return nil, fmt.Errorf("unknown expression kind %d", r.kind)
}

func (r *RegExp) findLeaves(exp *RegExp, kind Kind, list *[]*Automaton, determinizeWorkLimit int) error {
	if exp.kind == kind {
		if err := r.findLeaves(exp.exp1, kind, list, determinizeWorkLimit); err != nil {
			return err
		}
		return r.findLeaves(exp.exp2, kind, list, determinizeWorkLimit)
	}
	automaton, err := exp.toAutomatonInternal(determinizeWorkLimit)
	if err != nil {
		return err
	}
	*list = append(*list, automaton)
	return nil
}

func (r *RegExp) String() string {
	var sb strings.Builder
	r.toStringBuilder(&sb)
	return sb.String()
}

func (r *RegExp) toStringBuilder(sb *strings.Builder) {
	switch r.kind {
	case REGEXP_UNION:
		sb.WriteString("(")
		r.exp1.toStringBuilder(sb)
		sb.WriteString("|")
		r.exp2.toStringBuilder(sb)
		sb.WriteString(")")
	case REGEXP_CONCATENATION:
		r.exp1.toStringBuilder(sb)
		r.exp2.toStringBuilder(sb)
	case REGEXP_INTERSECTION:
		sb.WriteString("(")
		r.exp1.toStringBuilder(sb)
		sb.WriteString("&")
		r.exp2.toStringBuilder(sb)
		sb.WriteString(")")
	case REGEXP_OPTIONAL, REGEXP_REPEAT, REGEXP_REPEAT_MIN, REGEXP_REPEAT_MINMAX:
		sb.WriteString("(")
		r.exp1.toStringBuilder(sb)
		sb.WriteString(")")
		switch r.kind {
		case REGEXP_OPTIONAL:
			sb.WriteString("?")
		case REGEXP_REPEAT:
			sb.WriteString("*")
		case REGEXP_REPEAT_MIN:
			fmt.Fprintf(sb, "{%d,}", r.min)
		default:
			fmt.Fprintf(sb, "{%d,%d}", r.min, r.max)
		}
	case REGEXP_COMPLEMENT:
		sb.WriteString("~(")
		r.exp1.toStringBuilder(sb)
		sb.WriteString(")")
	case REGEXP_SYMBOL, REGEXP_STRING:
		for _, s := range r.symbols {
			name := r.alphabet.Name(s)
			if len([]rune(name)) == 1 {
				sb.WriteString(name)
			} else {
				sb.WriteString("<" + name + ">")
			}
		}
	case REGEXP_ANYSYMBOL:
		sb.WriteString(".")
	case REGEXP_EMPTY:
		sb.WriteString("#")
	case REGEXP_ANYSTRING:
		sb.WriteString("@")
	}
}

func (r *RegExp) more() bool {
	return r.pos < len(r.originalString)
}

func (r *RegExp) peek(s string) bool {
	return r.more() && strings.ContainsRune(s, r.originalString[r.pos])
}

func (r *RegExp) match(c rune) bool {
	if r.pos >= len(r.originalString) {
		return false
	}
	if r.originalString[r.pos] == c {
		r.pos++
		return true
	}
	return false
}

func (r *RegExp) next() (rune, error) {
	if !r.more() {
		return 0, io.ErrUnexpectedEOF
	}
	ch := r.originalString[r.pos]
	r.pos++
	return ch, nil
}

func (r *RegExp) check(flags int) bool {
	return r.flags&flags != 0
}

func (r *RegExp) parseUnionExp() (*RegExp, error) {
	e, err := r.parseInterExp()
	if err != nil {
		return nil, err
	}
	if r.match('|') {
		e2, err := r.parseUnionExp()
		if err != nil {
			return nil, err
		}
		e = r.makeUnion(e, e2)
	}
	return e, nil
}

func (r *RegExp) parseInterExp() (*RegExp, error) {
	e, err := r.parseConcatExp()
	if err != nil {
		return nil, err
	}
	if r.check(INTERSECTION) && r.match('&') {
		e2, err := r.parseInterExp()
		if err != nil {
			return nil, err
		}
		e = r.makeIntersection(e, e2)
	}
	return e, nil
}

func (r *RegExp) parseConcatExp() (*RegExp, error) {
	e, err := r.parseRepeatExp()
	if err != nil {
		return nil, err
	}
	if r.more() && !r.peek(")|") && (!r.check(INTERSECTION) || !r.peek("&")) {
		e2, err := r.parseConcatExp()
		if err != nil {
			return nil, err
		}
		e = r.makeConcatenation(e, e2)
	}
	return e, nil
}

func (r *RegExp) parseInt() (int, bool) {
	start := r.pos
	for r.peek("0123456789") {
		r.pos++
	}
	if start == r.pos {
		return 0, false
	}
	n, err := strconv.Atoi(string(r.originalString[start:r.pos]))
	return n, err == nil
}

func (r *RegExp) parseRepeatExp() (*RegExp, error) {
	e, err := r.parseComplExp()
	if err != nil {
		return nil, err
	}

	for r.peek("?*+{") {
		if r.match('?') {
			e = r.makeOptional(e)
		} else if r.match('*') {
			e = r.makeRepeat(e)
		} else if r.match('+') {
			e = r.makeRepeatMin(e, 1)
		} else if r.match('{') {
			n, ok := r.parseInt()
			if !ok {
				return nil, r.syntaxError("integer expected")
			}
			m := n
			if r.match(',') {
				m = -1
				if v, ok := r.parseInt(); ok {
					m = v
				}
			}
			if !r.match('}') {
				return nil, r.syntaxError("expected '}'")
			}
			if m == -1 {
				e = r.makeRepeatMin(e, n)
			} else {
				e = r.makeRepeatRange(e, n, m)
			}
		}
	}

	return e, nil
}

func (r *RegExp) parseComplExp() (*RegExp, error) {
	if r.check(COMPLEMENT) && r.match('~') {
		e2, err := r.parseComplExp()
		if err != nil {
			return nil, err
		}
		return r.makeComplement(e2), nil
	}
	return r.parseCharClassExp()
}

func (r *RegExp) parseCharClassExp() (*RegExp, error) {
	if r.match('[') {
		negate := r.match('^')
		e, err := r.parseCharClasses()
		if err != nil {
			return nil, err
		}
		if negate {
			e = r.makeIntersection(r.node(REGEXP_ANYSYMBOL, nil, nil), r.makeComplement(e))
		}
		if !r.match(']') {
			return nil, r.syntaxError("expected ']'")
		}
		return e, nil
	}
	return r.parseSimpleExp()
}

func (r *RegExp) parseCharClasses() (*RegExp, error) {
	e, err := r.parseCharClass()
	if err != nil {
		return nil, err
	}
	for r.more() && !r.peek("]") {
		e2, err := r.parseCharClass()
		if err != nil {
			return nil, err
		}
		e = r.makeUnion(e, e2)
	}
	return e, nil
}

func (r *RegExp) parseCharClass() (*RegExp, error) {
	c, err := r.parseCharExp()
	if err != nil {
		return nil, err
	}
	if r.match('-') {
		c2, err := r.parseCharExp()
		if err != nil {
			return nil, err
		}
		return r.makeSymbolRange(c, c2)
	}
	return r.makeSymbol(string(c)), nil
}

func (r *RegExp) parseSimpleExp() (*RegExp, error) {
	if r.match('.') {
		return r.node(REGEXP_ANYSYMBOL, nil, nil), nil
	} else if r.check(EMPTY) && r.match('#') {
		return r.node(REGEXP_EMPTY, nil, nil), nil
	} else if r.check(ANYSTRING) && r.match('@') {
		return r.node(REGEXP_ANYSTRING, nil, nil), nil
	} else if r.match('"') {
		start := r.pos
		for r.more() && !r.peek("\"") {
			r.pos++
		}
		if !r.match('"') {
			return nil, r.syntaxError("expected '\"'")
		}
		var symbols []int
		for _, c := range r.originalString[start : r.pos-1] {
			symbols = append(symbols, r.alphabet.Intern(string(c)))
		}
		return r.makeString(symbols), nil
	} else if r.match('(') {
		if r.match(')') {
			return r.makeString(nil), nil
		}
		e, err := r.parseUnionExp()
		if err != nil {
			return nil, err
		}
		if !r.match(')') {
			return nil, r.syntaxError("expected ')'")
		}
		return e, nil
	} else if r.check(NAMED) && r.match('<') {
		start := r.pos
		for r.more() && !r.peek(">") {
			r.pos++
		}
		if !r.match('>') {
			return nil, r.syntaxError("expected '>'")
		}
		name := string(r.originalString[start : r.pos-1])
		if name == "" {
			return nil, r.syntaxError("empty symbol name")
		}
		return r.makeSymbol(name), nil
	}

	c, err := r.parseCharExp()
	if err != nil {
		return nil, err
	}
	return r.makeSymbol(string(c)), nil
}

func (r *RegExp) parseCharExp() (rune, error) {
	r.match('\\')
	c, err := r.next()
	if err != nil {
		return 0, r.syntaxError("unexpected end of expression")
	}
	return c, nil
}
