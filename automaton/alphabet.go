package automaton

import "fmt"

// Alphabet maps opaque symbol names to the dense integer ids used as transition labels. Automata that
// are compared with each other must be built against the same Alphabet.
type Alphabet struct {
	ids   map[string]int
	names []string
}

func NewAlphabet() *Alphabet {
	return &Alphabet{ids: make(map[string]int)}
}

// Intern Returns the id of name, assigning the next free id on first use.
func (al *Alphabet) Intern(name string) int {
	if id, ok := al.ids[name]; ok {
		return id
	}
	id := len(al.names)
	al.ids[name] = id
	al.names = append(al.names, name)
	return id
}

// Lookup Returns the id of name and whether it is known.
func (al *Alphabet) Lookup(name string) (int, bool) {
	id, ok := al.ids[name]
	return id, ok
}

// Name Returns the name of symbol id. Unknown ids are rendered as "#id".
func (al *Alphabet) Name(id int) string {
	if al == nil || id < 0 || id >= len(al.names) {
		return fmt.Sprintf("#%d", id)
	}
	return al.names[id]
}

// Len How many symbols have been interned.
func (al *Alphabet) Len() int {
	return len(al.names)
}

// Word Renders a symbol id sequence with the given separator.
func (al *Alphabet) Word(symbols []int, sep string) string {
	out := ""
	for i, s := range symbols {
		if i > 0 {
			out += sep
		}
		out += al.Name(s)
	}
	return out
}
