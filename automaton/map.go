package automaton

// Hashable A key with a custom hash and equality, for keys that are not comparable with ==.
type Hashable interface {
	Hash() uint64
	Equals(other Hashable) bool
}

// HashMap A chained hash map keyed by Hashable, used to number the state sets of the subset
// construction. Not safe for concurrent use.
type HashMap[T any] struct {
	buckets    []*bucketEntry[T]
	size       int
	loadFactor float64
}

type bucketEntry[T any] struct {
	key   Hashable
	value T
	next  *bucketEntry[T]
}

type hashMapOptions struct {
	capacity   int
	loadFactor float64
}

type OptionsHashMap func(*hashMapOptions)

// WithCapacity Initial number of buckets, rounded up to a power of two.
func WithCapacity(capacity int) OptionsHashMap {
	return func(o *hashMapOptions) { o.capacity = capacity }
}

// WithLoadFactor Entries per bucket above which the table doubles.
func WithLoadFactor(loadFactor float64) OptionsHashMap {
	return func(o *hashMapOptions) { o.loadFactor = loadFactor }
}

func NewHashMap[T any](options ...OptionsHashMap) *HashMap[T] {
	o := hashMapOptions{capacity: 1, loadFactor: 0.75}
	for _, opt := range options {
		opt(&o)
	}
	n := 1
	for n < o.capacity {
		n <<= 1
	}
	return &HashMap[T]{buckets: make([]*bucketEntry[T], n), loadFactor: o.loadFactor}
}

func (m *HashMap[T]) slot(key Hashable) int {
	return int(key.Hash() & uint64(len(m.buckets)-1))
}

// Set Inserts or replaces the value for key. The map keeps key itself, so key must not change
// afterwards.
func (m *HashMap[T]) Set(key Hashable, value T) {
	i := m.slot(key)
	for e := m.buckets[i]; e != nil; e = e.next {
		if e.key.Equals(key) {
			e.value = value
			return
		}
	}
	m.buckets[i] = &bucketEntry[T]{key: key, value: value, next: m.buckets[i]}
	m.size++
	if float64(m.size) > m.loadFactor*float64(len(m.buckets)) {
		m.rehash(len(m.buckets) * 2)
	}
}

// Get Looks key up. key may be any Hashable that equals a stored key, such as a StateSet probing for
// a FrozenIntSet.
func (m *HashMap[T]) Get(key Hashable) (T, bool) {
	for e := m.buckets[m.slot(key)]; e != nil; e = e.next {
		if e.key.Equals(key) {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

func (m *HashMap[T]) rehash(n int) {
	old := m.buckets
	m.buckets = make([]*bucketEntry[T], n)
	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			i := m.slot(e.key)
			e.next = m.buckets[i]
			m.buckets[i] = e
			e = next
		}
	}
}

func (m *HashMap[T]) Size() int {
	return m.size
}
