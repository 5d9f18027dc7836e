package container

// Ordered is satisfied by any type with well-defined `<` comparison: the
// integer, float, and string kinds the compiler uses for keys (entity IDs,
// source offsets, interned symbol names).
type Ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~string
}

// degree bounds the number of keys held directly in a single B+-tree node
// before it splits. Compiler workloads (constant pools, symbol tables,
// relocation offsets) are small, so a modest fanout keeps nodes cache-line
// sized without the rebalancing cost of a textbook B-tree.
const degree = 8

// nodeID references a node by its index into the tree's shared pool, rather
// than by pointer: this keeps the tree relocatable and avoids a GC pointer
// per edge, matching how the rest of the compiler threads entities through
// PrimaryMap-style pools instead of raw pointers.
type nodeID int32

const nilNode nodeID = -1

type btreeNode[K Ordered, V any] struct {
	leaf     bool
	keys     []K
	values   []V      // populated only for leaves.
	children []nodeID // populated only for internal nodes; len(children) == len(keys)+1.
	next     nodeID   // leaf chain, for in-order range iteration without recursion.
}

// OrderedMap is a pooled B+-tree-backed map with ordered iteration. Keys are
// unique; Insert overwrites the value of an existing key.
type OrderedMap[K Ordered, V any] struct {
	pool []btreeNode[K, V]
	root nodeID
	size int
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[K Ordered, V any]() *OrderedMap[K, V] {
	m := &OrderedMap[K, V]{root: nilNode}
	m.root = m.newLeaf()
	return m
}

func (m *OrderedMap[K, V]) newLeaf() nodeID {
	id := nodeID(len(m.pool))
	m.pool = append(m.pool, btreeNode[K, V]{leaf: true, next: nilNode})
	return id
}

func (m *OrderedMap[K, V]) newInternal() nodeID {
	id := nodeID(len(m.pool))
	m.pool = append(m.pool, btreeNode[K, V]{leaf: false})
	return id
}

func (m *OrderedMap[K, V]) node(id nodeID) *btreeNode[K, V] {
	return &m.pool[id]
}

// Len returns the number of entries in the map.
func (m *OrderedMap[K, V]) Len() int { return m.size }

// Get returns the value for key and whether it was present.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	id := m.root
	for {
		n := m.node(id)
		i := lowerBound(n.keys, key)
		if n.leaf {
			if i < len(n.keys) && n.keys[i] == key {
				return n.values[i], true
			}
			var zero V
			return zero, false
		}
		if i < len(n.keys) && n.keys[i] == key {
			i++ // A separator key is the first key of its right subtree.
		}
		id = n.children[i]
	}
}

// Insert adds key -> value, overwriting any existing value for key.
func (m *OrderedMap[K, V]) Insert(key K, value V) {
	newChild, midKey, split := m.insert(m.root, key, value)
	if split {
		root := m.newInternal()
		r := m.node(root)
		r.keys = []K{midKey}
		r.children = []nodeID{m.root, newChild}
		m.root = root
	}
}

// insert inserts into the subtree rooted at id. If the node overflows it is
// split and the new right sibling, its separator key, and true are returned.
func (m *OrderedMap[K, V]) insert(id nodeID, key K, value V) (nodeID, K, bool) {
	n := m.node(id)
	i := lowerBound(n.keys, key)

	if n.leaf {
		if i < len(n.keys) && n.keys[i] == key {
			n.values[i] = value
			return nilNode, key, false
		}
		n.keys = insertAt(n.keys, i, key)
		n.values = insertAt(n.values, i, value)
		m.size++
		if len(n.keys) <= degree {
			return nilNode, key, false
		}
		return m.splitLeaf(id)
	}

	if i < len(n.keys) && n.keys[i] == key {
		i++ // A separator key is the first key of its right subtree.
	}
	childID := n.children[i]
	newChild, midKey, split := m.insert(childID, key, value)
	if !split {
		return nilNode, key, false
	}
	n = m.node(id)
	n.keys = insertAt(n.keys, i, midKey)
	n.children = insertAt(n.children, i+1, newChild)
	if len(n.keys) <= degree {
		return nilNode, key, false
	}
	return m.splitInternal(id)
}

func (m *OrderedMap[K, V]) splitLeaf(id nodeID) (nodeID, K, bool) {
	n := m.node(id)
	mid := len(n.keys) / 2
	rightID := m.newLeaf()

	rightKeys := append([]K(nil), n.keys[mid:]...)
	rightValues := append([]V(nil), n.values[mid:]...)

	n = m.node(id)
	n.keys = n.keys[:mid]
	n.values = n.values[:mid]

	right := m.node(rightID)
	right.keys = rightKeys
	right.values = rightValues
	right.next = n.next
	n.next = rightID

	return rightID, right.keys[0], true
}

func (m *OrderedMap[K, V]) splitInternal(id nodeID) (nodeID, K, bool) {
	n := m.node(id)
	mid := len(n.keys) / 2
	midKey := n.keys[mid]
	rightID := m.newInternal()

	rightKeys := append([]K(nil), n.keys[mid+1:]...)
	rightChildren := append([]nodeID(nil), n.children[mid+1:]...)

	n = m.node(id)
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]

	right := m.node(rightID)
	right.keys = rightKeys
	right.children = rightChildren

	return rightID, midKey, true
}

// Remove deletes key from the map, if present, and reports whether it was.
//
// Nodes are not rebalanced below the degree threshold on removal: compiler
// workloads build these maps once and iterate, so the implementation favors
// simple, correct deletion over reclaiming underfull nodes.
func (m *OrderedMap[K, V]) Remove(key K) bool {
	id := m.root
	for {
		n := m.node(id)
		i := lowerBound(n.keys, key)
		if n.leaf {
			if i < len(n.keys) && n.keys[i] == key {
				n.keys = removeAt(n.keys, i)
				n.values = removeAt(n.values, i)
				m.size--
				return true
			}
			return false
		}
		if i < len(n.keys) && n.keys[i] == key {
			i++ // A separator key is the first key of its right subtree.
		}
		id = n.children[i]
	}
}

// All iterates entries in ascending key order.
func (m *OrderedMap[K, V]) All(yield func(K, V) bool) {
	id := m.firstLeaf()
	for id != nilNode {
		n := m.node(id)
		for i, k := range n.keys {
			if !yield(k, n.values[i]) {
				return
			}
		}
		id = n.next
	}
}

// Range iterates entries with key in [lo, hi) in ascending order.
func (m *OrderedMap[K, V]) Range(lo, hi K, yield func(K, V) bool) {
	id := m.root
	for {
		n := m.node(id)
		i := lowerBound(n.keys, lo)
		if n.leaf {
			for ; i < len(n.keys) && n.keys[i] < hi; i++ {
				if !yield(n.keys[i], n.values[i]) {
					return
				}
			}
			next := n.next
			for next != nilNode {
				ln := m.node(next)
				for i, k := range ln.keys {
					if k >= hi {
						return
					}
					if !yield(k, ln.values[i]) {
						return
					}
				}
				next = ln.next
			}
			return
		}
		id = n.children[i]
	}
}

func (m *OrderedMap[K, V]) firstLeaf() nodeID {
	id := m.root
	for {
		n := m.node(id)
		if n.leaf {
			return id
		}
		id = n.children[0]
	}
}

func lowerBound[K Ordered](keys []K, key K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}

// OrderedSet is an OrderedMap with struct{} values, giving an ordered set
// with insert, remove, ascending iteration and bulk clear. It has no Range
// method; range iteration is available only on OrderedMap.
type OrderedSet[K Ordered] struct {
	m *OrderedMap[K, struct{}]
}

// NewOrderedSet creates an empty OrderedSet.
func NewOrderedSet[K Ordered]() *OrderedSet[K] {
	return &OrderedSet[K]{m: NewOrderedMap[K, struct{}]()}
}

// Insert adds key to the set.
func (s *OrderedSet[K]) Insert(key K) { s.m.Insert(key, struct{}{}) }

// Remove deletes key from the set, reporting whether it was present.
func (s *OrderedSet[K]) Remove(key K) bool { return s.m.Remove(key) }

// Contains reports whether key is in the set.
func (s *OrderedSet[K]) Contains(key K) bool {
	_, ok := s.m.Get(key)
	return ok
}

// Len returns the number of elements in the set.
func (s *OrderedSet[K]) Len() int { return s.m.Len() }

// All iterates elements in ascending order.
func (s *OrderedSet[K]) All(yield func(K) bool) {
	s.m.All(func(k K, _ struct{}) bool { return yield(k) })
}

// BulkClear removes every element in keys from the set, skipping keys that
// were never inserted.
func (s *OrderedSet[K]) BulkClear(keys []K) {
	for _, k := range keys {
		s.m.Remove(k)
	}
}
