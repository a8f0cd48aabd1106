// This file implements the recency list shared by the eviction strategies,
// and the plain LRU policy built directly on it.

package eviction

// orderNode is one key inside the recency list.
type orderNode struct {
	key  string
	prev *orderNode
	next *orderNode
}

// accessOrder is a doubly-linked list of keys ordered by recency of use.
// head is the most recently used key, tail the least. All operations are
// O(1) except oldestFirst, which walks the list.
type accessOrder struct {
	nodes map[string]*orderNode
	head  *orderNode
	tail  *orderNode
}

func newAccessOrder() *accessOrder {
	return &accessOrder{nodes: make(map[string]*orderNode)}
}

// touch moves a key to the most-recently-used position. Unknown keys are
// ignored.
func (o *accessOrder) touch(k string) {
	if n, ok := o.nodes[k]; ok {
		o.unlink(n)
		o.pushFront(n)
	}
}

// insert starts tracking a key at the most-recently-used position.
// Re-inserting an existing key just touches it.
func (o *accessOrder) insert(k string) {
	if _, ok := o.nodes[k]; ok {
		o.touch(k)
		return
	}
	n := &orderNode{key: k}
	o.nodes[k] = n
	o.pushFront(n)
}

// drop stops tracking a key.
func (o *accessOrder) drop(k string) {
	if n, ok := o.nodes[k]; ok {
		o.unlink(n)
		delete(o.nodes, k)
	}
}

// oldest returns the least recently used key, or "" when empty.
func (o *accessOrder) oldest() string {
	if o.tail == nil {
		return ""
	}
	return o.tail.key
}

// oldestFirst visits keys from least to most recently used, stopping when
// fn returns false. fn must not mutate the list.
func (o *accessOrder) oldestFirst(fn func(key string) bool) {
	for n := o.tail; n != nil; n = n.prev {
		if !fn(n.key) {
			return
		}
	}
}

func (o *accessOrder) len() int { return len(o.nodes) }

func (o *accessOrder) pushFront(n *orderNode) {
	n.prev = nil
	n.next = o.head
	if o.head != nil {
		o.head.prev = n
	}
	o.head = n
	if o.tail == nil {
		o.tail = n
	}
}

func (o *accessOrder) unlink(n *orderNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		o.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		o.tail = n.prev
	}
}

// lru is the classic least-recently-used policy: the victim is always the
// tail of the recency list.
type lru struct {
	order *accessOrder
}

func newLRU() *lru {
	return &lru{order: newAccessOrder()}
}

func (l *lru) OnGet(k string)  { l.order.touch(k) }
func (l *lru) OnPut(k string)  { l.order.insert(k) }
func (l *lru) Remove(k string) { l.order.drop(k) }

func (l *lru) Evict() string {
	k := l.order.oldest()
	if k != "" {
		l.order.drop(k)
	}
	return k
}
