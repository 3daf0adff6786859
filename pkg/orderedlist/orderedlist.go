// Package orderedlist provides a doubly-linked list of strings whose
// insertions return stable node handles usable for O(1) removal.
//
// Handles stay valid across unrelated insertions and removals on the same
// list; a handle is spent once its own node has been removed. The package
// exists to back the stream-summary buckets, which must move an entry
// between lists without scanning - it is intentionally not a generic
// container library.
package orderedlist

// A Node is a handle to one element of a List. It remains valid until the
// exact node it references is removed.
type Node struct {
	value string
	prev  *Node
	next  *Node
	list  *List
}

// Value returns the payload stored in the node.
func (n *Node) Value() string {
	return n.value
}

// List is a doubly-linked list. The zero value is an empty list ready to use.
type List struct {
	head *Node
	tail *Node
	size int
}

// New returns an empty list.
func New() *List {
	return &List{}
}

// PushBack appends value at the tail and returns a handle to the new node.
func (l *List) PushBack(value string) *Node {
	node := &Node{value: value, prev: l.tail, list: l}

	if l.tail == nil {
		l.head = node
	} else {
		l.tail.next = node
	}

	l.tail = node
	l.size++

	return node
}

// PushFront prepends value at the head and returns a handle to the new node.
func (l *List) PushFront(value string) *Node {
	node := &Node{value: value, next: l.head, list: l}

	if l.head == nil {
		l.tail = node
	} else {
		l.head.prev = node
	}

	l.head = node
	l.size++

	return node
}

// PopFront removes and returns the front payload. ok is false on an empty
// list.
func (l *List) PopFront() (value string, ok bool) {
	if l.head == nil {
		return "", false
	}

	node := l.head
	l.detach(node)

	return node.value, true
}

// PopBack removes and returns the back payload. ok is false on an empty list.
func (l *List) PopBack() (value string, ok bool) {
	if l.tail == nil {
		return "", false
	}

	node := l.tail
	l.detach(node)

	return node.value, true
}

// Remove detaches the node referenced by the handle. The handle is spent
// afterwards. Removing a spent handle, or a handle produced by a different
// list, is a programming error and panics.
func (l *List) Remove(node *Node) {
	if node.list != l {
		panic("orderedlist: remove of spent or foreign handle")
	}

	l.detach(node)
}

// detach unlinks node and marks its handle spent. Removing the only node
// resets both endpoints.
func (l *List) detach(node *Node) {
	if node.prev == nil {
		l.head = node.next
	} else {
		node.prev.next = node.next
	}

	if node.next == nil {
		l.tail = node.prev
	} else {
		node.next.prev = node.prev
	}

	node.prev = nil
	node.next = nil
	node.list = nil
	l.size--
}

// Empty reports whether the list holds no nodes.
func (l *List) Empty() bool {
	return l.head == nil
}

// Len returns the number of nodes in the list.
func (l *List) Len() int {
	return l.size
}

// Values returns a snapshot of the payloads from head to tail.
func (l *List) Values() []string {
	values := make([]string, 0, l.size)
	for node := l.head; node != nil; node = node.next {
		values = append(values, node.value)
	}

	return values
}
