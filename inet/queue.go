package inet

import (
	"sync"
)

// queueNode is the node structure underneath the Queue type.
type queueNode struct {
	next *queueNode
	line []byte
}

// Queue is a singly linked fifo of outbound lines shared between the Link's
// writers and its pump.
type Queue struct {
	mut    sync.Mutex
	front  *queueNode
	back   *queueNode
	length int
}

// Enqueue copies each line onto the back of the queue.
func (q *Queue) Enqueue(lines ...[]byte) {
	if len(lines) == 0 {
		return
	}

	nodes := make([]*queueNode, len(lines))
	for i, l := range lines {
		cpy := make([]byte, len(l))
		copy(cpy, l)
		nodes[i] = &queueNode{line: cpy}
	}

	q.mut.Lock()
	for _, n := range nodes {
		if q.length == 0 {
			q.front = n
		} else {
			q.back.next = n
		}
		q.back = n
		q.length++
	}
	q.mut.Unlock()
}

// Drain removes every queued line in order.
func (q *Queue) Drain() [][]byte {
	q.mut.Lock()
	defer q.mut.Unlock()

	if q.length == 0 {
		return nil
	}

	out := make([][]byte, 0, q.length)
	for n := q.front; n != nil; n = n.next {
		out = append(out, n.line)
	}
	q.front, q.back, q.length = nil, nil, 0
	return out
}

// Len is the number of queued lines.
func (q *Queue) Len() int {
	q.mut.Lock()
	defer q.mut.Unlock()
	return q.length
}
