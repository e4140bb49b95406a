package mqtt

import "log"

// outboundMsg is one publish held back while the broker is unreachable.
type outboundMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue holds unpublished messages in arrival order, dropping the
// oldest once full. This daemon emits a handful of events per day plus
// heartbeats, so hitting the cap means the broker has been gone for days.
// Not safe for concurrent use; the publisher holds the lock.
type offlineQueue struct {
	msgs    []outboundMsg
	max     int
	dropped bool
}

func newOfflineQueue(max int) *offlineQueue {
	return &offlineQueue{max: max}
}

func (q *offlineQueue) push(m outboundMsg) {
	if len(q.msgs) == q.max {
		if !q.dropped {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", q.max)
			q.dropped = true
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = m
		return
	}
	q.msgs = append(q.msgs, m)
}

// drain hands the queued messages to the caller, oldest first, and resets.
func (q *offlineQueue) drain() []outboundMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.dropped = false
	return out
}

func (q *offlineQueue) len() int {
	return len(q.msgs)
}
