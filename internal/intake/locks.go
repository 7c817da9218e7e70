package intake

import "sync"

// senderLocks serializes conversation read-modify-write per sender identity.
// The transport retries aggressively and can deliver two messages from the
// same sender concurrently; without this, both would read the same step and
// one write would clobber the other.
type senderLocks struct {
	locks sync.Map
}

func newSenderLocks() *senderLocks {
	return &senderLocks{}
}

// Lock acquires the mutex for the sender and returns its unlock function.
func (s *senderLocks) Lock(sender string) func() {
	value, _ := s.locks.LoadOrStore(sender, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
