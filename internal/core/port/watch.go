package port

// WatchSet is the read side of the subscription registry used by the feed
// (resubscription payload) and the dispatcher (filtering).
type WatchSet interface {
	Contains(address string) bool
	List() []string
}
