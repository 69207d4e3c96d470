package topicbus

import (
	"sort"
	"sync"

	"github.com/dshills/topicbus/topic"
)

// registry manages subscriptions indexed by topic pattern.
// It uses a trie for efficient wildcard matching.
type registry struct {
	mu sync.RWMutex

	// subs maps patterns to their subscriptions.
	subs map[topic.Topic][]*subscription

	// byID maps subscription IDs to subscriptions for fast lookup.
	byID map[string]*subscription

	// trie provides efficient pattern matching against published topics.
	trie *topic.Trie

	// nextSeq is the next registration sequence number.
	nextSeq uint64
}

// newRegistry creates a new subscription registry.
func newRegistry() *registry {
	return &registry{
		subs: make(map[topic.Topic][]*subscription),
		byID: make(map[string]*subscription),
		trie: topic.NewTrie(),
	}
}

// Add registers a subscription and assigns its sequence number.
func (r *registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub.seq = r.nextSeq
	r.nextSeq++

	pattern := sub.Pattern()
	r.subs[pattern] = append(r.subs[pattern], sub)
	r.byID[sub.ID()] = sub
	r.trie.Insert(pattern)

	// Keep per-pattern lists in delivery order for GetByPattern.
	sortSubscriptions(r.subs[pattern])
}

// Remove unregisters a subscription by ID.
// Returns true if the subscription existed.
func (r *registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byID[id]
	if !ok {
		return false
	}

	delete(r.byID, id)

	pattern := sub.Pattern()
	list := r.subs[pattern]
	for i, s := range list {
		if s.ID() == id {
			r.subs[pattern] = append(list[:i], list[i+1:]...)
			break
		}
	}

	// Drop the pattern entirely once its last subscription is gone so the
	// trie stays proportional to live patterns.
	if len(r.subs[pattern]) == 0 {
		delete(r.subs, pattern)
		r.trie.Delete(pattern)
	}

	return true
}

// Get returns a subscription by ID.
func (r *registry) Get(id string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.byID[id]
	return sub, ok
}

// GetByPattern returns all subscriptions registered under an exact pattern.
func (r *registry) GetByPattern(pattern topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.subs[pattern]
	if len(list) == 0 {
		return nil
	}

	result := make([]*subscription, len(list))
	copy(result, list)
	return result
}

// Match returns all subscriptions whose patterns match the given topic,
// ordered by priority then registration order.
func (r *registry) Match(t topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := r.trie.Match(t)
	if len(patterns) == 0 {
		return nil
	}

	var result []*subscription
	for _, pattern := range patterns {
		result = append(result, r.subs[pattern]...)
	}

	sortSubscriptions(result)
	return result
}

// MatchActive returns matching subscriptions that are currently active.
func (r *registry) MatchActive(t topic.Topic) []*subscription {
	matched := r.Match(t)
	if len(matched) == 0 {
		return nil
	}

	result := matched[:0]
	for _, sub := range matched {
		if sub.IsActive() {
			result = append(result, sub)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Count returns the total number of subscriptions.
func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountByPattern returns the number of subscriptions for an exact pattern.
func (r *registry) CountByPattern(pattern topic.Topic) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs[pattern])
}

// CountActive returns the number of active subscriptions.
func (r *registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, sub := range r.byID {
		if sub.IsActive() {
			count++
		}
	}
	return count
}

// All returns every registered subscription.
func (r *registry) All() []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*subscription, 0, len(r.byID))
	for _, sub := range r.byID {
		result = append(result, sub)
	}
	return result
}

// Patterns returns all patterns with at least one subscription.
func (r *registry) Patterns() []topic.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]topic.Topic, 0, len(r.subs))
	for pattern := range r.subs {
		result = append(result, pattern)
	}
	return result
}

// Clear removes all subscriptions.
func (r *registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = make(map[topic.Topic][]*subscription)
	r.byID = make(map[string]*subscription)
	r.trie.Clear()
}

// RemoveCancelled removes all cancelled subscriptions.
// Returns the number removed.
func (r *registry) RemoveCancelled() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var toRemove []string
	for id, sub := range r.byID {
		if sub.IsCancelled() {
			toRemove = append(toRemove, id)
		}
	}

	for _, id := range toRemove {
		sub := r.byID[id]
		delete(r.byID, id)

		pattern := sub.Pattern()
		list := r.subs[pattern]
		for i, s := range list {
			if s.ID() == id {
				r.subs[pattern] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(r.subs[pattern]) == 0 {
			delete(r.subs, pattern)
			r.trie.Delete(pattern)
		}
	}

	return len(toRemove)
}

// sortSubscriptions orders subscriptions by priority (lower first), then by
// registration sequence. The sequence tiebreak makes delivery order
// deterministic for equal priorities.
func sortSubscriptions(subs []*subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].config.Priority != subs[j].config.Priority {
			return subs[i].config.Priority < subs[j].config.Priority
		}
		return subs[i].seq < subs[j].seq
	})
}
