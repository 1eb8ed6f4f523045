package store

import "context"

const watchBuffer = 64

// WatchClaims registers a feed subscription for one domain. The returned
// cancel func must be called exactly once; it closes the channel. Events are
// dropped, not queued, when the subscriber falls behind.
func (s *dbStore) WatchClaims(domain string) (<-chan ClaimEvent, func()) {
	ch := make(chan ClaimEvent, watchBuffer)

	s.mtx.Lock()
	s.watchers[domain] = append(s.watchers[domain], ch)
	s.mtx.Unlock()

	cancel := func() {
		s.mtx.Lock()
		defer s.mtx.Unlock()
		chans := s.watchers[domain]
		for i, c := range chans {
			if c == ch {
				s.watchers[domain] = append(chans[:i], chans[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// notifyClaim fans a claim write out to the domain's watchers. The claim is
// re-read so watchers observe the merged document, not the patch.
func (s *dbStore) notifyClaim(ctx context.Context, domain, claimID string) {
	s.mtx.Lock()
	active := len(s.watchers[domain])
	s.mtx.Unlock()
	if active == 0 {
		return
	}

	claim, err := s.GetClaim(ctx, domain, claimID)
	if err != nil || claim == nil {
		return
	}

	// Sending under the mutex keeps a concurrent cancel from closing a
	// channel mid-send. Sends are non-blocking, so the lock is short.
	ev := ClaimEvent{Domain: domain, ClaimID: claimID, Claim: claim}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, ch := range s.watchers[domain] {
		select {
		case ch <- ev:
		default:
			// subscriber is behind; drop rather than block a write
		}
	}
}
