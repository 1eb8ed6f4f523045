package store

import (
	"github.com/google/orderedcode"
)

// key prefixes, unique across the whole db
const (
	prefixClaim      = int64(1)
	prefixVote       = int64(2)
	prefixUser       = int64(3)
	prefixOpposition = int64(4)
)

// Keys follow the community/{domain}/... path shape of the replicated
// store, encoded so that all records of one collection in one domain are a
// contiguous range.

func claimKey(domain, claimID string) []byte {
	return mustAppend(prefixClaim, domain, claimID)
}

func claimPrefix(domain string) []byte {
	return mustAppend(prefixClaim, domain)
}

// Votes live under their target (claim or opposition), so one range scan
// yields the full vote pool of a target.
func voteKey(domain, targetID, voteID string) []byte {
	return mustAppend(prefixVote, domain, targetID, voteID)
}

func votePrefix(domain, targetID string) []byte {
	return mustAppend(prefixVote, domain, targetID)
}

func userKey(domain, userID string) []byte {
	return mustAppend(prefixUser, domain, userID)
}

func oppositionKey(domain, oppID string) []byte {
	return mustAppend(prefixOpposition, domain, oppID)
}

func oppositionPrefix(domain string) []byte {
	return mustAppend(prefixOpposition, domain)
}

func mustAppend(prefix int64, parts ...string) []byte {
	key, err := orderedcode.Append(nil, prefix)
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		key, err = orderedcode.Append(key, p)
		if err != nil {
			panic(err)
		}
	}
	return key
}
