package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	dbm "github.com/tendermint/tm-db"

	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// dbStore is a Store over a dbm.DB. The db stands in for the replicated
// substrate: records are JSON documents merged field by field, so concurrent
// writers converge per field (last write wins) and nothing is transactional
// across paths.
type dbStore struct {
	logger      log.Logger
	db          dbm.DB
	readTimeout time.Duration

	mtx      sync.Mutex
	watchers map[string][]chan ClaimEvent
}

// NewStore wraps db with the typed community-partition view.
func NewStore(logger log.Logger, db dbm.DB, readTimeout time.Duration) Store {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &dbStore{
		logger:      logger,
		db:          db,
		readTimeout: readTimeout,
		watchers:    make(map[string][]chan ClaimEvent),
	}
}

func (s *dbStore) CreateClaim(ctx context.Context, claim *types.Claim) error {
	if err := claim.ValidateBasic(); err != nil {
		return err
	}
	if err := s.putDocument(claimKey(claim.Domain, claim.ID), claim); err != nil {
		return err
	}
	s.notifyClaim(ctx, claim.Domain, claim.ID)
	return nil
}

func (s *dbStore) GetClaim(ctx context.Context, domain, claimID string) (*types.Claim, error) {
	raw := s.boundedGet(ctx, claimKey(domain, claimID))
	if raw == nil {
		return nil, nil
	}
	var claim types.Claim
	if err := json.Unmarshal(raw, &claim); err != nil {
		s.logger.Error("skipping malformed claim record", "domain", domain, "claim", claimID, "err", err)
		return nil, nil
	}
	return &claim, nil
}

func (s *dbStore) MergeClaim(ctx context.Context, domain, claimID string, fields Fields) error {
	if err := s.mergeDocument(ctx, claimKey(domain, claimID), fields); err != nil {
		return err
	}
	s.notifyClaim(ctx, domain, claimID)
	return nil
}

func (s *dbStore) ListClaims(ctx context.Context, domain string) ([]*types.Claim, error) {
	var claims []*types.Claim
	for _, value := range s.boundedScan(ctx, claimPrefix(domain)) {
		var claim types.Claim
		if err := json.Unmarshal(value, &claim); err != nil {
			s.logger.Error("skipping malformed claim record", "domain", domain, "err", err)
			continue
		}
		claims = append(claims, &claim)
	}
	return claims, nil
}

func (s *dbStore) SaveVote(ctx context.Context, vote *types.Vote) error {
	if err := vote.ValidateBasic(); err != nil {
		return err
	}
	// The deterministic vote ID makes a duplicate cast an overwrite of the
	// same key, never a second record.
	return s.putDocument(voteKey(vote.Domain, vote.TargetID, vote.ID), vote)
}

func (s *dbStore) ListVotes(ctx context.Context, domain, targetID string) ([]*types.Vote, error) {
	var votes []*types.Vote
	for _, value := range s.boundedScan(ctx, votePrefix(domain, targetID)) {
		var vote types.Vote
		if err := json.Unmarshal(value, &vote); err != nil {
			s.logger.Error("skipping malformed vote record", "domain", domain, "target", targetID, "err", err)
			continue
		}
		votes = append(votes, &vote)
	}
	return votes, nil
}

func (s *dbStore) GetUser(ctx context.Context, domain, userID string) (*types.User, error) {
	raw := s.boundedGet(ctx, userKey(domain, userID))
	if raw == nil {
		return nil, nil
	}
	var user types.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Error("skipping malformed user record", "domain", domain, "user", userID, "err", err)
		return nil, nil
	}
	return &user, nil
}

func (s *dbStore) MergeUser(ctx context.Context, domain, userID string, fields Fields) error {
	return s.mergeDocument(ctx, userKey(domain, userID), fields)
}

func (s *dbStore) CreateOpposition(ctx context.Context, opp *types.Opposition) error {
	if err := opp.ValidateBasic(); err != nil {
		return err
	}
	return s.putDocument(oppositionKey(opp.Domain, opp.ID), opp)
}

func (s *dbStore) GetOpposition(ctx context.Context, domain, oppID string) (*types.Opposition, error) {
	raw := s.boundedGet(ctx, oppositionKey(domain, oppID))
	if raw == nil {
		return nil, nil
	}
	var opp types.Opposition
	if err := json.Unmarshal(raw, &opp); err != nil {
		s.logger.Error("skipping malformed opposition record", "domain", domain, "opposition", oppID, "err", err)
		return nil, nil
	}
	return &opp, nil
}

func (s *dbStore) MergeOpposition(ctx context.Context, domain, oppID string, fields Fields) error {
	return s.mergeDocument(ctx, oppositionKey(domain, oppID), fields)
}

func (s *dbStore) ListOppositions(ctx context.Context, domain string) ([]*types.Opposition, error) {
	var opps []*types.Opposition
	for _, value := range s.boundedScan(ctx, oppositionPrefix(domain)) {
		var opp types.Opposition
		if err := json.Unmarshal(value, &opp); err != nil {
			s.logger.Error("skipping malformed opposition record", "domain", domain, "err", err)
			continue
		}
		opps = append(opps, &opp)
	}
	return opps, nil
}

func (s *dbStore) Close() error {
	s.mtx.Lock()
	for domain, chans := range s.watchers {
		for _, ch := range chans {
			close(ch)
		}
		delete(s.watchers, domain)
	}
	s.mtx.Unlock()
	return s.db.Close()
}

// putDocument writes a full JSON document at key.
func (s *dbStore) putDocument(key []byte, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.db.Set(key, raw); err != nil {
		return fmt.Errorf("failed to persist record: %w", err)
	}
	return nil
}

// mergeDocument folds fields into the document at key, leaving all other
// fields at their last written value. A missing document is created from the
// patch alone.
func (s *dbStore) mergeDocument(ctx context.Context, key []byte, fields Fields) error {
	doc := make(map[string]json.RawMessage)
	if raw := s.boundedGet(ctx, key); raw != nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.logger.Error("overwriting malformed record on merge", "err", err)
			doc = make(map[string]json.RawMessage)
		}
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal field %q: %w", k, err)
		}
		doc[k] = raw
	}
	return s.putDocument(key, doc)
}

// boundedGet reads key with the configured timeout. Timeouts and read errors
// degrade to an absent result so a stalled store can never hang a scan.
func (s *dbStore) boundedGet(ctx context.Context, key []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	ch := make(chan []byte, 1)
	go func() {
		value, err := s.db.Get(key)
		if err != nil {
			s.logger.Error("store read failed", "err", err)
			ch <- nil
			return
		}
		ch <- value
	}()

	select {
	case <-ctx.Done():
		s.logger.Error("store read timed out", "timeout", s.readTimeout)
		return nil
	case value := <-ch:
		return value
	}
}

// boundedScan returns every value under prefix, with the same
// degrade-to-empty timeout policy as boundedGet.
func (s *dbStore) boundedScan(ctx context.Context, prefix []byte) [][]byte {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	ch := make(chan [][]byte, 1)
	go func() {
		iter, err := dbm.IteratePrefix(s.db, prefix)
		if err != nil {
			s.logger.Error("store scan failed", "err", err)
			ch <- nil
			return
		}
		defer iter.Close()

		var values [][]byte
		for ; iter.Valid(); iter.Next() {
			value := make([]byte, len(iter.Value()))
			copy(value, iter.Value())
			values = append(values, value)
		}
		if err := iter.Error(); err != nil {
			s.logger.Error("store scan failed", "err", err)
		}
		ch <- values
	}()

	select {
	case <-ctx.Done():
		s.logger.Error("store scan timed out", "timeout", s.readTimeout)
		return nil
	case values := <-ch:
		return values
	}
}
