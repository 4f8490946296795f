package service

import (
	"context"
	"errors"
	"time"

	"github.com/egannguyen/cart-insights/internal/entity"
)

// In-memory fakes mirroring the repository contracts closely enough to
// exercise idempotency and failure isolation.

type fakeCartRepo struct {
	stale    []entity.AbandonmentCandidate
	staleErr error
	applied  []entity.Event
}

func (f *fakeCartRepo) ApplyEvent(ctx context.Context, userID, sessionID *string, event entity.Event) error {
	f.applied = append(f.applied, event)
	return nil
}

func (f *fakeCartRepo) FindStale(ctx context.Context, cutoff time.Time) ([]entity.AbandonmentCandidate, error) {
	return f.stale, f.staleErr
}

type fakeAbandonmentRepo struct {
	open      map[string]bool // cart id -> open episode exists
	failCarts map[string]bool
	created   []entity.AbandonmentCandidate

	pending []entity.Abandonment // unmarked episodes eligible for a reminder
	markErr error

	behaviors    map[string]entity.UserBehavior
	behaviorErrs map[string]error
	userIDs      []string
	stats        entity.AbandonmentStats
}

func newFakeAbandonmentRepo() *fakeAbandonmentRepo {
	return &fakeAbandonmentRepo{
		open:         make(map[string]bool),
		failCarts:    make(map[string]bool),
		behaviors:    make(map[string]entity.UserBehavior),
		behaviorErrs: make(map[string]error),
	}
}

func (f *fakeAbandonmentRepo) CreateEpisode(ctx context.Context, cand entity.AbandonmentCandidate) (bool, error) {
	if f.failCarts[cand.CartID] {
		return false, errors.New("constraint violation")
	}
	if f.open[cand.CartID] {
		return false, nil
	}
	f.open[cand.CartID] = true
	f.created = append(f.created, cand)
	return true, nil
}

func (f *fakeAbandonmentRepo) MarkRemindersSent(ctx context.Context, cutoff time.Time) ([]entity.Abandonment, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	now := time.Now()
	var marked []entity.Abandonment
	var remaining []entity.Abandonment
	for _, a := range f.pending {
		if !a.Recovered && !a.ReminderSent && a.UserID != nil && !a.CreatedAt.After(cutoff) {
			a.ReminderSent = true
			a.ReminderSentAt = &now
			marked = append(marked, a)
			continue
		}
		remaining = append(remaining, a)
	}
	f.pending = remaining
	return marked, nil
}

func (f *fakeAbandonmentRepo) UserBehavior(ctx context.Context, userID string) (entity.UserBehavior, error) {
	if err := f.behaviorErrs[userID]; err != nil {
		return entity.UserBehavior{}, err
	}
	b := f.behaviors[userID]
	b.UserID = userID
	return b, nil
}

func (f *fakeAbandonmentRepo) UserIDsWithHistory(ctx context.Context) ([]string, error) {
	return f.userIDs, nil
}

func (f *fakeAbandonmentRepo) Stats(ctx context.Context) (entity.AbandonmentStats, error) {
	return f.stats, nil
}

type fakeEventLog struct {
	records []entity.EventRecord
	counts  map[string][2]int // user id -> {added, saved}
	errs    map[string]error
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{counts: make(map[string][2]int), errs: make(map[string]error)}
}

func (f *fakeEventLog) Append(ctx context.Context, rec entity.EventRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeEventLog) UserEventCounts(ctx context.Context, userID string) (int, int, error) {
	if err := f.errs[userID]; err != nil {
		return 0, 0, err
	}
	c := f.counts[userID]
	return c[0], c[1], nil
}

type fakeScoreRepo struct {
	rows map[string]entity.UserScore

	bulkInsertErr error
	bulkUpdateErr error
	upsertFail    map[string]bool

	inserts, updates, upserts int
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{rows: make(map[string]entity.UserScore), upsertFail: make(map[string]bool)}
}

func (f *fakeScoreRepo) Get(ctx context.Context, userID string) (*entity.UserScore, error) {
	s, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeScoreRepo) ExistingUserIDs(ctx context.Context, userIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for _, id := range userIDs {
		if _, ok := f.rows[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (f *fakeScoreRepo) BulkInsert(ctx context.Context, scores []entity.UserScore) error {
	if f.bulkInsertErr != nil {
		return f.bulkInsertErr
	}
	for _, s := range scores {
		f.rows[s.UserID] = s
		f.inserts++
	}
	return nil
}

func (f *fakeScoreRepo) BulkUpdate(ctx context.Context, scores []entity.UserScore) error {
	if f.bulkUpdateErr != nil {
		return f.bulkUpdateErr
	}
	for _, s := range scores {
		f.rows[s.UserID] = s
		f.updates++
	}
	return nil
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, score entity.UserScore) error {
	if f.upsertFail[score.UserID] {
		return errors.New("write failed")
	}
	f.rows[score.UserID] = score
	f.upserts++
	return nil
}

func (f *fakeScoreRepo) Averages(ctx context.Context) (entity.ScoreAverages, error) {
	return entity.ScoreAverages{Users: len(f.rows)}, nil
}

func (f *fakeScoreRepo) SegmentCounts(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type fakePublisher struct {
	published []any
	failKeys  map[string]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failKeys: make(map[string]bool)}
}

func (f *fakePublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	if f.failKeys[key] {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, event)
	return nil
}
