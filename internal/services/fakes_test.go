package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/domain/moderation"
	"producer-chat/internal/domain/user"
	"producer-chat/internal/redisx"
	"producer-chat/pkg/events"

	"github.com/google/uuid"
)

// fakeMessageRepo is an in-memory MessageRepository with per-method error
// injection.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []chat.Message

	createErr error
	pageErr   error
	readErr   error
	deleteErr error
	latestErr error
	unreadErr error
}

func (f *fakeMessageRepo) Create(_ context.Context, m *chat.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageRepo) GetThreadPage(_ context.Context, userID, otherID uuid.UUID, before *time.Time, limit int) ([]chat.Message, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var thread []chat.Message
	for _, m := range f.messages {
		if !betweenPair(m, userID, otherID) {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		thread = append(thread, m)
	}
	sort.Slice(thread, func(i, j int) bool { return thread[i].CreatedAt.After(thread[j].CreatedAt) })
	if len(thread) > limit {
		thread = thread[:limit]
	}
	return thread, nil
}

func (f *fakeMessageRepo) MarkThreadRead(_ context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var stamped int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.RecipientID == recipientID && m.SenderID == senderID && m.ReadAt == nil {
			ts := at
			m.ReadAt = &ts
			stamped++
		}
	}
	return stamped, nil
}

func (f *fakeMessageRepo) DeleteThread(_ context.Context, userID, otherID uuid.UUID) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []chat.Message
	var deleted int64
	for _, m := range f.messages {
		if betweenPair(m, userID, otherID) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return deleted, nil
}

func (f *fakeMessageRepo) GetLatestPerCounterparty(_ context.Context, userID uuid.UUID, limit int) ([]chat.Message, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	latest := make(map[uuid.UUID]chat.Message)
	for _, m := range f.messages {
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		party := m.Counterparty(userID)
		if cur, ok := latest[party]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[party] = m
		}
	}

	out := make([]chat.Message, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) CountUnreadBySender(_ context.Context, recipientID uuid.UUID) (map[uuid.UUID]int64, error) {
	if f.unreadErr != nil {
		return nil, f.unreadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[uuid.UUID]int64)
	for _, m := range f.messages {
		if m.RecipientID == recipientID && m.ReadAt == nil {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (f *fakeMessageRepo) stored() []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chat.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func betweenPair(m chat.Message, a, b uuid.UUID) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

// gatedMessageRepo suspends GetThreadPage between started and proceed so a
// test can act while a fetch is in flight. Gates left nil pass through.
type gatedMessageRepo struct {
	*fakeMessageRepo

	gateMu    sync.Mutex
	pageCalls int
	started   chan struct{}
	proceed   chan struct{}
}

func (g *gatedMessageRepo) GetThreadPage(ctx context.Context, userID, otherID uuid.UUID, before *time.Time, limit int) ([]chat.Message, error) {
	g.gateMu.Lock()
	g.pageCalls++
	started, proceed := g.started, g.proceed
	g.gateMu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-proceed
	}
	return g.fakeMessageRepo.GetThreadPage(ctx, userID, otherID, before, limit)
}

func (g *gatedMessageRepo) fetches() int {
	g.gateMu.Lock()
	defer g.gateMu.Unlock()
	return g.pageCalls
}

func (g *gatedMessageRepo) ungate() {
	g.gateMu.Lock()
	defer g.gateMu.Unlock()
	g.started, g.proceed = nil, nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]user.Profile
	err      error
}

func (f *fakeProfileRepo) ResolveProfiles(_ context.Context, ids []uuid.UUID) ([]user.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []user.Profile
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeModerationRepo struct {
	blocks  []moderation.Block
	reports []moderation.Report

	blockErr  error
	reportErr error
}

func (f *fakeModerationRepo) CreateBlock(_ context.Context, b *moderation.Block) error {
	if f.blockErr != nil {
		return f.blockErr
	}
	f.blocks = append(f.blocks, *b)
	return nil
}

func (f *fakeModerationRepo) CreateReport(_ context.Context, r *moderation.Report) error {
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reports = append(f.reports, *r)
	return nil
}

type fakeUploader struct {
	ref AttachmentRef
	err error

	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _ uuid.UUID, _ AttachmentInput) (AttachmentRef, error) {
	f.calls++
	if f.err != nil {
		return AttachmentRef{}, f.err
	}
	return f.ref, nil
}

type fakeQuota struct {
	allowed bool
	err     error
}

func (f *fakeQuota) Allow(_ context.Context, _ string) (*redisx.QuotaResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &redisx.QuotaResult{Allowed: f.allowed}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ string, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return nil
}

func (f *fakePublisher) events() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.Event, len(f.published))
	copy(out, f.published)
	return out
}

var errStoreDown = errors.New("store down")
