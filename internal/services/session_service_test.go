package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/repository"
	"producer-chat/pkg/events"
	"producer-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(repo repository.MessageRepository, uploader Uploader, quota Quota, broker Publisher) (*Session, uuid.UUID) {
	userID := uuid.New()
	return NewSession(userID, repo, uploader, quota, broker, logger.NewNop()), userID
}

func seedThread(repo *fakeMessageRepo, a, b uuid.UUID, count int, base time.Time) {
	for i := 0; i < count; i++ {
		sender, recipient := a, b
		if i%2 == 1 {
			sender, recipient = b, a
		}
		text := string(rune('a' + i%26))
		repo.messages = append(repo.messages, chat.Message{
			ID:          uuid.New(),
			SenderID:    sender,
			RecipientID: recipient,
			Content:     &text,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestSessionLoad(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns history oldest first and marks inbound read", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, 3, base)

		history := session.Load(ctx, other)
		require.Len(t, history, 3)
		assert.True(t, history[0].CreatedAt.Before(history[1].CreatedAt))
		assert.True(t, history[1].CreatedAt.Before(history[2].CreatedAt))

		for _, m := range history {
			if m.RecipientID == userID {
				assert.NotNil(t, m.ReadAt)
			}
		}
		for _, m := range repo.stored() {
			if m.RecipientID == userID {
				assert.NotNil(t, m.ReadAt)
			}
		}
	})

	t.Run("nil counterparty is a no-op", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, nil, nil)
		assert.Nil(t, session.Load(ctx, uuid.Nil))
	})

	t.Run("fetch failure clears the view", func(t *testing.T) {
		repo := &fakeMessageRepo{pageErr: errStoreDown}
		session, _ := newTestSession(repo, nil, nil, nil)
		assert.Nil(t, session.Load(ctx, uuid.New()))
		assert.Nil(t, session.Messages())
		assert.False(t, session.HasMore())
	})

	t.Run("read-marking failure still shows messages", func(t *testing.T) {
		repo := &fakeMessageRepo{readErr: errStoreDown}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, 2, base)

		history := session.Load(ctx, other)
		require.Len(t, history, 2)
	})

	t.Run("reload is idempotent", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, 3, base)

		session.Load(ctx, other)
		again := session.Load(ctx, other)
		require.Len(t, again, 3)
		assert.Len(t, session.Messages(), 3)
	})
}

func TestSessionLoadMore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("prepends the older page", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, threadPageSize+10, base)

		first := session.Load(ctx, other)
		require.Len(t, first, threadPageSize)
		require.True(t, session.HasMore())

		session.LoadMore(ctx)
		history := session.Messages()
		require.Len(t, history, threadPageSize+10)
		assert.False(t, session.HasMore())

		for i := 1; i < len(history); i++ {
			assert.True(t, history[i-1].CreatedAt.Before(history[i].CreatedAt))
		}
	})

	t.Run("without a loaded thread it reports no more", func(t *testing.T) {
		session, _ := newTestSession(&fakeMessageRepo{}, nil, nil, nil)
		assert.False(t, session.LoadMore(ctx))
	})

	t.Run("fetch failure leaves history intact", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, threadPageSize, base)

		session.Load(ctx, other)
		repo.pageErr = errStoreDown
		session.LoadMore(ctx)
		assert.Len(t, session.Messages(), threadPageSize)
	})
}

func TestSessionSend(t *testing.T) {
	ctx := context.Background()

	t.Run("persists text and appends locally", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		broker := &fakePublisher{}
		session, userID := newTestSession(repo, nil, nil, broker)
		other := uuid.New()
		session.Load(ctx, other)

		result := session.Send(ctx, other, SendInput{Text: "  new beat for you  "})
		require.NotNil(t, result.Message)
		assert.Empty(t, result.Notice)
		assert.Equal(t, "new beat for you", result.Message.Text())
		assert.Equal(t, userID, result.Message.SenderID)
		assert.Equal(t, other, result.Message.RecipientID)

		require.Len(t, repo.stored(), 1)
		require.Len(t, session.Messages(), 1)

		published := broker.events()
		require.Len(t, published, 1)
		assert.Equal(t, events.ChannelMessageCreated, published[0].Type)
	})

	t.Run("empty payload creates nothing", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, nil, nil)

		result := session.Send(ctx, uuid.New(), SendInput{Text: "   "})
		assert.Nil(t, result.Message)
		assert.Empty(t, result.Notice)
		assert.Empty(t, repo.stored())
	})

	t.Run("nil recipient creates nothing", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, nil, nil)

		result := session.Send(ctx, uuid.Nil, SendInput{Text: "hello"})
		assert.Nil(t, result.Message)
		assert.Empty(t, repo.stored())
	})

	t.Run("recipient is bound to the call, not to the active thread", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, nil, nil)
		b := uuid.New()
		c := uuid.New()

		session.Load(ctx, b)
		// A second request switches the session to another thread before the
		// send lands.
		session.Load(ctx, c)

		result := session.Send(ctx, b, SendInput{Text: "for b only"})
		require.NotNil(t, result.Message)
		assert.Equal(t, b, result.Message.RecipientID)
		// The active thread is c, so nothing is appended locally.
		assert.Empty(t, session.Messages())

		stored := repo.stored()
		require.Len(t, stored, 1)
		assert.Equal(t, b, stored[0].RecipientID)
	})

	t.Run("quota refusal yields notice and no message", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, &fakeQuota{allowed: false}, nil)

		result := session.Send(ctx, uuid.New(), SendInput{Text: "one too many"})
		assert.Nil(t, result.Message)
		assert.Equal(t, QuotaNotice, result.Notice)
		assert.Empty(t, repo.stored())
		assert.Empty(t, session.Messages())
	})

	t.Run("quota backend failure does not block the send", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, _ := newTestSession(repo, nil, &fakeQuota{err: errStoreDown}, nil)

		result := session.Send(ctx, uuid.New(), SendInput{Text: "hello"})
		require.NotNil(t, result.Message)
		assert.Len(t, repo.stored(), 1)
	})

	t.Run("attachment is uploaded before the row exists", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		uploader := &fakeUploader{ref: AttachmentRef{
			URL:  "https://cdn/attachments/x.mp3",
			Kind: chat.AttachmentAudio,
			Name: "x.mp3",
		}}
		session, _ := newTestSession(repo, uploader, nil, nil)

		result := session.Send(ctx, uuid.New(), SendInput{Attachment: &AttachmentInput{
			Reader:      strings.NewReader("audio-bytes"),
			Filename:    "x.mp3",
			ContentType: "audio/mpeg",
		}})
		require.NotNil(t, result.Message)
		require.NotNil(t, result.Message.AttachmentURL)
		assert.Equal(t, "https://cdn/attachments/x.mp3", *result.Message.AttachmentURL)
		require.NotNil(t, result.Message.AttachmentType)
		assert.Equal(t, string(chat.AttachmentAudio), *result.Message.AttachmentType)
		assert.Equal(t, 1, uploader.calls)
	})

	t.Run("upload failure means no message at all", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		uploader := &fakeUploader{err: errStoreDown}
		session, _ := newTestSession(repo, uploader, nil, nil)

		result := session.Send(ctx, uuid.New(), SendInput{
			Text:       "with file",
			Attachment: &AttachmentInput{Reader: strings.NewReader("x"), Filename: "a.pdf"},
		})
		assert.Nil(t, result.Message)
		assert.Empty(t, repo.stored())
		assert.Empty(t, session.Messages())
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		repo := &fakeMessageRepo{createErr: errStoreDown}
		session, _ := newTestSession(repo, nil, nil, nil)

		result := session.Send(ctx, uuid.New(), SendInput{Text: "hello"})
		assert.Nil(t, result.Message)
		assert.Empty(t, result.Notice)
		assert.Empty(t, session.Messages())
	})
}

func TestSessionClearChat(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes the pair and drops the local copy", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		broker := &fakePublisher{}
		session, userID := newTestSession(repo, nil, nil, broker)
		other := uuid.New()
		stranger := uuid.New()
		seedThread(repo, other, userID, 4, base)
		seedThread(repo, stranger, userID, 2, base.Add(time.Hour))

		session.Load(ctx, other)
		session.ClearChat(ctx, other)

		assert.Empty(t, session.Messages())
		assert.False(t, session.HasMore())
		// The other conversation is untouched.
		assert.Len(t, repo.stored(), 2)

		published := broker.events()
		require.Len(t, published, 1)
		assert.Equal(t, events.ChannelChatCleared, published[0].Type)
	})

	t.Run("delete failure keeps the local view", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo, other, userID, 2, base)

		session.Load(ctx, other)
		repo.deleteErr = errStoreDown
		session.ClearChat(ctx, other)
		assert.Len(t, session.Messages(), 2)
	})

	t.Run("clearing a non-active thread keeps the local view", func(t *testing.T) {
		repo := &fakeMessageRepo{}
		session, userID := newTestSession(repo, nil, nil, nil)
		active := uuid.New()
		stale := uuid.New()
		seedThread(repo, active, userID, 3, base)
		seedThread(repo, stale, userID, 2, base.Add(time.Hour))

		session.Load(ctx, active)
		session.ClearChat(ctx, stale)

		// The stale thread is gone from the store, the active view survives.
		assert.Len(t, repo.stored(), 3)
		assert.Len(t, session.Messages(), 3)
	})
}

func TestSessionConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("a load issued while one is in flight is ignored, not queued", func(t *testing.T) {
		repo := &gatedMessageRepo{
			fakeMessageRepo: &fakeMessageRepo{},
			started:         make(chan struct{}),
			proceed:         make(chan struct{}),
		}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo.fakeMessageRepo, other, userID, 3, base)

		done := make(chan []chat.Message)
		go func() { done <- session.Load(ctx, other) }()
		<-repo.started

		// Same thread, fetch suspended: the second call answers from the
		// current snapshot without touching the store.
		assert.Empty(t, session.Load(ctx, other))
		assert.Equal(t, 1, repo.fetches())

		repo.proceed <- struct{}{}
		history := <-done
		require.Len(t, history, 3)
		assert.Equal(t, 1, repo.fetches())
	})

	t.Run("switching threads mid-fetch discards the stale page", func(t *testing.T) {
		repo := &gatedMessageRepo{
			fakeMessageRepo: &fakeMessageRepo{},
			started:         make(chan struct{}),
			proceed:         make(chan struct{}),
		}
		session, userID := newTestSession(repo, nil, nil, nil)
		b := uuid.New()
		c := uuid.New()
		seedThread(repo.fakeMessageRepo, b, userID, 3, base)

		done := make(chan []chat.Message)
		go func() { done <- session.Load(ctx, b) }()
		<-repo.started

		// The user opens another thread while b's page is still in flight.
		assert.Nil(t, session.Load(ctx, c))
		assert.Equal(t, c, session.ActiveParty())

		repo.proceed <- struct{}{}
		assert.Nil(t, <-done)
		// b's page never leaks into c's view.
		assert.Empty(t, session.Messages())
		assert.Equal(t, c, session.ActiveParty())
	})

	t.Run("a page fetch in flight blocks further paging", func(t *testing.T) {
		repo := &gatedMessageRepo{fakeMessageRepo: &fakeMessageRepo{}}
		session, userID := newTestSession(repo, nil, nil, nil)
		other := uuid.New()
		seedThread(repo.fakeMessageRepo, other, userID, threadPageSize+10, base)

		session.Load(ctx, other)
		fetchesAfterLoad := repo.fetches()

		repo.gateMu.Lock()
		repo.started = make(chan struct{})
		repo.proceed = make(chan struct{})
		repo.gateMu.Unlock()

		done := make(chan bool)
		go func() { done <- session.LoadMore(ctx) }()
		<-repo.started

		// The overlapping call reports the current state without fetching.
		assert.True(t, session.LoadMore(ctx))
		assert.Equal(t, fetchesAfterLoad+1, repo.fetches())

		repo.proceed <- struct{}{}
		assert.False(t, <-done)
		assert.Len(t, session.Messages(), threadPageSize+10)
	})

	t.Run("a thread switch discards an in-flight older page", func(t *testing.T) {
		repo := &gatedMessageRepo{fakeMessageRepo: &fakeMessageRepo{}}
		session, userID := newTestSession(repo, nil, nil, nil)
		b := uuid.New()
		c := uuid.New()
		seedThread(repo.fakeMessageRepo, b, userID, threadPageSize+10, base)

		session.Load(ctx, b)

		repo.gateMu.Lock()
		repo.started = make(chan struct{})
		repo.proceed = make(chan struct{})
		repo.gateMu.Unlock()

		done := make(chan bool)
		go func() { done <- session.LoadMore(ctx) }()
		<-repo.started

		assert.Nil(t, session.Load(ctx, c))
		assert.Equal(t, c, session.ActiveParty())

		repo.proceed <- struct{}{}
		<-done
		// The older page belonged to b and never reaches c's view.
		assert.Empty(t, session.Messages())
	})
}

func TestSessionManager(t *testing.T) {
	manager := NewSessionManager(&fakeMessageRepo{}, nil, nil, nil, logger.NewNop())
	alice := uuid.New()
	bob := uuid.New()

	assert.Same(t, manager.Session(alice), manager.Session(alice))
	assert.NotSame(t, manager.Session(alice), manager.Session(bob))
}
