package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/redisx"
	"producer-chat/internal/repository"
	chat_errors "producer-chat/pkg/errors"
	"producer-chat/pkg/events"
	"producer-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const threadPageSize = 50

// QuotaNotice is the user-visible text for the distinguished quota-exceeded
// send outcome. It is a notice, never an error.
const QuotaNotice = "You've reached your plan's messaging limit. Upgrade to keep the conversation going."

type Quota interface {
	Allow(ctx context.Context, userID string) (*redisx.QuotaResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event events.Event) error
}

// Session manages the ordered message history and read state for one user's
// active conversation. All state is an in-memory copy of the store; the
// store stays authoritative.
type Session struct {
	userID   uuid.UUID
	messages repository.MessageRepository
	uploader Uploader
	quota    Quota
	broker   Publisher
	log      *logger.Logger

	mu      sync.Mutex
	otherID uuid.UUID
	history []chat.Message // oldest to newest
	hasMore bool
	loading bool
}

func NewSession(userID uuid.UUID, messages repository.MessageRepository, uploader Uploader, quota Quota, broker Publisher, log *logger.Logger) *Session {
	return &Session{
		userID:   userID,
		messages: messages,
		uploader: uploader,
		quota:    quota,
		broker:   broker,
		log:      log,
	}
}

// Load fetches the newest page for the conversation with otherID, ordered
// oldest-to-newest, and marks the thread read. A read-marking failure is
// logged and never hides the messages themselves.
func (s *Session) Load(ctx context.Context, otherID uuid.UUID) []chat.Message {
	if s.userID == uuid.Nil || otherID == uuid.Nil {
		return nil
	}

	s.mu.Lock()
	if s.loading {
		// A load is already in flight; no second fetch is queued. Switching
		// parties still retargets the session, so the in-flight result comes
		// back stale and gets discarded.
		if s.otherID != otherID {
			s.otherID = otherID
			s.history = nil
			s.hasMore = false
			s.mu.Unlock()
			return nil
		}
		msgs := s.snapshotLocked()
		s.mu.Unlock()
		return msgs
	}
	s.loading = true
	s.otherID = otherID
	s.mu.Unlock()

	page, err := s.messages.GetThreadPage(ctx, s.userID, otherID, nil, threadPageSize)

	s.mu.Lock()
	s.loading = false
	if s.otherID != otherID {
		// The user switched conversations mid-fetch; this result is stale.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.log.WithContext(ctx).Warn("thread load failed", zap.Error(err))
		s.history = nil
		s.hasMore = false
		s.mu.Unlock()
		return nil
	}
	s.history = reverseChronological(page)
	s.hasMore = len(page) == threadPageSize
	s.mu.Unlock()

	s.markThreadRead(ctx, otherID)

	s.mu.Lock()
	msgs := s.snapshotLocked()
	s.mu.Unlock()
	return msgs
}

// LoadMore prepends the next older page, bounded strictly below the oldest
// loaded timestamp, and reports whether a further page may exist. A load
// already in flight causes the call to be ignored.
func (s *Session) LoadMore(ctx context.Context) bool {
	s.mu.Lock()
	if s.loading || len(s.history) == 0 || !s.hasMore {
		more := s.hasMore
		s.mu.Unlock()
		return more
	}
	otherID := s.otherID
	before := s.history[0].CreatedAt
	s.loading = true
	s.mu.Unlock()

	page, err := s.messages.GetThreadPage(ctx, s.userID, otherID, &before, threadPageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.otherID != otherID {
		return s.hasMore
	}
	if err != nil {
		s.log.WithContext(ctx).Warn("thread page fetch failed", zap.Error(err))
		return s.hasMore
	}
	s.history = append(reverseChronological(page), s.history...)
	s.hasMore = len(page) == threadPageSize
	return s.hasMore
}

type SendInput struct {
	Text       string
	Attachment *AttachmentInput
}

// SendResult distinguishes the three send outcomes: a created message, a
// quota notice, or nothing (empty payload or a swallowed write failure).
type SendResult struct {
	Message *chat.Message
	Notice  string
}

// Send persists one outgoing message to otherID. The recipient is bound to
// the call, never read back from session state, so a concurrent thread
// switch cannot redirect the message. An attachment is uploaded before the
// row is created, so a message never references a not-yet-uploaded resource;
// if the upload fails the send fails as a whole.
func (s *Session) Send(ctx context.Context, otherID uuid.UUID, in SendInput) SendResult {
	if s.userID == uuid.Nil || otherID == uuid.Nil {
		return SendResult{}
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && in.Attachment == nil {
		return SendResult{}
	}

	if s.quota != nil {
		res, err := s.quota.Allow(ctx, s.userID.String())
		if err != nil {
			// Quota backend trouble must not block messaging.
			s.log.WithContext(ctx).Warn("quota check failed", zap.Error(err))
		} else if !res.Allowed {
			return SendResult{Notice: QuotaNotice}
		}
	}

	msg := chat.Message{
		ID:          uuid.New(),
		SenderID:    s.userID,
		RecipientID: otherID,
		CreatedAt:   time.Now(),
	}
	if text != "" {
		msg.Content = &text
	}

	if in.Attachment != nil {
		ref, err := s.uploader.Upload(ctx, s.userID, *in.Attachment)
		if err != nil {
			s.log.WithContext(ctx).Warn("attachment upload failed", zap.Error(err))
			return SendResult{}
		}
		msg.AttachmentURL = &ref.URL
		kind := string(ref.Kind)
		msg.AttachmentType = &kind
		if ref.Name != "" {
			msg.AttachmentName = &ref.Name
		}
	}

	if err := s.messages.Create(ctx, &msg); err != nil {
		if errors.Is(err, chat_errors.ErrQuotaExceeded) {
			return SendResult{Notice: QuotaNotice}
		}
		s.log.WithContext(ctx).Warn("message create failed", zap.Error(err))
		return SendResult{}
	}

	s.mu.Lock()
	if s.otherID == otherID {
		s.history = append(s.history, msg)
	}
	s.mu.Unlock()

	s.publish(ctx, events.ChannelMessageCreated, events.Event{
		Type:        events.ChannelMessageCreated,
		SenderID:    msg.SenderID.String(),
		RecipientID: msg.RecipientID.String(),
		Payload: map[string]interface{}{
			"message_id": msg.ID.String(),
			"preview":    msg.Preview(),
		},
		OccurredAt: msg.CreatedAt,
	})

	return SendResult{Message: &msg}
}

// ClearChat irreversibly deletes the entire history with otherID in one
// store-side conditional delete, then drops the local copy if that thread is
// still the active one.
func (s *Session) ClearChat(ctx context.Context, otherID uuid.UUID) {
	if s.userID == uuid.Nil || otherID == uuid.Nil {
		return
	}

	if _, err := s.messages.DeleteThread(ctx, s.userID, otherID); err != nil {
		s.log.WithContext(ctx).Warn("clear chat failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.otherID == otherID {
		s.history = nil
		s.hasMore = false
	}
	s.mu.Unlock()

	s.publish(ctx, events.ChannelChatCleared, events.Event{
		Type:        events.ChannelChatCleared,
		SenderID:    s.userID.String(),
		RecipientID: otherID.String(),
		OccurredAt:  time.Now(),
	})
}

// Messages returns a copy of the loaded history, oldest first.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *Session) ActiveParty() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otherID
}

func (s *Session) markThreadRead(ctx context.Context, otherID uuid.UUID) {
	now := time.Now()
	if _, err := s.messages.MarkThreadRead(ctx, s.userID, otherID, now); err != nil {
		s.log.WithContext(ctx).Warn("mark thread read failed", zap.Error(err))
		return
	}

	// Keep the local copy consistent with what the store now says.
	s.mu.Lock()
	if s.otherID == otherID {
		for i := range s.history {
			if s.history[i].RecipientID == s.userID && s.history[i].ReadAt == nil {
				at := now
				s.history[i].ReadAt = &at
			}
		}
	}
	s.mu.Unlock()
}

func (s *Session) publish(ctx context.Context, channel string, ev events.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, channel, ev); err != nil {
		s.log.WithContext(ctx).Warn("event publish failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (s *Session) snapshotLocked() []chat.Message {
	if len(s.history) == 0 {
		return nil
	}
	out := make([]chat.Message, len(s.history))
	copy(out, s.history)
	return out
}

// reverseChronological flips a newest-first page into display order.
func reverseChronological(page []chat.Message) []chat.Message {
	out := make([]chat.Message, len(page))
	for i, m := range page {
		out[len(page)-1-i] = m
	}
	return out
}

// SessionManager hands out one Session per authenticated user for the
// presentation layer.
type SessionManager struct {
	messages repository.MessageRepository
	uploader Uploader
	quota    Quota
	broker   Publisher
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewSessionManager(messages repository.MessageRepository, uploader Uploader, quota Quota, broker Publisher, log *logger.Logger) *SessionManager {
	return &SessionManager{
		messages: messages,
		uploader: uploader,
		quota:    quota,
		broker:   broker,
		log:      log,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (m *SessionManager) Session(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, m.messages, m.uploader, m.quota, m.broker, m.log)
	m.sessions[userID] = s
	return s
}
