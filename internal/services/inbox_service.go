package services

import (
	"context"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/repository"
	"producer-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// conversationFetchLimit bounds the inbox to a single fetch; the
// conversation list has no cursor.
const conversationFetchLimit = 50

// InboxService derives the conversation list from the raw message log:
// latest message per counterparty, batched profile resolution, unread counts.
type InboxService struct {
	messages  repository.MessageRepository
	directory *Directory
	log       *logger.Logger
}

func NewInboxService(messages repository.MessageRepository, directory *Directory, log *logger.Logger) *InboxService {
	return &InboxService{messages: messages, directory: directory, log: log}
}

// ListConversations returns the user's conversations ordered by most recent
// activity. Every failure path degrades to an empty list: a partially
// assembled inbox is worse than an empty one.
func (s *InboxService) ListConversations(ctx context.Context, userID uuid.UUID) []chat.Conversation {
	if userID == uuid.Nil {
		return []chat.Conversation{}
	}

	latest, err := s.messages.GetLatestPerCounterparty(ctx, userID, conversationFetchLimit)
	if err != nil {
		s.log.WithContext(ctx).Warn("conversation fetch failed", zap.Error(err))
		return []chat.Conversation{}
	}
	if len(latest) == 0 {
		return []chat.Conversation{}
	}

	partyIDs := make([]uuid.UUID, 0, len(latest))
	for _, m := range latest {
		partyIDs = append(partyIDs, m.Counterparty(userID))
	}

	profiles, err := s.directory.Resolve(ctx, partyIDs)
	if err != nil {
		s.log.WithContext(ctx).Warn("profile resolution failed", zap.Error(err))
		return []chat.Conversation{}
	}

	unread, err := s.messages.CountUnreadBySender(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).Warn("unread count fetch failed", zap.Error(err))
		return []chat.Conversation{}
	}

	conversations := make([]chat.Conversation, 0, len(latest))
	for _, m := range latest {
		party := m.Counterparty(userID)

		name := chat.PlaceholderName
		avatar := ""
		if p, ok := profiles[party]; ok {
			name = p.DisplayName
			if p.AvatarURL != nil {
				avatar = *p.AvatarURL
			}
		}
		// Ticket-originated messages impersonate the support identity.
		if m.FromSupportTicket() {
			name = chat.SupportDisplayName
		}

		conversations = append(conversations, chat.Conversation{
			PartyID:     party,
			DisplayName: name,
			AvatarURL:   avatar,
			Preview:     m.Preview(),
			LastAt:      m.CreatedAt,
			Unread:      unread[party],
		})
	}

	return conversations
}
