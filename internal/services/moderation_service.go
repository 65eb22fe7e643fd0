package services

import (
	"context"
	"time"

	"producer-chat/internal/domain/moderation"
	"producer-chat/internal/repository"
	"producer-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModerationService writes block and report records. Both actions are
// fire-and-forget: they never block or alter conversation state, and their
// failures are logged, not surfaced.
type ModerationService struct {
	repo repository.ModerationRepository
	log  *logger.Logger
}

func NewModerationService(repo repository.ModerationRepository, log *logger.Logger) *ModerationService {
	return &ModerationService{repo: repo, log: log}
}

// BlockUser inserts a blocker->blocked pair. The insert is plain: invoking
// it twice creates two records unless the store enforces uniqueness.
// Enforcement of blocks is an external concern.
func (s *ModerationService) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return
	}

	b := &moderation.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateBlock(ctx, b); err != nil {
		s.log.WithContext(ctx).Warn("block insert failed",
			zap.String("blocked_id", blockedID.String()), zap.Error(err))
	}
}

type ReportInput struct {
	ReporterID     uuid.UUID
	ReportedUserID uuid.UUID
	ConversationID string
	Reason         moderation.ReportReason
	Note           string
}

// ReportUser files a moderation report. Invalid input is a no-op, not an
// error.
func (s *ModerationService) ReportUser(ctx context.Context, in ReportInput) {
	if in.ReporterID == uuid.Nil || in.ReportedUserID == uuid.Nil {
		return
	}
	if !moderation.ValidReason(in.Reason) {
		s.log.WithContext(ctx).Warn("report dropped: unknown reason",
			zap.String("reason", string(in.Reason)))
		return
	}

	r := &moderation.Report{
		ID:             uuid.New(),
		ReporterID:     in.ReporterID,
		ReportedUserID: in.ReportedUserID,
		ConversationID: in.ConversationID,
		Reason:         in.Reason,
		CreatedAt:      time.Now(),
	}
	if in.Note != "" {
		note := in.Note
		r.Note = &note
	}
	if err := s.repo.CreateReport(ctx, r); err != nil {
		s.log.WithContext(ctx).Warn("report insert failed",
			zap.String("reported_user_id", in.ReportedUserID.String()), zap.Error(err))
	}
}
