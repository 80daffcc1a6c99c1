package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bgclub-bot/internal/adapters/persistence/repositories"
	"bgclub-bot/internal/core/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pusher delivers an unsolicited message to one chat identifier.
type Pusher interface {
	Push(ctx context.Context, uuid string, messages []domain.Message) error
}

// ReminderService nags members holding borrowed assets. It runs every
// morning before the club room opens.
type ReminderService struct {
	assets  repositories.AssetRepository
	members repositories.MemberRepository
	pusher  Pusher
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewReminderService creates the service without scheduling anything.
func NewReminderService(
	assets repositories.AssetRepository,
	members repositories.MemberRepository,
	pusher Pusher,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		assets:  assets,
		members: members,
		pusher:  pusher,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start schedules the daily run. The schedule is fixed at 08:30 local time.
func (s *ReminderService) Start() error {
	_, err := s.cron.AddFunc("30 8 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Run(ctx); err != nil {
			s.logger.Error("❌ borrow reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule borrow reminder: %w", err)
	}
	s.cron.Start()
	s.logger.Info("⏰ borrow reminder scheduled", zap.String("cron", "30 8 * * *"))
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// Run pushes one reminder to every member currently holding assets.
// Borrowers without a member row (manually edited sheets) are skipped.
func (s *ReminderService) Run(ctx context.Context) error {
	assets, err := s.assets.FetchAll(ctx)
	if err != nil {
		return err
	}

	byBorrower := make(map[string][]domain.Asset)
	for _, asset := range assets {
		if asset.Borrowed && asset.Borrower != "" {
			byBorrower[asset.Borrower] = append(byBorrower[asset.Borrower], asset)
		}
	}
	if len(byBorrower) == 0 {
		return nil
	}

	members, err := s.members.FetchAll(ctx)
	if err != nil {
		return err
	}
	uuidByName := make(map[string]string, len(members))
	for _, member := range members {
		if member.UUID != "" {
			uuidByName[member.Name] = member.UUID
		}
	}

	for borrower, held := range byBorrower {
		uuid, ok := uuidByName[borrower]
		if !ok {
			s.logger.Warn("⚠️ borrower has no member row", zap.String("name", borrower))
			continue
		}

		lines := make([]string, 0, len(held))
		for _, asset := range held {
			lines = append(lines, fmt.Sprintf("%d %s", asset.ID, asset.NameZH))
		}
		text := fmt.Sprintf("☀️早安~提醒一下\n你還借著這些桌遊喔：\n%s\n記得還哈❗", strings.Join(lines, "\n"))

		if err := s.pusher.Push(ctx, uuid, []domain.Message{domain.Text{Text: text}}); err != nil {
			s.logger.Warn("⚠️ reminder push failed",
				zap.String("uuid", uuid), zap.Error(err))
			continue
		}
	}
	s.logger.Info("⏰ borrow reminders sent", zap.Int("borrowers", len(byBorrower)))
	return nil
}
