package services

import (
	"context"
	"fmt"
	"time"

	"bgclub-bot/internal/core/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Google Form entry field ids. These are part of the forms' prefill
// contract and change only when the forms are rebuilt.
const (
	signInEntryName       = "entry.1777123803"
	signInEntryDepartment = "entry.980466456"
	signInEntryStudentID  = "entry.1684060118"

	suggestionEntryText   = "entry.1522855814"
	suggestionEntrySource = "entry.903077000"

	suggestionSource = "小傲驕轉達"
)

// IntakeConfig holds the Google Form ids used as logging endpoints.
type IntakeConfig struct {
	SignInFormID     string
	SuggestionFormID string
}

// IntakeService forwards sign-ins and purchase suggestions to external
// Google Forms. Both calls are fire-and-forget: failures are logged and
// never surfaced to the conversation.
type IntakeService struct {
	http   *resty.Client
	logger *zap.Logger
	cfg    IntakeConfig
}

// NewIntakeService creates a new intake service.
func NewIntakeService(cfg IntakeConfig, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		http:   resty.New().SetTimeout(5 * time.Second),
		logger: logger,
		cfg:    cfg,
	}
}

func (s *IntakeService) submit(ctx context.Context, formID string, params map[string]string) {
	if formID == "" {
		return
	}
	url := fmt.Sprintf("https://docs.google.com/forms/d/e/%s/formResponse", formID)
	resp, err := s.http.R().SetContext(ctx).SetQueryParams(params).Get(url)
	if err != nil {
		s.logger.Warn("⚠️ intake submit failed", zap.String("form", formID), zap.Error(err))
		return
	}
	if resp.IsError() {
		s.logger.Warn("⚠️ intake submit rejected",
			zap.String("form", formID), zap.Int("status", resp.StatusCode()))
	}
}

// LogSignIn records one attendance in the sign-in form.
func (s *IntakeService) LogSignIn(ctx context.Context, member domain.Member) {
	s.submit(ctx, s.cfg.SignInFormID, map[string]string{
		"usp":                 "pp_url",
		signInEntryName:       member.Name,
		signInEntryDepartment: member.Department,
		signInEntryStudentID:  member.StudentID,
	})
}

// LogSuggestion forwards a raw purchase suggestion to the suggestion form.
func (s *IntakeService) LogSuggestion(ctx context.Context, text string) {
	s.submit(ctx, s.cfg.SuggestionFormID, map[string]string{
		"usp":                 "pp_url",
		suggestionEntryText:   text,
		suggestionEntrySource: suggestionSource,
	})
}
