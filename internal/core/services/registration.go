package services

import (
	"context"
	"fmt"

	"bgclub-bot/internal/core/domain"

	"go.uber.org/zap"
)

// The registration flow collects profile fields one message at a time into
// the session draft and only writes the member row once, at the very end.
// Abandoned drafts cost nothing.

func (s *ConversationService) handleRegisterKey(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	member, err := s.members.FindByRegisterKey(ctx, text)
	if err != nil {
		s.logger.Error("❌ register key lookup failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外情況 註冊失敗❌"}}, domain.StateRegisterKey
	}
	if member == nil {
		return []domain.Message{domain.Text{Text: "❌查無此序號"}}, domain.StateRegisterKey
	}
	if member.UUID != "" {
		return []domain.Message{domain.Text{Text: "⚠️此序號已註冊"}}, domain.StateRegisterKey
	}

	session.Vars.Draft = domain.RegistrationDraft{RegisterKey: text}
	return []domain.Message{domain.Text{Text: "✅序號合法\n請輸入姓名："}}, domain.StateRegisterName
}

func (s *ConversationService) handleRegisterName(session *domain.Session, text string) ([]domain.Message, domain.State) {
	session.Vars.Draft.Name = text
	return []domain.Message{domain.Text{Text: "請輸入暱稱："}}, domain.StateRegisterNickname
}

func (s *ConversationService) handleRegisterNickname(session *domain.Session, text string) ([]domain.Message, domain.State) {
	session.Vars.Draft.Nickname = text
	return []domain.Message{domain.Text{Text: "請輸入學號："}}, domain.StateRegisterStudentID
}

func (s *ConversationService) handleRegisterStudentID(session *domain.Session, text string) ([]domain.Message, domain.State) {
	session.Vars.Draft.StudentID = text
	return departmentButtons(), domain.StateRegisterDepartment
}

// departmentButtons splits the department list into button templates. The
// transport caps one template at a handful of options, so the list is cut
// into five roughly equal chunks.
func departmentButtons() []domain.Message {
	chunkSize := (len(domain.Departments) + 4) / 5
	var messages []domain.Message
	for start := 0; start < len(domain.Departments); start += chunkSize {
		end := start + chunkSize
		if end > len(domain.Departments) {
			end = len(domain.Departments)
		}
		options := make([]domain.Option, 0, end-start)
		for _, dept := range domain.Departments[start:end] {
			options = append(options, domain.Option{Label: dept, SendText: dept})
		}
		messages = append(messages, domain.Buttons{
			Alt:     "選擇科系",
			Title:   "請選擇科系",
			Options: options,
		})
	}
	return messages
}

func (s *ConversationService) handleRegisterDepartment(session *domain.Session, text string) ([]domain.Message, domain.State) {
	if !domain.IsDepartment(text) {
		return []domain.Message{domain.Text{Text: "❌這裡不收自訂義科系，\n再給你一次重新選擇的機會："}}, domain.StateRegisterDepartment
	}
	session.Vars.Draft.Department = text
	return gradeButtons(), domain.StateRegisterGrade
}

func gradeButtons() []domain.Message {
	first := make([]domain.Option, 0, 4)
	for _, g := range domain.Grades[:4] {
		first = append(first, domain.Option{Label: g, SendText: g})
	}
	second := make([]domain.Option, 0, 2)
	for _, g := range domain.Grades[4:] {
		second = append(second, domain.Option{Label: g, SendText: g})
	}
	return []domain.Message{
		domain.Buttons{Alt: "選擇年級", Title: "請選擇年級", Options: first},
		domain.Buttons{Alt: "選擇年級", Title: "請選擇年級", Options: second},
	}
}

func (s *ConversationService) handleRegisterGrade(session *domain.Session, text string) ([]domain.Message, domain.State) {
	if !domain.IsGrade(text) {
		return []domain.Message{domain.Text{Text: "你連你自己幾年級都不知道嗎❓😮‍💨"}}, domain.StateRegisterGrade
	}
	session.Vars.Draft.Grade = text
	return []domain.Message{domain.Text{Text: "請輸入電話📞："}}, domain.StateRegisterPhone
}

func (s *ConversationService) handleRegisterPhone(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	if !digitsPattern.MatchString(text) {
		return []domain.Message{domain.Text{Text: "你是哪裡人，應該沒有哪個國家電話不是數字吧❓❓\n再給你一次機會："}}, domain.StateRegisterPhone
	}
	session.Vars.Draft.PhoneNumber = text

	draft := session.Vars.Draft
	existing, err := s.members.FindByRegisterKey(ctx, draft.RegisterKey)
	if err != nil {
		s.logger.Error("❌ registration key re-check failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外情況 註冊失敗❌"}}, domain.StateNormal
	}
	if existing == nil {
		// The key row vanished from the sheet mid-flow.
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"❌錯誤 我壞掉了😵\n請重新註冊一次\n%s", draft.RegisterKey)}}, domain.StateNormal
	}

	member := domain.Member{
		UUID:        session.Member.UUID,
		Name:        draft.Name,
		Nickname:    draft.Nickname,
		StudentID:   draft.StudentID,
		Department:  draft.Department,
		Grade:       draft.Grade,
		PhoneNumber: draft.PhoneNumber,
		RegisterKey: draft.RegisterKey,
		Role:        domain.RoleMember,
	}
	if err := s.members.UpdateByRegisterKey(ctx, draft.RegisterKey, member); err != nil {
		s.logger.Error("❌ registration write-back failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外情況 註冊失敗❌"}}, domain.StateNormal
	}

	session.SetMember(member)
	session.Vars.Draft = domain.RegistrationDraft{}
	s.logger.Info("🎉 member registered",
		zap.String("uuid", member.UUID), zap.String("name", member.Name))

	return []domain.Message{
		domain.Text{Text: "🎉註冊成功！"},
		domain.Text{Text: fmt.Sprintf(
			"這是你的註冊資料呢 📋～\n👤 姓名：%s\n🏷️ 暱稱：%s\n🎓 學號：%s\n🏫 科系：%s\n📚 年級：%s\n📞 電話：%s\n📜 身份：%s",
			member.Name, member.Nickname, member.StudentID,
			member.Department, member.Grade, member.PhoneNumber, member.Role)},
		domain.Text{Text: communityInvite()},
	}, domain.StateNormal
}
