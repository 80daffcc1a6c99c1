package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bgclub-bot/internal/adapters/persistence/repositories"
	"bgclub-bot/internal/core/domain"
	"bgclub-bot/internal/pkg/pagination"

	"go.uber.org/zap"
)

// Global commands evaluated before any state handler.
const (
	resetCommand      = "重置"
	debugStateCommand = "狀態"
)

// searchableFields are the asset columns the search flow lets users pick.
var searchableFields = []string{"編號", "英文名稱", "中文名稱", "種類"}

var (
	englishPattern = regexp.MustCompile(`^[A-Za-z\s_]+$`)
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
)

// ConversationService is the per-user conversation state machine. Every
// inbound message resolves a session, swaps its state to hold, runs the
// handler for the state the swap replaced and releases the session into
// the handler's chosen next state. The hold swap is what keeps duplicate
// deliveries from mutating the store twice.
type ConversationService struct {
	registry *SessionRegistry
	assets   repositories.AssetRepository
	members  repositories.MemberRepository
	flag     *FeatureSwitch
	intake   *IntakeService
	logger   *zap.Logger
	now      func() time.Time

	keywords []keywordEntry
	dialog   []dialogEntry
}

// NewConversationService wires the state machine to its collaborators.
func NewConversationService(
	registry *SessionRegistry,
	assets repositories.AssetRepository,
	members repositories.MemberRepository,
	flag *FeatureSwitch,
	intake *IntakeService,
	logger *zap.Logger,
) *ConversationService {
	s := &ConversationService{
		registry: registry,
		assets:   assets,
		members:  members,
		flag:     flag,
		intake:   intake,
		logger:   logger,
		now:      time.Now,
		dialog:   defaultDialog,
	}
	s.keywords = s.buildKeywords()
	return s
}

// Handle processes one inbound text message and returns the ordered reply
// list. It always returns at least one message and always leaves the
// session in a state from the closed set.
func (s *ConversationService) Handle(ctx context.Context, uuid, text string) []domain.Message {
	text = strings.TrimSpace(text)

	// Reset works from any state, including hold.
	if text == resetCommand {
		s.registry.Clear(uuid)
		return []domain.Message{domain.Text{Text: "🔄重置成功"}}
	}

	session := s.registry.Resolve(uuid)

	if text == debugStateCommand {
		return []domain.Message{domain.Text{Text: session.State().String()}}
	}

	prev := session.Acquire()
	if prev == domain.StateHold {
		// Another handler for this user is still in flight.
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s\n我知道你很急 但你先別急\n✋慢慢來比較快~~", session.DisplayName())}}
	}

	if err := s.refreshMember(ctx, session); err != nil {
		s.logger.Error("❌ refresh member snapshot failed", zap.String("uuid", uuid), zap.Error(err))
		session.Release(prev)
		return []domain.Message{domain.Text{Text: "出現意外狀況 請稍後再試❌"}}
	}

	messages, next := s.dispatch(ctx, session, prev, text)
	session.Release(next)

	if len(messages) == 0 {
		messages = []domain.Message{domain.Text{Text: "你今天想幹嘛呢❓\n快點喔~我可是個大忙人呢~"}}
	}
	return messages
}

// refreshMember re-reads the member row at the start of each message so
// admin edits to the sheet show up without a restart. An unknown uuid
// keeps its placeholder.
func (s *ConversationService) refreshMember(ctx context.Context, session *domain.Session) error {
	member, err := s.members.FindByUUID(ctx, session.Member.UUID)
	if err != nil {
		return err
	}
	if member != nil {
		session.SetMember(*member)
	}
	return nil
}

// dispatch routes to the handler of the state the hold swap replaced.
func (s *ConversationService) dispatch(ctx context.Context, session *domain.Session, state domain.State, text string) ([]domain.Message, domain.State) {
	switch state {
	case domain.StateNormal:
		return s.handleNormal(ctx, session, text)
	case domain.StateSearch:
		return s.handleSearch(ctx, session, text)
	case domain.StateBorrowID:
		return s.handleBorrowID(ctx, session, text)
	case domain.StateReturnID:
		return s.handleReturnID(ctx, session, text)
	case domain.StatePosition:
		return s.handlePosition(ctx, session, text)
	case domain.StateSuggest:
		return s.handleSuggest(ctx, session, text)
	case domain.StateRecommendID:
		return s.handleRecommendID(ctx, session, text)
	case domain.StateRegisterKey:
		return s.handleRegisterKey(ctx, session, text)
	case domain.StateRegisterName:
		return s.handleRegisterName(session, text)
	case domain.StateRegisterNickname:
		return s.handleRegisterNickname(session, text)
	case domain.StateRegisterStudentID:
		return s.handleRegisterStudentID(session, text)
	case domain.StateRegisterDepartment:
		return s.handleRegisterDepartment(session, text)
	case domain.StateRegisterGrade:
		return s.handleRegisterGrade(session, text)
	case domain.StateRegisterPhone:
		return s.handleRegisterPhone(ctx, session, text)
	default:
		s.logger.Warn("⚠️ session in unknown state", zap.Stringer("state", state))
		return []domain.Message{domain.Text{Text: "我壞掉了😵 輸入「重置」重新來過吧"}}, domain.StateNormal
	}
}

// findAssetByIDText resolves user-typed text to an asset. Non-numeric
// input is simply "not found", never an error.
func (s *ConversationService) findAssetByIDText(ctx context.Context, text string) (*domain.Asset, error) {
	id, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, nil
	}
	return s.assets.FindByID(ctx, id)
}

func (s *ConversationService) handleSearch(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	vars := &session.Vars

	// First entry: no field picked yet.
	if vars.Search == nil || vars.Search.Field == "" {
		var matched string
		for _, field := range searchableFields {
			if strings.Contains(text, field) {
				matched = field
				break
			}
		}
		if matched == "" {
			options := make([]string, 0, len(searchableFields))
			for _, field := range searchableFields {
				options = append(options, "• "+field)
			}
			return []domain.Message{domain.Text{Text: fmt.Sprintf(
				"❌ 抱歉，無法查詢「%s」\n\n🔍 可查詢的欄位有：\n%s\n\n請重新選擇要查詢的欄位~",
				text, strings.Join(options, "\n"))}}, domain.StateSearch
		}
		vars.Search = &domain.SearchParams{Field: matched}
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"✅ 好的！請輸入要搜尋的 %s 關鍵字：\n\n💡 小提示：關鍵字不需要完全相符，輸入部分名稱即可搜尋~",
			matched)}}, domain.StateSearch
	}

	// Paging commands move the cursor; anything else is a fresh filter.
	delta := 0
	switch text {
	case "下一頁":
		delta = 1
	case "上一頁":
		delta = -1
	default:
		vars.Search.Value = text
		vars.Page = 0
	}

	results, err := s.assets.QueryByField(ctx, vars.Search.Field, vars.Search.Value, false)
	if err != nil {
		s.logger.Error("❌ search query failed", zap.String("field", vars.Search.Field), zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 搜尋失敗❌"}}, domain.StateNormal
	}

	if len(results) == 0 {
		field, value := vars.Search.Field, vars.Search.Value
		vars.Search = nil
		vars.Page = 0
		return []domain.Message{
			domain.Text{Text: fmt.Sprintf(
				"😅 很遺憾！在「%s」中找不到包含「%s」的桌遊\n\n💡 建議：\n• 檢查關鍵字是否正確\n• 嘗試使用更簡短的關鍵字\n• 或者換個搜尋欄位試試看~",
				field, value)},
			domain.Text{Text: "如果想退出搜尋，請輸入「重置」ㄛ~"},
		}, domain.StateNormal
	}

	totalPages := pagination.TotalPages(len(results), pagination.PageSize)
	vars.Page = pagination.Clamp(vars.Page+delta, totalPages)
	start, end := pagination.Bounds(vars.Page, pagination.PageSize, len(results))

	blocks := make([]string, 0, end-start)
	for _, asset := range results[start:end] {
		blocks = append(blocks, asset.DisplayText(session.Member.IsManager()))
	}

	return []domain.Message{domain.SearchPage{
		Field:      vars.Search.Field,
		Value:      vars.Search.Value,
		Page:       vars.Page,
		TotalPages: totalPages,
		Total:      len(results),
		Body:       strings.Join(blocks, "\n\n"),
		HasPrev:    vars.Page > 0,
		HasNext:    vars.Page < totalPages-1,
	}}, domain.StateSearch
}

func (s *ConversationService) handleBorrowID(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	asset, err := s.findAssetByIDText(ctx, text)
	if err != nil {
		s.logger.Error("❌ borrow lookup failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 借用失敗❌"}}, domain.StateBorrowID
	}
	if asset == nil {
		return []domain.Message{domain.Text{Text: fmt.Sprintf("❌ 找不到編號為 %s 的桌遊", text)}}, domain.StateBorrowID
	}
	if asset.Borrowed {
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s 真可惜\n %s 被人搶先一步借走了🥲。", session.Member.DisplayName(), asset.NameZH)}}, domain.StateNormal
	}

	asset.Borrow(session.Member.Name)
	if err := s.assets.Update(ctx, *asset); err != nil {
		s.logger.Error("❌ borrow write-back failed", zap.Int("asset", asset.ID), zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 借用失敗❌"}}, domain.StateBorrowID
	}
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s 你借了 %d %s 記得還哈❗", session.Member.DisplayName(), asset.ID, asset.NameZH)}}, domain.StateNormal
}

func (s *ConversationService) handleReturnID(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	asset, err := s.findAssetByIDText(ctx, text)
	if err != nil {
		s.logger.Error("❌ return lookup failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 歸還失敗❌"}}, domain.StateReturnID
	}
	if asset == nil {
		return []domain.Message{domain.Text{Text: fmt.Sprintf("❌ 找不到編號為 %s 的桌遊", text)}}, domain.StateReturnID
	}
	if !asset.Borrowed || asset.Borrower != session.Member.Name {
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"🤡%s 你才沒借這個好嗎？", session.Member.DisplayName())}}, domain.StateNormal
	}

	// A manager forgot to record the shelf; ask the member to pick one
	// before the return can complete.
	if asset.Position == "" {
		session.Vars.PendingReturn = asset
		options := make([]domain.Option, 0, len(domain.Positions))
		for _, p := range domain.Positions {
			options = append(options, domain.Option{Label: string(p), SendText: string(p)})
		}
		return []domain.Message{
			domain.Text{Text: fmt.Sprintf(
				"不好意思🙏，我們的幹部怠忽職守🤡，沒有記錄到他放在哪，\n%s 你幫我放在任意櫃子上，\n然後告訴我你放在哪一櫃：",
				session.Member.DisplayName())},
			domain.Buttons{Alt: "選擇櫃子", Title: "請選擇櫃子", Options: options},
		}, domain.StatePosition
	}

	asset.Return()
	if err := s.assets.Update(ctx, *asset); err != nil {
		s.logger.Error("❌ return write-back failed", zap.Int("asset", asset.ID), zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 歸還失敗❌"}}, domain.StateReturnID
	}
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s你很棒👍有記得還:%d %s\n請幫我把它放回 %s 櫃，拜托囉~~😘",
		session.Member.DisplayName(), asset.ID, asset.NameZH, asset.Position)}}, domain.StateNormal
}

func (s *ConversationService) handlePosition(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	position, ok := domain.ParsePosition(text)
	if !ok {
		return []domain.Message{domain.Text{Text: "❌這裡不收自訂義櫃子，\n再給你一次重新選擇的機會："}}, domain.StatePosition
	}

	asset := session.Vars.PendingReturn
	if asset == nil {
		return []domain.Message{domain.Text{Text: "我壞掉了😵\n請重還一次"}}, domain.StateNormal
	}

	asset.Position = position
	asset.Return()
	if err := s.assets.Update(ctx, *asset); err != nil {
		s.logger.Error("❌ position write-back failed", zap.Int("asset", asset.ID), zap.Error(err))
		session.Vars.PendingReturn = nil
		return []domain.Message{domain.Text{Text: "我壞掉了😵\n請重還一次"}}, domain.StateNormal
	}
	session.Vars.PendingReturn = nil
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s你很棒👍有記得還桌遊\n幫我把它放回 %s 櫃，拜托囉~~😘",
		session.Member.DisplayName(), position)}}, domain.StateNormal
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (s *ConversationService) handleSuggest(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	isEnglish := englishPattern.MatchString(text)
	field := "中文名稱"
	if isEnglish {
		field = "英文名稱"
	}

	similar, err := s.assets.QueryByField(ctx, field, text, false)
	if err != nil {
		s.logger.Error("❌ suggestion lookup failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "建議失敗❌"}}, domain.StateNormal
	}

	// The suggestion goes to the intake form no matter what we own.
	s.intake.LogSuggestion(ctx, text)

	var exact *domain.Asset
	for i := range similar {
		name := similar[i].NameZH
		if isEnglish {
			name = similar[i].NameEN
		}
		if normalize(name) == normalize(text) {
			exact = &similar[i]
			break
		}
	}

	switch {
	case exact != nil:
		return []domain.Message{
			domain.Text{Text: exact.DisplayText(session.Member.IsManager())},
			domain.Text{Text: "你過時了😜 這我們早就有了🤣"},
		}, domain.StateNormal
	case len(similar) > 0:
		messages := []domain.Message{
			domain.Text{Text: fmt.Sprintf(
				"社辦也許有但我不確定🤔但還是會跟我同事建議看看((%s 快感謝我🤩", session.Member.DisplayName())},
			domain.Text{Text: "先給你看看相似的桌遊："},
		}
		messages = append(messages, s.assetBatches(similar, session.Member.IsManager())...)
		return messages, domain.StateNormal
	default:
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s 我絕對沒有覺得聽起來很不錯😖\n但我會轉達給我同事的🙃", session.Member.DisplayName())}}, domain.StateNormal
	}
}

func (s *ConversationService) handleRecommendID(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	asset, err := s.findAssetByIDText(ctx, text)
	if err != nil {
		s.logger.Error("❌ recommend lookup failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "推薦失敗❌"}}, domain.StateNormal
	}
	if asset == nil {
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s再騙我要生氣囉😡\n社辦明明就沒有這桌遊😤", session.Member.DisplayName())}}, domain.StateRecommendID
	}

	asset.Recommend()
	if err := s.assets.Update(ctx, *asset); err != nil {
		s.logger.Error("❌ recommend write-back failed", zap.Int("asset", asset.ID), zap.Error(err))
		return []domain.Message{domain.Text{Text: "推薦失敗❌"}}, domain.StateNormal
	}
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s 算你有品味😉", session.Member.DisplayName())}}, domain.StateNormal
}

// assetBatches renders assets as text blocks, three per message.
func (s *ConversationService) assetBatches(assets []domain.Asset, showBorrower bool) []domain.Message {
	var messages []domain.Message
	for start := 0; start < len(assets); start += pagination.PageSize {
		end := start + pagination.PageSize
		if end > len(assets) {
			end = len(assets)
		}
		blocks := make([]string, 0, end-start)
		for _, asset := range assets[start:end] {
			blocks = append(blocks, asset.DisplayText(showBorrower))
		}
		messages = append(messages, domain.Text{Text: strings.Join(blocks, "\n\n")})
	}
	return messages
}
