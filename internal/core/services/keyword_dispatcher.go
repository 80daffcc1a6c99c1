package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bgclub-bot/internal/core/domain"

	"go.uber.org/zap"
)

// keywordEntry is one row of the command table. Gates are checked in
// order: membership, then role, then the manager feature switch.
type keywordEntry struct {
	keyword     string
	memberOnly  bool
	managerOnly bool
	needsFlag   bool
	description string
	handle      func(ctx context.Context, session *domain.Session) ([]domain.Message, domain.State)
}

func (s *ConversationService) buildKeywords() []keywordEntry {
	return []keywordEntry{
		{
			keyword:     "幫助",
			description: "正常不會跑出這段",
			handle:      s.keywordHelp,
		},
		{
			keyword:     "註冊",
			description: "我不會幫社員以外的人處理借還桌遊的事，所以告訴我你的入社序號跟你的資料，我會勉為其難記住你的，應該啦😀",
			handle:      s.keywordRegister,
		},
		{
			// The handler checks the switch itself so everyone gets the
			// "not started yet" reply instead of the generic gate.
			keyword:     "簽到",
			memberOnly:  true,
			description: "社課的時候給我乖乖簽到 ✍️。簽到次數越多，期末抽獎時中獎機率就越高 🎁。不過要是你懶得來，我也才不在乎呢 😏，少一次機會而已，關我屁事～",
			handle:      s.keywordSignIn,
		},
		{
			keyword:     "找桌遊",
			description: "告訴我你想用哪種條件搜尋，不告訴我可是不會理你的😝，接著告訴我你想搜尋的關鍵字就行了👍",
			handle:      s.keywordSearch,
		},
		{
			keyword:     "借桌遊",
			memberOnly:  true,
			needsFlag:   true,
			description: "告訴我你想借的桌遊編號，不知道編號在哪我才懶得跟你說他在盒子上😤，等我跟我同事說好才能拿走🫵",
			handle:      s.keywordBorrow,
		},
		{
			keyword:     "還桌遊",
			memberOnly:  true,
			needsFlag:   true,
			description: "同上，我才懶得跟你廢話😮‍💨，就是跟我講編號，放回我指定的位置，我跟同事都說好再滾，懂嗎❓",
			handle:      s.keywordReturn,
		},
		{
			keyword:     "建議桌遊",
			memberOnly:  true,
			description: "你可以建議我們社團要買什麼桌遊，我會大發善心幫你轉達😎",
			handle:      s.keywordSuggest,
		},
		{
			keyword:     "我覺得好好玩",
			memberOnly:  true,
			description: "玩得開心就好啦，反正我也不是很在意你喜歡什麼🙄\n不過既然你都說了，我就勉為其難記下來吧～",
			handle:      s.keywordEndorse,
		},
		{
			keyword:     "推薦",
			description: "我在無聊時會收集最近大家喜歡的桌遊資訊，但我才不會主動跟你講勒🤪\n然後如果你是社員，你也可以跟我分享你喜歡我們社團的哪個桌遊，雖然我不是很在意就是🥱",
			handle:      s.keywordRecommendMenu,
		},
		{
			keyword:     "熱門桌遊",
			description: "想知道最近大家都在玩什麼嗎？我就不情不願地告訴你吧😏\n畢竟我平常都有在觀察，只是懶得主動說而已～",
			handle:      s.keywordHot,
		},
		{
			keyword:     "on",
			memberOnly:  true,
			managerOnly: true,
			description: "這是開啟功能的指令啦～🙄 不過有些功能還是要我同事同意才行，別以為你輸入 on 我就會乖乖聽話😏",
			handle:      s.keywordOn,
		},
		{
			keyword:     "off",
			memberOnly:  true,
			managerOnly: true,
			description: "這是關閉功能的指令。😮‍💨 但我說了算嗎？才怪～ 有些功能還得經過我同事點頭才會真的關掉，別太天真啊😏",
			handle:      s.keywordOff,
		},
	}
}

// handleNormal matches the message against the command table, then the
// canned dialog, and falls through to the nudge reply. Keyword matching is
// case-insensitive substring, first entry wins.
func (s *ConversationService) handleNormal(ctx context.Context, session *domain.Session, text string) ([]domain.Message, domain.State) {
	lowered := strings.ToLower(text)

	for _, entry := range s.keywords {
		if !strings.Contains(lowered, entry.keyword) {
			continue
		}
		if entry.memberOnly && !session.Member.IsRegistered() {
			return []domain.Message{domain.Text{Text: "❌請先註冊，只有社員才能使用此功能"}}, domain.StateNormal
		}
		if entry.managerOnly && !session.Member.IsManager() {
			return []domain.Message{domain.Text{Text: "❌想做什麼，只有幹部才能使用此功能"}}, domain.StateNormal
		}
		if entry.needsFlag && !s.flag.Enabled() && !session.Member.IsManager() {
			return []domain.Message{
				domain.Text{Text: "❌我同事沒有許可可是不行的喔~"},
				domain.Text{Text: "請聯絡一下其他幹部呦~"},
			}, domain.StateNormal
		}
		return entry.handle(ctx, session)
	}

	for _, entry := range s.dialog {
		if strings.Contains(lowered, entry.trigger) {
			return []domain.Message{domain.Text{Text: entry.reply}}, domain.StateNormal
		}
	}

	return []domain.Message{
		domain.Text{Text: "你今天想幹嘛呢❓\n快點喔~我可是個大忙人呢~"},
		domain.Text{Text: "輸入「幫助」我就勉為其難告訴你能做些什麼😎"},
	}, domain.StateNormal
}

// keywordHelp lists the commands the asking member is actually allowed to
// use, so unregistered users never see member-only entries.
func (s *ConversationService) keywordHelp(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	var blocks []string
	for _, entry := range s.keywords {
		if entry.keyword == "幫助" {
			continue
		}
		if entry.memberOnly && !session.Member.IsRegistered() {
			continue
		}
		if entry.managerOnly && !session.Member.IsManager() {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("🟢%s\n%s", entry.keyword, entry.description))
	}
	return []domain.Message{
		domain.Text{Text: "哼～看你這麼無知的份上，我就告訴你我能做什麼吧😤"},
		domain.Text{Text: strings.Join(blocks, "\n\n")},
		domain.Text{Text: "作者:\n如果你覺得它壞掉或卡住的話輸入「重置」並從頭操作一遍。\n或是聯繫我們的幹部們~"},
	}, domain.StateNormal
}

func (s *ConversationService) keywordRegister(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	if session.Member.IsRegistered() {
		m := session.Member
		return []domain.Message{
			domain.Text{Text: fmt.Sprintf("%s你已經註冊過了，不要再來了喔🤗~", m.DisplayName())},
			domain.Text{Text: fmt.Sprintf(
				"這是你之前的註冊資料\n姓名：%s\n暱稱：%s\n學號：%s\n科系：%s\n年級：%s\n電話📞：%s",
				m.Name, m.Nickname, m.StudentID, m.Department, m.Grade, m.PhoneNumber)},
			domain.Text{Text: communityInvite()},
		}, domain.StateNormal
	}
	return []domain.Message{domain.Text{Text: "請輸入序號進行註冊："}}, domain.StateRegisterKey
}

func (s *ConversationService) keywordSignIn(ctx context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	if !s.flag.Enabled() {
		return []domain.Message{domain.Text{Text: "社課還沒開始你簽到啥阿❓"}}, domain.StateNormal
	}

	today := s.now()
	member := session.Member
	if member.SignedInOn(today) {
		return []domain.Message{domain.Text{Text: "你今天已經簽到過囉❗️"}}, domain.StateNormal
	}

	member.SignIn(today)
	if err := s.members.UpdateByUUID(ctx, member); err != nil {
		s.logger.Error("❌ sign-in write-back failed", zap.String("uuid", member.UUID), zap.Error(err))
		return []domain.Message{domain.Text{Text: "簽到失敗❌"}}, domain.StateNormal
	}
	session.SetMember(member)
	s.intake.LogSignIn(ctx, member)

	return []domain.Message{domain.Text{Text: fmt.Sprintf("%s簽到成功🎉", member.DisplayName())}}, domain.StateNormal
}

func (s *ConversationService) keywordSearch(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	session.Vars.Search = &domain.SearchParams{}
	session.Vars.Page = 0
	options := make([]domain.Option, 0, len(searchableFields))
	for _, field := range searchableFields {
		options = append(options, domain.Option{Label: field, SendText: field})
	}
	return []domain.Message{domain.Buttons{
		Alt:     "請選擇搜尋的欄位",
		Title:   "搜尋條件",
		Options: options,
	}}, domain.StateSearch
}

// borrowedList renders the member's current loans as chat blocks, or nil
// when nothing is out.
func (s *ConversationService) borrowedList(ctx context.Context, session *domain.Session) ([]domain.Message, error) {
	borrowed, err := s.assets.QueryByField(ctx, "借用人", session.Member.Name, true)
	if err != nil {
		return nil, err
	}
	if len(borrowed) == 0 {
		return nil, nil
	}
	messages := []domain.Message{domain.Text{Text: fmt.Sprintf("%s 你已經借了:", session.Member.DisplayName())}}
	return append(messages, s.assetBatches(borrowed, session.Member.IsManager())...), nil
}

func (s *ConversationService) keywordBorrow(ctx context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	messages, err := s.borrowedList(ctx, session)
	if err != nil {
		s.logger.Error("❌ borrowed list failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 借用失敗❌"}}, domain.StateNormal
	}
	messages = append(messages, domain.Text{Text: "告訴我桌遊編號我才能幫你借。😘"})
	return messages, domain.StateBorrowID
}

func (s *ConversationService) keywordReturn(ctx context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	messages, err := s.borrowedList(ctx, session)
	if err != nil {
		s.logger.Error("❌ borrowed list failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 歸還失敗❌"}}, domain.StateNormal
	}
	if messages == nil {
		messages = []domain.Message{domain.Text{Text: fmt.Sprintf("%s 你已經借了:", session.Member.DisplayName())}}
	}
	messages = append(messages, domain.Text{Text: "告訴我桌遊編號我才能幫你還。😘"})
	return messages, domain.StateReturnID
}

func (s *ConversationService) keywordSuggest(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s 先讓我聽聽看你想推薦什麼桌遊❓\n我考慮看看😎", session.Member.DisplayName())}}, domain.StateSuggest
}

func (s *ConversationService) keywordEndorse(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s 你喜歡社辦哪款桌遊⁉️\n告訴我編號😃", session.Member.DisplayName())}}, domain.StateRecommendID
}

func (s *ConversationService) keywordRecommendMenu(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	return []domain.Message{
		domain.Text{Text: fmt.Sprintf("%s 是想推薦\n還是被推薦😎😎", session.Member.DisplayName())},
		domain.Buttons{
			Alt:   "recommend menu",
			Title: " ",
			Options: []domain.Option{
				{Label: "熱門桌遊", SendText: "熱門桌遊"},
				{Label: "我覺得好好玩", SendText: "我覺得好好玩"},
			},
		},
	}, domain.StateNormal
}

var rankIcons = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// keywordHot lists the ten most endorsed assets, hottest first. Ties keep
// their sheet order.
func (s *ConversationService) keywordHot(ctx context.Context, _ *domain.Session) ([]domain.Message, domain.State) {
	assets, err := s.assets.FetchAll(ctx)
	if err != nil {
		s.logger.Error("❌ hot list fetch failed", zap.Error(err))
		return []domain.Message{domain.Text{Text: "出現意外狀況 請稍後再試❌"}}, domain.StateNormal
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].RecommendCount > assets[j].RecommendCount
	})
	if len(assets) > len(rankIcons) {
		assets = assets[:len(rankIcons)]
	}

	entries := make([]string, 0, len(assets))
	for i, asset := range assets {
		fire := ""
		if i < 3 {
			fire = "🔥"
		}
		entries = append(entries, fmt.Sprintf(
			"%s%s\n 編號: %d\n 英文名稱: %s\n 中文名稱: %s\n 種類: %s\n",
			fire, rankIcons[i], asset.ID, asset.NameEN, asset.NameZH, asset.Category))
	}

	split := len(entries)
	if split > 5 {
		split = 5
	}
	messages := []domain.Message{domain.Text{Text: fmt.Sprintf(
		"✨熱門桌遊✨\n\n%s", strings.Join(entries[:split], "\n\n"))}}
	if len(entries) > split {
		messages = append(messages, domain.Text{Text: strings.Join(entries[split:], "\n\n")})
	}
	return messages, domain.StateNormal
}

func (s *ConversationService) keywordOn(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	if !s.flag.Set(true) {
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s 已經是開著的喔🤩", session.Member.DisplayName())}}, domain.StateNormal
	}
	s.logger.Info("🔓 member features enabled", zap.String("by", session.Member.Name))
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s 看在同事一場\n勉為其難幫你打開😫", session.Member.DisplayName())}}, domain.StateNormal
}

func (s *ConversationService) keywordOff(_ context.Context, session *domain.Session) ([]domain.Message, domain.State) {
	if !s.flag.Set(false) {
		return []domain.Message{domain.Text{Text: fmt.Sprintf(
			"%s 已經是關閉的喔🤩", session.Member.DisplayName())}}, domain.StateNormal
	}
	s.logger.Info("🔒 member features disabled", zap.String("by", session.Member.Name))
	return []domain.Message{domain.Text{Text: fmt.Sprintf(
		"%s有記得關~算你識相🤩", session.Member.DisplayName())}}, domain.StateNormal
}
