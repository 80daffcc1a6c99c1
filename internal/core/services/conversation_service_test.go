package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"bgclub-bot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAssets is an in-memory AssetRepository.
type fakeAssets struct {
	assets []domain.Asset
	err    error
}

func assetFieldValue(asset domain.Asset, field string) string {
	switch field {
	case "編號":
		return strconv.Itoa(asset.ID)
	case "英文名稱":
		return asset.NameEN
	case "中文名稱":
		return asset.NameZH
	case "種類":
		return asset.Category
	case "借用人":
		if asset.Borrowed {
			return asset.Borrower
		}
		return ""
	default:
		return ""
	}
}

func (f *fakeAssets) FetchAll(context.Context) ([]domain.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Asset(nil), f.assets...), nil
}

func (f *fakeAssets) FindByID(_ context.Context, id int) (*domain.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.assets {
		if f.assets[i].ID == id {
			asset := f.assets[i]
			return &asset, nil
		}
	}
	return nil, nil
}

func (f *fakeAssets) QueryByField(_ context.Context, field, value string, strict bool) ([]domain.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	var matches []domain.Asset
	for _, asset := range f.assets {
		cell := strings.ToLower(strings.TrimSpace(assetFieldValue(asset, field)))
		if cell == "" {
			continue
		}
		if strict && cell != needle {
			continue
		}
		if !strict && !strings.Contains(cell, needle) {
			continue
		}
		matches = append(matches, asset)
	}
	return matches, nil
}

func (f *fakeAssets) Update(_ context.Context, asset domain.Asset) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.assets {
		if f.assets[i].ID == asset.ID {
			f.assets[i] = asset
			return nil
		}
	}
	return fmt.Errorf("%w: asset %d", domain.ErrRecordNotFound, asset.ID)
}

// fakeMembers is an in-memory MemberRepository.
type fakeMembers struct {
	members []domain.Member
	err     error
}

func (f *fakeMembers) FetchAll(context.Context) ([]domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Member(nil), f.members...), nil
}

func (f *fakeMembers) FindByUUID(_ context.Context, uuid string) (*domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.members {
		if f.members[i].UUID == uuid {
			member := f.members[i]
			return &member, nil
		}
	}
	return nil, nil
}

func (f *fakeMembers) FindByRegisterKey(_ context.Context, key string) (*domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.members {
		if f.members[i].RegisterKey == key {
			member := f.members[i]
			return &member, nil
		}
	}
	return nil, nil
}

func (f *fakeMembers) UpdateByUUID(_ context.Context, member domain.Member) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.members {
		if f.members[i].UUID == member.UUID {
			f.members[i] = member
			return nil
		}
	}
	return fmt.Errorf("%w: member %s", domain.ErrRecordNotFound, member.UUID)
}

func (f *fakeMembers) UpdateByRegisterKey(_ context.Context, key string, member domain.Member) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.members {
		if f.members[i].RegisterKey == key {
			f.members[i] = member
			return nil
		}
	}
	return fmt.Errorf("%w: register key %s", domain.ErrRecordNotFound, key)
}

func (f *fakeMembers) AppendKeyRow(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	placeholder := domain.NewPlaceholderMember("")
	placeholder.RegisterKey = key
	f.members = append(f.members, placeholder)
	return nil
}

func testAssets() []domain.Asset {
	return []domain.Asset{
		{ID: 1, NameEN: "Catan", NameZH: "卡坦島", Category: "策略", Position: domain.PositionA, RecommendCount: 5},
		{ID: 2, NameEN: "Uno", NameZH: "烏諾", Category: "派對", Position: domain.PositionB, RecommendCount: 9},
		{ID: 3, NameEN: "Splendor", NameZH: "璀璨寶石", Category: "策略", Position: domain.PositionC, RecommendCount: 2},
		{ID: 4, NameEN: "Codenames", NameZH: "機密代號", Category: "派對", Position: domain.PositionA, RecommendCount: 7},
	}
}

func testMembers() []domain.Member {
	return []domain.Member{
		{UUID: "U-member", Name: "王小明", Nickname: "小明", Department: "資訊工程系", Grade: "三", RegisterKey: "key-1", Role: domain.RoleMember},
		{UUID: "U-manager", Name: "李大華", Nickname: "阿華", Department: "設計系", Grade: "四", RegisterKey: "key-2", Role: domain.RoleManager},
		{UUID: "", RegisterKey: "key-free", Department: domain.Unspecified, Grade: domain.Unspecified, Role: domain.RoleMember},
	}
}

func newTestService(t *testing.T) (*ConversationService, *fakeAssets, *fakeMembers) {
	t.Helper()
	assets := &fakeAssets{assets: testAssets()}
	members := &fakeMembers{members: testMembers()}
	service := NewConversationService(
		NewSessionRegistry(),
		assets,
		members,
		NewFeatureSwitch(),
		NewIntakeService(IntakeConfig{}, zap.NewNop()),
		zap.NewNop(),
	)
	return service, assets, members
}

// texts flattens the reply list to the plain-text payloads, skipping
// buttons and flex messages.
func texts(messages []domain.Message) []string {
	var out []string
	for _, message := range messages {
		if text, ok := message.(domain.Text); ok {
			out = append(out, text.Text)
		}
	}
	return out
}

func stateOf(s *ConversationService, uuid string) domain.State {
	return s.registry.Resolve(uuid).State()
}

func TestResetWorksFromAnyState(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	service.Handle(ctx, "U-member", "找桌遊")
	require.Equal(t, domain.StateSearch, stateOf(service, "U-member"))

	replies := service.Handle(ctx, "U-member", "重置")
	assert.Equal(t, []string{"🔄重置成功"}, texts(replies))
	assert.Equal(t, domain.StateNormal, stateOf(service, "U-member"))
}

func TestDebugStateCommand(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	replies := service.Handle(ctx, "U-member", "狀態")
	assert.Equal(t, []string{"normal"}, texts(replies))

	service.Handle(ctx, "U-member", "找桌遊")
	replies = service.Handle(ctx, "U-member", "狀態")
	assert.Equal(t, []string{"awaiting_search"}, texts(replies))
}

func TestHoldRejectsConcurrentMessage(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	// First load the member snapshot so the wait reply has a name.
	service.Handle(ctx, "U-member", "你好")

	session := service.registry.Resolve("U-member")
	prev := session.Acquire()
	require.Equal(t, domain.StateNormal, prev)

	replies := service.Handle(ctx, "U-member", "找桌遊")
	require.Len(t, replies, 1)
	assert.Contains(t, texts(replies)[0], "我知道你很急 但你先別急")
	assert.Contains(t, texts(replies)[0], "小明")

	// Still held; release restores service.
	assert.Equal(t, domain.StateHold, session.State())
	session.Release(prev)
}

func TestDefaultReplyAndDialog(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("unmatched text nudges toward help", func(t *testing.T) {
		replies := texts(service.Handle(ctx, "U-member", "嗚嗚嗚"))
		require.Len(t, replies, 2)
		assert.Contains(t, replies[0], "你今天想幹嘛呢")
		assert.Contains(t, replies[1], "幫助")
	})

	t.Run("canned dialog answers", func(t *testing.T) {
		replies := texts(service.Handle(ctx, "U-member", "你是誰"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "小傲驕")
	})
}

func TestSearchFlow(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	uuid := "U-member"

	t.Run("keyword opens field picker", func(t *testing.T) {
		replies := service.Handle(ctx, uuid, "找桌遊")
		require.Len(t, replies, 1)
		buttons, ok := replies[0].(domain.Buttons)
		require.True(t, ok)
		assert.Len(t, buttons.Options, 4)
		assert.Equal(t, domain.StateSearch, stateOf(service, uuid))
	})

	t.Run("bad field is rejected, state kept", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "顏色"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "無法查詢")
		assert.Equal(t, domain.StateSearch, stateOf(service, uuid))
	})

	t.Run("field select prompts for keyword", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "種類"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "種類")
		assert.Contains(t, replies[0], "關鍵字")
	})

	t.Run("keyword returns a result page", func(t *testing.T) {
		replies := service.Handle(ctx, uuid, "策略")
		require.Len(t, replies, 1)
		page, ok := replies[0].(domain.SearchPage)
		require.True(t, ok)
		assert.Equal(t, "種類", page.Field)
		assert.Equal(t, "策略", page.Value)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.False(t, page.HasPrev)
		assert.False(t, page.HasNext)
		assert.Contains(t, page.Body, "卡坦島")
		assert.Contains(t, page.Body, "璀璨寶石")
		assert.Equal(t, domain.StateSearch, stateOf(service, uuid))
	})

	t.Run("no results resets to normal", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "不存在的種類"))
		require.Len(t, replies, 2)
		assert.Contains(t, replies[0], "找不到包含")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))
	})
}

func TestSearchPaging(t *testing.T) {
	service, assets, _ := newTestService(t)
	// Seven party games gives three pages at three per page.
	assets.assets = nil
	for i := 1; i <= 7; i++ {
		assets.assets = append(assets.assets, domain.Asset{
			ID: i, NameZH: fmt.Sprintf("桌遊%d", i), Category: "派對",
		})
	}
	ctx := context.Background()
	uuid := "U-member"

	service.Handle(ctx, uuid, "找桌遊")
	service.Handle(ctx, uuid, "種類")
	replies := service.Handle(ctx, uuid, "派對")
	page := replies[0].(domain.SearchPage)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)

	replies = service.Handle(ctx, uuid, "下一頁")
	page = replies[0].(domain.SearchPage)
	assert.Equal(t, 1, page.Page)
	assert.True(t, page.HasPrev)
	assert.True(t, page.HasNext)

	replies = service.Handle(ctx, uuid, "下一頁")
	page = replies[0].(domain.SearchPage)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasNext)

	// Past the end clamps to the last page.
	replies = service.Handle(ctx, uuid, "下一頁")
	page = replies[0].(domain.SearchPage)
	assert.Equal(t, 2, page.Page)

	replies = service.Handle(ctx, uuid, "上一頁")
	page = replies[0].(domain.SearchPage)
	assert.Equal(t, 1, page.Page)
}

func TestBorrowFlow(t *testing.T) {
	ctx := context.Background()
	uuid := "U-member"

	t.Run("happy path marks the row borrowed", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)

		replies := texts(service.Handle(ctx, uuid, "借桌遊"))
		assert.Contains(t, replies[len(replies)-1], "告訴我桌遊編號")
		require.Equal(t, domain.StateBorrowID, stateOf(service, uuid))

		replies = texts(service.Handle(ctx, uuid, "1"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "你借了 1 卡坦島")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))

		stored, _ := assets.FindByID(ctx, 1)
		assert.True(t, stored.Borrowed)
		assert.Equal(t, "王小明", stored.Borrower)
	})

	t.Run("unknown id keeps asking", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.flag.Set(true)
		service.Handle(ctx, uuid, "借桌遊")

		replies := texts(service.Handle(ctx, uuid, "99"))
		assert.Contains(t, replies[0], "找不到編號為 99")
		assert.Equal(t, domain.StateBorrowID, stateOf(service, uuid))
	})

	t.Run("already borrowed bails out", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)
		assets.assets[0].Borrow("別人")
		service.Handle(ctx, uuid, "借桌遊")

		replies := texts(service.Handle(ctx, uuid, "1"))
		assert.Contains(t, replies[0], "被人搶先一步借走了")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))
	})

	t.Run("current loans are listed on entry", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)
		assets.assets[2].Borrow("王小明")

		replies := texts(service.Handle(ctx, uuid, "借桌遊"))
		require.Len(t, replies, 3)
		assert.Contains(t, replies[0], "你已經借了")
		assert.Contains(t, replies[1], "璀璨寶石")
	})
}

func TestReturnFlow(t *testing.T) {
	ctx := context.Background()
	uuid := "U-member"

	t.Run("happy path clears the borrow", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)
		assets.assets[0].Borrow("王小明")

		service.Handle(ctx, uuid, "還桌遊")
		require.Equal(t, domain.StateReturnID, stateOf(service, uuid))

		replies := texts(service.Handle(ctx, uuid, "1"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "有記得還:1 卡坦島")
		assert.Contains(t, replies[0], "A 櫃")

		stored, _ := assets.FindByID(ctx, 1)
		assert.False(t, stored.Borrowed)
		assert.Empty(t, stored.Borrower)
	})

	t.Run("not your loan", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)
		assets.assets[0].Borrow("別人")
		service.Handle(ctx, uuid, "還桌遊")

		replies := texts(service.Handle(ctx, uuid, "1"))
		assert.Contains(t, replies[0], "你才沒借這個好嗎")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))
	})

	t.Run("unknown id keeps asking", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.flag.Set(true)
		service.Handle(ctx, uuid, "還桌遊")

		service.Handle(ctx, uuid, "99")
		assert.Equal(t, domain.StateReturnID, stateOf(service, uuid))
	})

	t.Run("missing shelf asks for a position", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.flag.Set(true)
		assets.assets[0].Position = ""
		assets.assets[0].Borrow("王小明")
		service.Handle(ctx, uuid, "還桌遊")

		replies := service.Handle(ctx, uuid, "1")
		require.Len(t, replies, 2)
		assert.Contains(t, texts(replies)[0], "怠忽職守")
		buttons, ok := replies[1].(domain.Buttons)
		require.True(t, ok)
		assert.Len(t, buttons.Options, 4)
		require.Equal(t, domain.StatePosition, stateOf(service, uuid))

		// Made-up shelves are rejected.
		replies = service.Handle(ctx, uuid, "Z")
		assert.Contains(t, texts(replies)[0], "不收自訂義櫃子")
		require.Equal(t, domain.StatePosition, stateOf(service, uuid))

		replies = service.Handle(ctx, uuid, "C")
		assert.Contains(t, texts(replies)[0], "C 櫃")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))

		stored, _ := assets.FindByID(ctx, 1)
		assert.False(t, stored.Borrowed)
		assert.Equal(t, domain.PositionC, stored.Position)
	})
}

func TestSuggestFlow(t *testing.T) {
	ctx := context.Background()
	uuid := "U-member"

	t.Run("exact owned title", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.Handle(ctx, uuid, "建議桌遊")
		require.Equal(t, domain.StateSuggest, stateOf(service, uuid))

		replies := texts(service.Handle(ctx, uuid, "卡坦島"))
		require.Len(t, replies, 2)
		assert.Contains(t, replies[0], "編號: 1")
		assert.Contains(t, replies[1], "早就有了")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))
	})

	t.Run("english titles match case-insensitively", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.Handle(ctx, uuid, "建議桌遊")

		replies := texts(service.Handle(ctx, uuid, "CATAN"))
		assert.Contains(t, replies[len(replies)-1], "早就有了")
	})

	t.Run("similar but not identical", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.Handle(ctx, uuid, "建議桌遊")

		replies := texts(service.Handle(ctx, uuid, "卡坦"))
		require.GreaterOrEqual(t, len(replies), 3)
		assert.Contains(t, replies[0], "社辦也許有但我不確定")
		assert.Contains(t, replies[1], "相似的桌遊")
		assert.Contains(t, replies[2], "卡坦島")
	})

	t.Run("nothing similar", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.Handle(ctx, uuid, "建議桌遊")

		replies := texts(service.Handle(ctx, uuid, "狼人殺"))
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0], "我會轉達給我同事的")
	})
}

func TestRecommendIDFlow(t *testing.T) {
	ctx := context.Background()
	uuid := "U-member"

	t.Run("bumps the counter", func(t *testing.T) {
		service, assets, _ := newTestService(t)
		service.Handle(ctx, uuid, "我覺得好好玩")
		require.Equal(t, domain.StateRecommendID, stateOf(service, uuid))

		replies := texts(service.Handle(ctx, uuid, "3"))
		assert.Contains(t, replies[0], "算你有品味")
		assert.Equal(t, domain.StateNormal, stateOf(service, uuid))

		stored, _ := assets.FindByID(ctx, 3)
		assert.Equal(t, 3, stored.RecommendCount)
	})

	t.Run("unknown id keeps asking", func(t *testing.T) {
		service, _, _ := newTestService(t)
		service.Handle(ctx, uuid, "我覺得好好玩")

		replies := texts(service.Handle(ctx, uuid, "99"))
		assert.Contains(t, replies[0], "再騙我要生氣囉")
		assert.Equal(t, domain.StateRecommendID, stateOf(service, uuid))
	})
}

func TestStoreFailureDoesNotWedgeSession(t *testing.T) {
	service, assets, _ := newTestService(t)
	service.flag.Set(true)
	ctx := context.Background()
	uuid := "U-member"

	service.Handle(ctx, uuid, "借桌遊")
	assets.err = domain.ErrStoreUnavailable

	replies := texts(service.Handle(ctx, uuid, "1"))
	assert.Contains(t, replies[0], "借用失敗")
	// The next message must reach a handler, not the hold reply.
	assert.NotEqual(t, domain.StateHold, stateOf(service, uuid))
}

func TestSessionAcquireRelease(t *testing.T) {
	session := domain.NewSession(domain.NewPlaceholderMember("U1"))

	prev := session.Acquire()
	assert.Equal(t, domain.StateNormal, prev)
	assert.Equal(t, domain.StateHold, session.State())

	// Re-acquiring while held reports the hold.
	assert.Equal(t, domain.StateHold, session.Acquire())

	session.Release(domain.StateSearch)
	assert.Equal(t, domain.StateSearch, session.State())
}

func TestRefreshMemberPicksUpSheetEdits(t *testing.T) {
	service, _, members := newTestService(t)
	ctx := context.Background()

	service.Handle(ctx, "U-member", "你好")
	assert.Equal(t, "小明", service.registry.Resolve("U-member").DisplayName())

	// A manager edits the nickname directly in the sheet.
	members.members[0].Nickname = "明明"
	service.Handle(ctx, "U-member", "你好")
	assert.Equal(t, "明明", service.registry.Resolve("U-member").DisplayName())
}

func TestSignInRecordsDate(t *testing.T) {
	service, _, members := newTestService(t)
	service.flag.Set(true)
	fixed := time.Date(2026, 8, 31, 19, 30, 0, 0, time.Local)
	service.now = func() time.Time { return fixed }
	ctx := context.Background()

	replies := texts(service.Handle(ctx, "U-member", "簽到"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "簽到成功")

	stored, _ := members.FindByUUID(ctx, "U-member")
	assert.Equal(t, 1, stored.SignInCount)
	assert.True(t, stored.SignedInOn(fixed))

	// Same day again is refused without another write.
	replies = texts(service.Handle(ctx, "U-member", "簽到"))
	assert.Contains(t, replies[0], "已經簽到過囉")
	stored, _ = members.FindByUUID(ctx, "U-member")
	assert.Equal(t, 1, stored.SignInCount)

	// Next day counts again.
	service.now = func() time.Time { return fixed.AddDate(0, 0, 1) }
	replies = texts(service.Handle(ctx, "U-member", "簽到"))
	assert.Contains(t, replies[0], "簽到成功")
	stored, _ = members.FindByUUID(ctx, "U-member")
	assert.Equal(t, 2, stored.SignInCount)
}
