package services

import (
	"context"
	"testing"

	"bgclub-bot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationFullFlow(t *testing.T) {
	service, _, members := newTestService(t)
	ctx := context.Background()
	uuid := "U-newcomer"

	replies := texts(service.Handle(ctx, uuid, "註冊"))
	assert.Contains(t, replies[0], "請輸入序號")
	require.Equal(t, domain.StateRegisterKey, stateOf(service, uuid))

	t.Run("bad key is rejected", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "no-such-key"))
		assert.Equal(t, []string{"❌查無此序號"}, replies)
		assert.Equal(t, domain.StateRegisterKey, stateOf(service, uuid))
	})

	t.Run("claimed key is rejected", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "key-1"))
		assert.Equal(t, []string{"⚠️此序號已註冊"}, replies)
		assert.Equal(t, domain.StateRegisterKey, stateOf(service, uuid))
	})

	replies = texts(service.Handle(ctx, uuid, "key-free"))
	assert.Contains(t, replies[0], "✅序號合法")
	require.Equal(t, domain.StateRegisterName, stateOf(service, uuid))

	replies = texts(service.Handle(ctx, uuid, "陳大文"))
	assert.Contains(t, replies[0], "請輸入暱稱")

	replies = texts(service.Handle(ctx, uuid, "阿文"))
	assert.Contains(t, replies[0], "請輸入學號")

	msgs := service.Handle(ctx, uuid, "B11115001")
	require.Equal(t, domain.StateRegisterDepartment, stateOf(service, uuid))
	// 16 departments in chunks of 4.
	require.Len(t, msgs, 4)
	total := 0
	for _, msg := range msgs {
		buttons, ok := msg.(domain.Buttons)
		require.True(t, ok)
		assert.LessOrEqual(t, len(buttons.Options), 4)
		total += len(buttons.Options)
	}
	assert.Equal(t, len(domain.Departments), total)

	t.Run("made-up department is rejected", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "火星學系"))
		assert.Contains(t, replies[0], "不收自訂義科系")
		assert.Equal(t, domain.StateRegisterDepartment, stateOf(service, uuid))
	})

	msgs = service.Handle(ctx, uuid, "設計系")
	require.Equal(t, domain.StateRegisterGrade, stateOf(service, uuid))
	require.Len(t, msgs, 2)
	first := msgs[0].(domain.Buttons)
	second := msgs[1].(domain.Buttons)
	assert.Len(t, first.Options, 4)
	assert.Len(t, second.Options, 2)

	t.Run("made-up grade is rejected", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "十八"))
		assert.Contains(t, replies[0], "你連你自己幾年級都不知道嗎")
		assert.Equal(t, domain.StateRegisterGrade, stateOf(service, uuid))
	})

	replies = texts(service.Handle(ctx, uuid, "碩一"))
	assert.Contains(t, replies[0], "請輸入電話")

	t.Run("non-numeric phone is rejected", func(t *testing.T) {
		replies := texts(service.Handle(ctx, uuid, "零九一二"))
		assert.Contains(t, replies[0], "應該沒有哪個國家電話不是數字吧")
		assert.Equal(t, domain.StateRegisterPhone, stateOf(service, uuid))
	})

	replies = texts(service.Handle(ctx, uuid, "0987654321"))
	require.Len(t, replies, 3)
	assert.Equal(t, "🎉註冊成功！", replies[0])
	assert.Contains(t, replies[1], "姓名：陳大文")
	assert.Contains(t, replies[1], "身份：社員")
	assert.Contains(t, replies[2], "社群")
	assert.Equal(t, domain.StateNormal, stateOf(service, uuid))

	// The key row is now claimed by this chat identifier.
	stored, err := members.FindByRegisterKey(ctx, "key-free")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uuid, stored.UUID)
	assert.Equal(t, "陳大文", stored.Name)
	assert.Equal(t, domain.RoleMember, stored.Role)

	// And the session now passes member gates without a restart.
	service.flag.Set(true)
	service.Handle(ctx, uuid, "借桌遊")
	assert.Equal(t, domain.StateBorrowID, stateOf(service, uuid))
}

func TestRegistrationKeyRowVanishesMidFlow(t *testing.T) {
	service, _, members := newTestService(t)
	ctx := context.Background()
	uuid := "U-newcomer"

	service.Handle(ctx, uuid, "註冊")
	service.Handle(ctx, uuid, "key-free")
	service.Handle(ctx, uuid, "陳大文")
	service.Handle(ctx, uuid, "阿文")
	service.Handle(ctx, uuid, "B11115001")
	service.Handle(ctx, uuid, "設計系")
	service.Handle(ctx, uuid, "碩一")

	// The key row is deleted from the sheet before the final step.
	members.members = members.members[:2]

	replies := texts(service.Handle(ctx, uuid, "0987654321"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "請重新註冊一次")
	assert.Contains(t, replies[0], "key-free")
	assert.Equal(t, domain.StateNormal, stateOf(service, uuid))
}

func TestRegistrationDraftIsolatedPerSession(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	service.Handle(ctx, "U-a", "註冊")
	service.Handle(ctx, "U-a", "key-free")
	service.Handle(ctx, "U-a", "甲")

	service.Handle(ctx, "U-b", "註冊")
	require.Equal(t, domain.StateRegisterKey, stateOf(service, "U-b"))
	assert.Equal(t, domain.StateRegisterNickname, stateOf(service, "U-a"))

	draftA := service.registry.Resolve("U-a").Vars.Draft
	assert.Equal(t, "甲", draftA.Name)
	draftB := service.registry.Resolve("U-b").Vars.Draft
	assert.Empty(t, draftB.RegisterKey)
}
