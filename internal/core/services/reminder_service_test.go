package services

import (
	"context"
	"testing"

	"bgclub-bot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePusher struct {
	pushes map[string][]domain.Message
}

func (f *fakePusher) Push(_ context.Context, uuid string, messages []domain.Message) error {
	if f.pushes == nil {
		f.pushes = make(map[string][]domain.Message)
	}
	f.pushes[uuid] = append(f.pushes[uuid], messages...)
	return nil
}

func TestReminderRun(t *testing.T) {
	assets := &fakeAssets{assets: testAssets()}
	members := &fakeMembers{members: testMembers()}
	assets.assets[0].Borrow("王小明")
	assets.assets[2].Borrow("王小明")
	assets.assets[1].Borrow("李大華")

	pusher := &fakePusher{}
	reminder := NewReminderService(assets, members, pusher, zap.NewNop())

	require.NoError(t, reminder.Run(context.Background()))
	require.Len(t, pusher.pushes, 2)

	memberPush := texts(pusher.pushes["U-member"])
	require.Len(t, memberPush, 1)
	assert.Contains(t, memberPush[0], "1 卡坦島")
	assert.Contains(t, memberPush[0], "3 璀璨寶石")
	assert.Contains(t, memberPush[0], "記得還哈")

	managerPush := texts(pusher.pushes["U-manager"])
	require.Len(t, managerPush, 1)
	assert.Contains(t, managerPush[0], "2 烏諾")
}

func TestReminderSkipsUnknownBorrowers(t *testing.T) {
	assets := &fakeAssets{assets: testAssets()}
	members := &fakeMembers{members: testMembers()}
	assets.assets[0].Borrow("查無此人")

	pusher := &fakePusher{}
	reminder := NewReminderService(assets, members, pusher, zap.NewNop())

	require.NoError(t, reminder.Run(context.Background()))
	assert.Empty(t, pusher.pushes)
}

func TestReminderNoBorrowsNoFetch(t *testing.T) {
	assets := &fakeAssets{assets: testAssets()}
	// Member fetch failing would error the run, but with nothing borrowed
	// the run never gets that far.
	members := &fakeMembers{err: domain.ErrStoreUnavailable}

	reminder := NewReminderService(assets, members, &fakePusher{}, zap.NewNop())
	assert.NoError(t, reminder.Run(context.Background()))
}
