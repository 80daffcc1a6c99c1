package repositories

import (
	"context"
	"testing"

	"bgclub-bot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeValuesAPI serves canned rows and records writes.
type fakeValuesAPI struct {
	rows [][]string // includes the header row

	updatedRange  string
	updatedValues [][]string
	appendedRange string
	appendedRows  [][]string
	err           error
}

func (f *fakeValuesAPI) GetRange(_ context.Context, _, _ string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeValuesAPI) UpdateRange(_ context.Context, _, a1Range string, values [][]string) error {
	if f.err != nil {
		return f.err
	}
	f.updatedRange = a1Range
	f.updatedValues = values
	return nil
}

func (f *fakeValuesAPI) AppendRange(_ context.Context, _, a1Range string, values [][]string) error {
	if f.err != nil {
		return f.err
	}
	f.appendedRange = a1Range
	f.appendedRows = append(f.appendedRows, values...)
	return nil
}

func assetHeader() []string {
	return []string{"編號", "英文名稱", "中文名稱", "種類", "借用", "借用人", "位置", "清點", "狀態(外膜)", "狀態(外觀)", "狀態(缺件)", "狀態(牌套)", "清點備註", "被推薦次數"}
}

func newAssetFake() *fakeValuesAPI {
	return &fakeValuesAPI{rows: [][]string{
		assetHeader(),
		{"1", "Catan", "卡坦島", "策略", "", "", "A", "", "", "", "", "", "", "5"},
		{"2", "Uno", "烏諾", "派對", "V", "王小明", "B", "", "", "", "", "", "", "2"},
		{"10", "Catan Junior", "卡坦島兒童版", "策略", "", "", "A", "", "", "", "", "", "", "0"},
	}}
}

func TestAssetRepositoryFetchAll(t *testing.T) {
	api := newAssetFake()
	repo := NewAssetRepository(api, "sheet-id", "113社產清單")

	assets, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, 1, assets[0].ID)
	assert.Equal(t, "王小明", assets[1].Borrower)
}

func TestAssetRepositoryFetchAllEmptySheet(t *testing.T) {
	api := &fakeValuesAPI{rows: [][]string{assetHeader()}}
	repo := NewAssetRepository(api, "sheet-id", "113社產清單")

	assets, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestAssetRepositoryFindByID(t *testing.T) {
	repo := NewAssetRepository(newAssetFake(), "sheet-id", "113社產清單")

	asset, err := repo.FindByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "烏諾", asset.NameZH)

	// Absence is nil, nil.
	asset, err = repo.FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, asset)
}

func TestAssetRepositoryQueryByField(t *testing.T) {
	repo := NewAssetRepository(newAssetFake(), "sheet-id", "113社產清單")
	ctx := context.Background()

	t.Run("contains match, sorted by id", func(t *testing.T) {
		assets, err := repo.QueryByField(ctx, "英文名稱", "catan", false)
		require.NoError(t, err)
		require.Len(t, assets, 2)
		assert.Equal(t, 1, assets[0].ID)
		assert.Equal(t, 10, assets[1].ID)
	})

	t.Run("strict match", func(t *testing.T) {
		assets, err := repo.QueryByField(ctx, "編號", "1", true)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, 1, assets[0].ID)
	})

	t.Run("non-strict id match is substring", func(t *testing.T) {
		assets, err := repo.QueryByField(ctx, "編號", "1", false)
		require.NoError(t, err)
		require.Len(t, assets, 2) // ids 1 and 10
	})

	t.Run("empty cells are skipped", func(t *testing.T) {
		assets, err := repo.QueryByField(ctx, "借用人", "", false)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, 2, assets[0].ID)
	})

	t.Run("unknown field errors", func(t *testing.T) {
		_, err := repo.QueryByField(ctx, "沒這欄", "x", false)
		assert.Error(t, err)
	})
}

func TestAssetRepositoryUpdate(t *testing.T) {
	t.Run("writes the located row", func(t *testing.T) {
		api := newAssetFake()
		repo := NewAssetRepository(api, "sheet-id", "113社產清單")

		asset, err := repo.FindByID(context.Background(), 10)
		require.NoError(t, err)
		asset.Borrow("李大華")

		require.NoError(t, repo.Update(context.Background(), *asset))
		// id 10 sits on the third data row, sheet row 4.
		assert.Equal(t, "113社產清單!A4:N4", api.updatedRange)
		require.Len(t, api.updatedValues, 1)
		assert.Equal(t, "V", api.updatedValues[0][4])
		assert.Equal(t, "李大華", api.updatedValues[0][5])
	})

	t.Run("vanished row is ErrRecordNotFound", func(t *testing.T) {
		repo := NewAssetRepository(newAssetFake(), "sheet-id", "113社產清單")
		err := repo.Update(context.Background(), domain.Asset{ID: 404})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}
