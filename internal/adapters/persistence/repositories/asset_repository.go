package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bgclub-bot/internal/adapters/persistence/sheets"
	"bgclub-bot/internal/core/domain"
)

// assetRepository implements AssetRepository on top of the values API.
type assetRepository struct {
	api           ValuesAPI
	spreadsheetID string
	sheetName     string // e.g. "113社產清單"
}

// NewAssetRepository creates an asset repository bound to one sheet tab.
func NewAssetRepository(api ValuesAPI, spreadsheetID, sheetName string) AssetRepository {
	return &assetRepository{api: api, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// fetchRows returns all data rows with the header stripped.
func (r *assetRepository) fetchRows(ctx context.Context) ([][]string, error) {
	rows, err := r.api.GetRange(ctx, r.spreadsheetID, fmt.Sprintf("%s!A:N", r.sheetName))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (r *assetRepository) FetchAll(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	assets := make([]domain.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, sheets.DecodeAsset(row))
	}
	return assets, nil
}

// findRow locates an asset and its 1-based sheet row number. Data rows
// start at sheet row 2, after the header.
func (r *assetRepository) findRow(ctx context.Context, id int) (*domain.Asset, int, error) {
	rows, err := r.fetchRows(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i, row := range rows {
		asset := sheets.DecodeAsset(row)
		if asset.ID == id {
			return &asset, i + 2, nil
		}
	}
	return nil, 0, nil
}

func (r *assetRepository) FindByID(ctx context.Context, id int) (*domain.Asset, error) {
	asset, _, err := r.findRow(ctx, id)
	return asset, err
}

func (r *assetRepository) QueryByField(ctx context.Context, field, value string, strict bool) ([]domain.Asset, error) {
	index := sheets.AssetFieldIndex(field)
	if index < 0 {
		return nil, fmt.Errorf("unknown asset field %q", field)
	}

	rows, err := r.fetchRows(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(value))
	var matches []domain.Asset
	for _, row := range rows {
		if index >= len(row) || row[index] == "" {
			continue
		}
		cell := strings.ToLower(strings.TrimSpace(row[index]))
		if strict && cell != needle {
			continue
		}
		if !strict && !strings.Contains(cell, needle) {
			continue
		}
		matches = append(matches, sheets.DecodeAsset(row))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (r *assetRepository) Update(ctx context.Context, asset domain.Asset) error {
	_, sheetRow, err := r.findRow(ctx, asset.ID)
	if err != nil {
		return err
	}
	if sheetRow == 0 {
		return fmt.Errorf("%w: asset %d", domain.ErrRecordNotFound, asset.ID)
	}
	a1 := fmt.Sprintf("%s!A%d:N%d", r.sheetName, sheetRow, sheetRow)
	return r.api.UpdateRange(ctx, r.spreadsheetID, a1, [][]string{sheets.EncodeAsset(asset)})
}
