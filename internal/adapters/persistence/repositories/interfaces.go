package repositories

import (
	"context"

	"bgclub-bot/internal/core/domain"
)

// ValuesAPI is the slice of the spreadsheet service the repositories need.
// The backing store has no transactions and no row locks; every write here
// is a blind overwrite of a whole row located at call time.
type ValuesAPI interface {
	GetRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
	UpdateRange(ctx context.Context, spreadsheetID, a1Range string, values [][]string) error
	AppendRange(ctx context.Context, spreadsheetID, a1Range string, values [][]string) error
}

// AssetRepository defines row-oriented access to the asset sheet.
// Find methods return (nil, nil) when nothing matches; absence is a domain
// outcome, not a fault.
type AssetRepository interface {
	FetchAll(ctx context.Context) ([]domain.Asset, error)
	FindByID(ctx context.Context, id int) (*domain.Asset, error)
	QueryByField(ctx context.Context, field, value string, strict bool) ([]domain.Asset, error)
	// Update re-locates the asset's row by id and overwrites all of its
	// columns. Returns domain.ErrRecordNotFound when the row vanished
	// between the caller's read and now.
	Update(ctx context.Context, asset domain.Asset) error
}

// MemberRepository defines row-oriented access to the member sheet.
type MemberRepository interface {
	FetchAll(ctx context.Context) ([]domain.Member, error)
	FindByUUID(ctx context.Context, uuid string) (*domain.Member, error)
	FindByRegisterKey(ctx context.Context, key string) (*domain.Member, error)
	UpdateByUUID(ctx context.Context, member domain.Member) error
	// UpdateByRegisterKey locates the row carrying a pre-issued key and
	// overwrites it; registration uses this to claim the key.
	UpdateByRegisterKey(ctx context.Context, key string, member domain.Member) error
	// AppendKeyRow appends a placeholder row holding a freshly issued
	// register key and nothing else.
	AppendKeyRow(ctx context.Context, key string) error
}
