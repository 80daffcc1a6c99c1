package repositories

import (
	"context"
	"fmt"

	"bgclub-bot/internal/adapters/persistence/sheets"
	"bgclub-bot/internal/core/domain"
)

// memberRepository implements MemberRepository on top of the values API.
type memberRepository struct {
	api           ValuesAPI
	spreadsheetID string
	sheetName     string // e.g. "113社員清單"
}

// NewMemberRepository creates a member repository bound to one sheet tab.
func NewMemberRepository(api ValuesAPI, spreadsheetID, sheetName string) MemberRepository {
	return &memberRepository{api: api, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func (r *memberRepository) fetchRows(ctx context.Context) ([][]string, error) {
	rows, err := r.api.GetRange(ctx, r.spreadsheetID, fmt.Sprintf("%s!A:K", r.sheetName))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (r *memberRepository) FetchAll(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, sheets.DecodeMember(row))
	}
	return members, nil
}

// findRow locates a member row by predicate and returns its 1-based sheet
// row number.
func (r *memberRepository) findRow(ctx context.Context, match func(domain.Member) bool) (*domain.Member, int, error) {
	rows, err := r.fetchRows(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i, row := range rows {
		member := sheets.DecodeMember(row)
		if match(member) {
			return &member, i + 2, nil
		}
	}
	return nil, 0, nil
}

func (r *memberRepository) FindByUUID(ctx context.Context, uuid string) (*domain.Member, error) {
	member, _, err := r.findRow(ctx, func(m domain.Member) bool { return m.UUID == uuid })
	return member, err
}

func (r *memberRepository) FindByRegisterKey(ctx context.Context, key string) (*domain.Member, error) {
	member, _, err := r.findRow(ctx, func(m domain.Member) bool { return m.RegisterKey == key })
	return member, err
}

func (r *memberRepository) update(ctx context.Context, sheetRow int, member domain.Member) error {
	a1 := fmt.Sprintf("%s!A%d:K%d", r.sheetName, sheetRow, sheetRow)
	return r.api.UpdateRange(ctx, r.spreadsheetID, a1, [][]string{sheets.EncodeMember(member)})
}

func (r *memberRepository) UpdateByUUID(ctx context.Context, member domain.Member) error {
	_, sheetRow, err := r.findRow(ctx, func(m domain.Member) bool { return m.UUID == member.UUID })
	if err != nil {
		return err
	}
	if sheetRow == 0 {
		return fmt.Errorf("%w: member %s", domain.ErrRecordNotFound, member.UUID)
	}
	return r.update(ctx, sheetRow, member)
}

func (r *memberRepository) UpdateByRegisterKey(ctx context.Context, key string, member domain.Member) error {
	_, sheetRow, err := r.findRow(ctx, func(m domain.Member) bool { return m.RegisterKey == key })
	if err != nil {
		return err
	}
	if sheetRow == 0 {
		return fmt.Errorf("%w: register key %s", domain.ErrRecordNotFound, key)
	}
	return r.update(ctx, sheetRow, member)
}

func (r *memberRepository) AppendKeyRow(ctx context.Context, key string) error {
	placeholder := domain.Member{
		RegisterKey: key,
		Department:  domain.Unspecified,
		Grade:       domain.Unspecified,
		Role:        domain.RoleMember,
	}
	a1 := fmt.Sprintf("%s!A:K", r.sheetName)
	return r.api.AppendRange(ctx, r.spreadsheetID, a1, [][]string{sheets.EncodeMember(placeholder)})
}
