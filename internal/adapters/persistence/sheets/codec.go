package sheets

import (
	"strconv"
	"time"

	"bgclub-bot/internal/core/domain"
)

// Column layouts are positional contracts with the spreadsheets: assets use
// columns A..N, members A..K. Order matters; never reorder these lists.

// AssetFields names the asset sheet columns in order.
var AssetFields = []string{
	"編號",     // A
	"英文名稱",   // B
	"中文名稱",   // C
	"種類",     // D
	"借用",     // E
	"借用人",    // F
	"位置",     // G
	"清點",     // H
	"狀態(外膜)", // I
	"狀態(外觀)", // J
	"狀態(缺件)", // K
	"狀態(牌套)", // L
	"清點備註",   // M
	"被推薦次數",  // N
}

// MemberFields names the member sheet columns in order.
var MemberFields = []string{
	"UUID",   // A
	"姓名",     // B
	"暱稱",     // C
	"學號",     // D
	"科系",     // E
	"年級",     // F
	"電話",     // G
	"序號",     // H
	"權限",     // I
	"簽到次數",   // J
	"最近簽到時間", // K
}

const (
	assetColumns  = 14
	memberColumns = 11

	// checkMark is the sheet's truthy sentinel for flag columns.
	checkMark = "V"

	signInDateLayout = "20060102"
)

// AssetFieldIndex returns the column index of an asset field name, or -1
// when the name is unknown.
func AssetFieldIndex(field string) int {
	for i, f := range AssetFields {
		if f == field {
			return i
		}
	}
	return -1
}

// padRow extends a row with empty cells so trailing blank columns, which
// the API omits, read back as empty strings.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// atoiOrZero decodes numeric cells permissively: garbage reads as zero.
func atoiOrZero(cell string) int {
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0
	}
	return n
}

// DecodeAsset converts one sheet row into an Asset. Missing trailing
// columns are treated as empty; out-of-enum positions normalize to
// "not recorded".
func DecodeAsset(row []string) domain.Asset {
	row = padRow(row, assetColumns)
	asset := domain.Asset{
		ID:          atoiOrZero(row[0]),
		NameEN:      row[1],
		NameZH:      row[2],
		Category:    row[3],
		Borrowed:    row[4] == checkMark,
		Inventoried: row[7] == checkMark,
		Condition: domain.Condition{
			ShrinkWrap:   row[8],
			Appearance:   row[9],
			MissingParts: row[10],
			Sleeves:      row[11],
		},
		Remark:         row[12],
		RecommendCount: atoiOrZero(row[13]),
	}
	if asset.Borrowed {
		asset.Borrower = row[5]
	}
	if p, ok := domain.ParsePosition(row[6]); ok {
		asset.Position = p
	}
	return asset
}

// EncodeAsset is the exact inverse of DecodeAsset.
func EncodeAsset(asset domain.Asset) []string {
	row := make([]string, assetColumns)
	row[0] = strconv.Itoa(asset.ID)
	row[1] = asset.NameEN
	row[2] = asset.NameZH
	row[3] = asset.Category
	if asset.Borrowed {
		row[4] = checkMark
		row[5] = asset.Borrower
	}
	row[6] = string(asset.Position)
	if asset.Inventoried {
		row[7] = checkMark
	}
	row[8] = asset.Condition.ShrinkWrap
	row[9] = asset.Condition.Appearance
	row[10] = asset.Condition.MissingParts
	row[11] = asset.Condition.Sleeves
	row[12] = asset.Remark
	row[13] = strconv.Itoa(asset.RecommendCount)
	return row
}

// DecodeMember converts one sheet row into a Member. Unknown departments,
// grades and roles normalize to their defaults rather than failing.
func DecodeMember(row []string) domain.Member {
	row = padRow(row, memberColumns)
	member := domain.Member{
		UUID:        row[0],
		Name:        row[1],
		Nickname:    row[2],
		StudentID:   row[3],
		Department:  row[4],
		Grade:       row[5],
		PhoneNumber: row[6],
		RegisterKey: row[7],
		Role:        domain.Role(row[8]),
		SignInCount: atoiOrZero(row[9]),
	}
	if !domain.IsDepartment(member.Department) {
		member.Department = domain.Unspecified
	}
	if !domain.IsGrade(member.Grade) {
		member.Grade = domain.Unspecified
	}
	switch member.Role {
	case domain.RoleMember, domain.RoleManager, domain.RoleElder:
	default:
		member.Role = domain.RoleMember
	}
	if t, err := time.ParseInLocation(signInDateLayout, row[10], time.Local); err == nil {
		member.LastSignInDate = t
	}
	return member
}

// EncodeMember is the exact inverse of DecodeMember.
func EncodeMember(member domain.Member) []string {
	row := make([]string, memberColumns)
	row[0] = member.UUID
	row[1] = member.Name
	row[2] = member.Nickname
	row[3] = member.StudentID
	row[4] = member.Department
	row[5] = member.Grade
	row[6] = member.PhoneNumber
	row[7] = member.RegisterKey
	row[8] = string(member.Role)
	row[9] = strconv.Itoa(member.SignInCount)
	if !member.LastSignInDate.IsZero() {
		row[10] = member.LastSignInDate.Format(signInDateLayout)
	}
	return row
}
