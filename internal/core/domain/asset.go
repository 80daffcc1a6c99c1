package domain

import (
	"fmt"
	"strings"
)

// Position is a storage shelf label in the club room.
type Position string

const (
	PositionA Position = "A"
	PositionB Position = "B"
	PositionC Position = "C"
	PositionD Position = "D"
)

// Positions lists every valid shelf, in display order.
var Positions = []Position{PositionA, PositionB, PositionC, PositionD}

// ParsePosition validates a shelf label. An empty or unknown label is
// reported as not-a-position, never as an error.
func ParsePosition(value string) (Position, bool) {
	p := Position(strings.TrimSpace(value))
	for _, known := range Positions {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Condition holds the four inventory-check notes for an asset.
type Condition struct {
	ShrinkWrap   string
	Appearance   string
	MissingParts string
	Sleeves      string
}

// Asset represents one board game owned by the club.
// Rows pre-exist in the backing sheet; the bot only reads and updates them.
type Asset struct {
	ID             int
	NameEN         string
	NameZH         string
	Category       string
	Borrowed       bool
	Borrower       string   // required iff Borrowed
	Position       Position // empty means no shelf recorded yet
	Inventoried    bool
	Condition      Condition
	Remark         string
	RecommendCount int
}

// Borrow marks the asset as lent out to the given member name.
func (a *Asset) Borrow(borrower string) {
	a.Borrowed = true
	a.Borrower = borrower
}

// Return clears the borrow state. Position is left untouched.
func (a *Asset) Return() {
	a.Borrowed = false
	a.Borrower = ""
}

// Recommend bumps the endorsement counter.
func (a *Asset) Recommend() {
	a.RecommendCount++
}

func orNone(value string) string {
	if value == "" {
		return "無紀錄"
	}
	return value
}

// DisplayText renders the asset as a chat text block. The borrower line is
// only included for managers.
func (a *Asset) DisplayText(showBorrower bool) string {
	borrowed := "未借出"
	if a.Borrowed {
		borrowed = "已借出"
	}
	lines := []string{
		fmt.Sprintf("編號: %d", a.ID),
		fmt.Sprintf("英文名稱: %s", a.NameEN),
		fmt.Sprintf("中文名稱: %s", a.NameZH),
		fmt.Sprintf("種類: %s", a.Category),
		fmt.Sprintf("借用: %s", borrowed),
	}
	if showBorrower && a.Borrowed {
		lines = append(lines, fmt.Sprintf("借用人: %s", a.Borrower))
	}
	remark := a.Remark
	if remark == "" {
		remark = "無"
	}
	lines = append(lines,
		fmt.Sprintf("位置: %s", orNone(string(a.Position))),
		fmt.Sprintf("狀態(外膜): %s", orNone(a.Condition.ShrinkWrap)),
		fmt.Sprintf("狀態(外觀): %s", orNone(a.Condition.Appearance)),
		fmt.Sprintf("狀態(缺件): %s", orNone(a.Condition.MissingParts)),
		fmt.Sprintf("狀態(牌套): %s", orNone(a.Condition.Sleeves)),
		fmt.Sprintf("備註: %s", remark),
		fmt.Sprintf("被推薦次數: %d", a.RecommendCount),
	)
	return strings.Join(lines, "\n")
}
