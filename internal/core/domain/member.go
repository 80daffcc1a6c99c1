package domain

import (
	"strings"
	"time"
)

// Role represents a member's permission level in the club.
type Role string

const (
	RoleMember  Role = "社員"
	RoleManager Role = "幹部"
	RoleElder   Role = "先人" // retired managers keep their privileges
)

// IsManagerRole reports whether the role carries manager privileges.
func (r Role) IsManagerRole() bool {
	return r == RoleManager || r == RoleElder
}

// Unspecified is the sheet marker for an enum field with no value.
const Unspecified = "無"

// Departments lists every department a member may register under.
var Departments = []string{
	"資訊工程系",
	"電機工程系",
	"資訊管理系",
	"機械工程系",
	"材料科學與工程系",
	"化學工程系",
	"工程學士班",
	"電子工程系",
	"工業管理系",
	"企業管理系",
	"管理學士班",
	"設計系",
	"應用外語系",
	"不分系學士班",
	"電資學士班",
	"其他",
}

// Grades lists every grade a member may register under.
var Grades = []string{"一", "二", "三", "四", "碩一", "碩二"}

// IsDepartment reports whether value is a known department.
func IsDepartment(value string) bool {
	for _, d := range Departments {
		if value == d {
			return true
		}
	}
	return false
}

// IsGrade reports whether value is a known grade.
func IsGrade(value string) bool {
	for _, g := range Grades {
		if value == g {
			return true
		}
	}
	return false
}

// Member represents one club member row in the backing sheet. A placeholder
// with empty profile fields is synthesized whenever an unknown chat
// identifier shows up; it only becomes a real member after registration
// writes it back.
type Member struct {
	UUID           string
	Name           string
	Nickname       string
	StudentID      string
	Department     string
	Grade          string
	PhoneNumber    string
	RegisterKey    string
	Role           Role
	SignInCount    int
	LastSignInDate time.Time // date only, zero when never signed in
}

// NewPlaceholderMember builds the empty member synthesized for an unknown
// chat identifier.
func NewPlaceholderMember(uuid string) Member {
	return Member{
		UUID:       uuid,
		Department: Unspecified,
		Grade:      Unspecified,
		Role:       RoleMember,
	}
}

// IsRegistered reports whether the member finished the registration flow.
func (m *Member) IsRegistered() bool {
	return strings.TrimSpace(m.Name) != ""
}

// IsManager reports whether the member may use manager-only keywords.
func (m *Member) IsManager() bool {
	return m.Role.IsManagerRole()
}

// DisplayName prefers the nickname for chat replies.
func (m *Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Name
}

// SignedInOn reports whether the member already signed in on the given day.
func (m *Member) SignedInOn(day time.Time) bool {
	if m.LastSignInDate.IsZero() {
		return false
	}
	y1, m1, d1 := m.LastSignInDate.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SignIn records one attendance on the given day.
func (m *Member) SignIn(day time.Time) {
	m.SignInCount++
	m.LastSignInDate = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}
