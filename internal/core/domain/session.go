package domain

import "sync"

// State identifies which input a conversation expects next. The set is
// closed: every handler must return one of these.
type State int

const (
	StateNormal State = iota
	StateHold
	StateSearch
	StateBorrowID
	StateReturnID
	StatePosition
	StateSuggest
	StateRecommendID
	StateRegisterKey
	StateRegisterName
	StateRegisterNickname
	StateRegisterStudentID
	StateRegisterDepartment
	StateRegisterGrade
	StateRegisterPhone
)

var stateNames = map[State]string{
	StateNormal:             "normal",
	StateHold:               "hold",
	StateSearch:             "awaiting_search",
	StateBorrowID:           "awaiting_borrowid",
	StateReturnID:           "awaiting_returnid",
	StatePosition:           "awaiting_position",
	StateSuggest:            "awaiting_suggest",
	StateRecommendID:        "awaiting_recommendID",
	StateRegisterKey:        "awaiting_registerkey",
	StateRegisterName:       "awaiting_name",
	StateRegisterNickname:   "awaiting_nickname",
	StateRegisterStudentID:  "awaiting_student_id",
	StateRegisterDepartment: "awaiting_department",
	StateRegisterGrade:      "awaiting_grade",
	StateRegisterPhone:      "awaiting_phonenumber",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// SearchParams is the in-progress search filter.
type SearchParams struct {
	Field string // asset sheet column name
	Value string
}

// RegistrationDraft collects profile fields one message at a time during
// the registration flow.
type RegistrationDraft struct {
	RegisterKey string
	Name        string
	Nickname    string
	StudentID   string
	Department  string
	Grade       string
	PhoneNumber string
}

// Variables is the per-session scratch space used by multi-step flows.
type Variables struct {
	Search        *SearchParams
	Page          int
	PendingReturn *Asset // stashed while waiting for a shelf during a return
	Draft         RegistrationDraft
}

// Session is the in-memory conversational context of one chat identifier.
// It lives for the process lifetime and is never persisted.
type Session struct {
	mu     sync.Mutex
	state  State
	Member Member
	Vars   Variables
}

// NewSession builds a session in the normal state around a member snapshot.
func NewSession(member Member) *Session {
	return &Session{state: StateNormal, Member: member}
}

// SetMember replaces the member snapshot. Writers must go through here so
// the hold reply can read the display name concurrently.
func (s *Session) SetMember(member Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Member = member
}

// DisplayName returns the snapshot's display name under the session lock.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Member.DisplayName()
}

// State returns the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire atomically swaps the state to hold and returns the state it
// replaced. A caller that gets back StateHold must not touch the session:
// another handler for the same chat identifier is still in flight. The swap
// happens before any store call so a duplicate delivery can never trigger a
// second mutation.
func (s *Session) Acquire() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = StateHold
	return prev
}

// Release moves the session out of hold into the handler's chosen next
// state.
func (s *Session) Release(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}
