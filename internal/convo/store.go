// Package convo holds the per-user conversational state: message history,
// the processing latch, mic mute, the pending-refresh signal, and the
// pagination cursor. All state is process-memory only.
package convo

import "sync"

// Role tags a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryCap bounds the history length; the oldest entries are trimmed first.
const HistoryCap = 40

// Message is one conversational turn entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is a read-only snapshot of one user's conversation.
type State struct {
	UserID         string
	History        []Message
	LastResponse   string
	Processing     bool
	MicMuted       bool
	PendingRefresh bool
	Pages          []string
	PageIndex      int
}

type userState struct {
	history        []Message
	lastResponse   string
	processing     bool
	micMuted       bool
	pendingRefresh bool
	pages          []string
	pageIndex      int
}

// Store maps user identities to conversation state. Entries are created
// lazily on first access and live for the process lifetime.
type Store struct {
	mu     sync.Mutex
	states map[string]*userState
}

func NewStore() *Store {
	return &Store{states: make(map[string]*userState)}
}

// get assumes s.mu is held.
func (s *Store) get(userID string) *userState {
	st, ok := s.states[userID]
	if !ok {
		st = &userState{}
		s.states[userID] = st
	}
	return st
}

// Snapshot returns a copy of the user's state, creating it if absent.
func (s *Store) Snapshot(userID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	return State{
		UserID:         userID,
		History:        append([]Message(nil), st.history...),
		LastResponse:   st.lastResponse,
		Processing:     st.processing,
		MicMuted:       st.micMuted,
		PendingRefresh: st.pendingRefresh,
		Pages:          append([]string(nil), st.pages...),
		PageIndex:      st.pageIndex,
	}
}

// Clear resets conversation content but leaves the mic state untouched.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.history = nil
	st.lastResponse = ""
	st.pages = nil
	st.pageIndex = 0
}

// ToggleMic flips the mute flag and returns the new value.
func (s *Store) ToggleMic(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.micMuted = !st.micMuted
	return st.micMuted
}

// TryBeginTurn acquires the per-user processing latch. It returns false when
// a turn is already in flight; the caller must then drop the input, not queue it.
func (s *Store) TryBeginTurn(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	if st.processing {
		return false
	}
	st.processing = true
	return true
}

// EndTurn releases the latch and clears the pending-refresh signal: once the
// turn has started (or finished), the poller no longer needs the bridge.
func (s *Store) EndTurn(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.processing = false
	st.pendingRefresh = false
}

// AppendUser records a user message.
func (s *Store) AppendUser(userID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.history = appendTrimmed(st.history, Message{Role: RoleUser, Content: content})
}

// AppendAssistant records an assistant reply and makes it the last response.
func (s *Store) AppendAssistant(userID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.history = appendTrimmed(st.history, Message{Role: RoleAssistant, Content: content})
	st.lastResponse = content
}

// RollbackUser removes the most recent entry if it is an unanswered user
// message. Called when a completion fails so history never ends with an
// orphaned user turn.
func (s *Store) RollbackUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	if n := len(st.history); n > 0 && st.history[n-1].Role == RoleUser {
		st.history = st.history[:n-1]
	}
}

// SetPages installs a freshly paginated response and resets the cursor.
func (s *Store) SetPages(userID string, pages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.pages = append([]string(nil), pages...)
	st.pageIndex = 0
}

// SetPageIndex moves the cursor, clamped to the valid page range.
func (s *Store) SetPageIndex(userID string, index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	st.pageIndex = clampIndex(index, len(st.pages))
	return st.pageIndex
}

// AdvanceIfCurrent advances the cursor from expected to expected+1 only when
// the cursor still equals expected and a next page exists. This is the
// optimistic guard that lets manual navigation win over a sleeping
// auto-advance without a lock held across the delay.
func (s *Store) AdvanceIfCurrent(userID string, expected int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	if st.pageIndex != expected || expected+1 >= len(st.pages) {
		return st.pageIndex, false
	}
	st.pageIndex++
	return st.pageIndex, true
}

// MarkPendingRefresh flags that a prompt was accepted but processing may not
// be observable yet. One-shot: consumed by RefreshSnapshot.
func (s *Store) MarkPendingRefresh(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).pendingRefresh = true
}

// RefreshSnapshot reports the flags the refresh policy needs. Observing
// pendingRefresh while no turn is processing consumes it: by that poll the
// turn either finished already or never started, and the signal has served
// its purpose.
func (s *Store) RefreshSnapshot(userID string) (micMuted, processing, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(userID)
	micMuted, processing, pending = st.micMuted, st.processing, st.pendingRefresh
	if pending && !processing {
		st.pendingRefresh = false
	}
	return micMuted, processing, pending
}

func appendTrimmed(history []Message, msg Message) []Message {
	history = append(history, msg)
	if len(history) > HistoryCap {
		history = append([]Message(nil), history[len(history)-HistoryCap:]...)
	}
	return history
}

func clampIndex(index, pageCount int) int {
	if index < 0 {
		return 0
	}
	max := pageCount - 1
	if max < 0 {
		max = 0
	}
	if index > max {
		return max
	}
	return index
}
