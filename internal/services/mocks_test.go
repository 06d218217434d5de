package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"eventplanner/internal/domain"
)

type mockEventRepository struct {
	events map[string]*domain.Event
	err    error

	updatedStatus domain.EventStatus
}

func (m *mockEventRepository) Create(ctx context.Context, e *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	e.ID = "ev-" + strconv.Itoa(len(m.events)+1)
	if m.events == nil {
		m.events = map[string]*domain.Event{}
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Event
	for _, ev := range m.events {
		if ev.OwnerID == ownerID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockEventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ev.Status = status
	m.updatedStatus = status
	return ev, nil
}

func (m *mockEventRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

type mockUserRepository struct {
	users map[string]*domain.User
	err   error
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	if m.err != nil {
		return m.err
	}
	u.ID = "u-" + strconv.Itoa(len(m.users)+1)
	if m.users == nil {
		m.users = map[string]*domain.User{}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// memRegistrationStore is an in-memory RegistrationTxManager plus the attendee
// and invitation state the transactional callbacks operate on. A single mutex
// stands in for the per-event row lock.
type memRegistrationStore struct {
	mu          sync.Mutex
	attendees   map[string]*domain.Attendee          // key: eventID|email
	invitations map[string]*domain.AttendeeInvitation // key: invitation ID
	nextID      int
}

func newMemRegistrationStore() *memRegistrationStore {
	return &memRegistrationStore{
		attendees:   map[string]*domain.Attendee{},
		invitations: map[string]*domain.AttendeeInvitation{},
	}
}

func (st *memRegistrationStore) key(eventID, email string) string {
	return eventID + "|" + strings.ToLower(email)
}

func (st *memRegistrationStore) InEventTx(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.RegistrationTx) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return fn(ctx, &memRegistrationTx{store: st, eventID: eventID})
}

func (st *memRegistrationStore) countByStatus(eventID string, status domain.AttendeeStatus) int {
	n := 0
	for _, a := range st.attendees {
		if a.EventID == eventID && a.Status == status {
			n++
		}
	}
	return n
}

type memRegistrationTx struct {
	store   *memRegistrationStore
	eventID string
}

func (t *memRegistrationTx) ConfirmedCount(ctx context.Context) (int, error) {
	return t.store.countByStatus(t.eventID, domain.AttendeeStatusConfirmed), nil
}

func (t *memRegistrationTx) AttendeeExists(ctx context.Context, email string) (bool, error) {
	_, ok := t.store.attendees[t.store.key(t.eventID, email)]
	return ok, nil
}

func (t *memRegistrationTx) CreateAttendee(ctx context.Context, a *domain.Attendee) error {
	key := t.store.key(t.eventID, a.Email)
	if _, ok := t.store.attendees[key]; ok {
		return domain.NewValidationError(domain.CodeDuplicateRegistration, "already registered")
	}
	t.store.nextID++
	a.ID = "a-" + strconv.Itoa(t.store.nextID)
	t.store.attendees[key] = a
	return nil
}

func (t *memRegistrationTx) UpdateInvitation(ctx context.Context, inv *domain.AttendeeInvitation) error {
	stored, ok := t.store.invitations[inv.ID]
	if !ok || stored.Status != domain.InvitationStatusPending {
		return domain.ErrNotFound
	}
	*stored = *inv
	return nil
}

type mockAttendeeRepository struct {
	store *memRegistrationStore
	err   error
}

func (m *mockAttendeeRepository) GetByID(ctx context.Context, eventID, attendeeID string) (*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.store.attendees {
		if a.EventID == eventID && a.ID == attendeeID {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockAttendeeRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.store.attendees[m.store.key(eventID, email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockAttendeeRepository) ListByEventID(ctx context.Context, eventID string, search string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []*domain.Attendee
	for _, a := range m.store.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAttendeeRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.AttendeeStatus]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[domain.AttendeeStatus]int{}
	for _, a := range m.store.attendees {
		if a.EventID == eventID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *mockAttendeeRepository) UpdateStatus(ctx context.Context, a *domain.Attendee) error {
	if m.err != nil {
		return m.err
	}
	stored, ok := m.store.attendees[m.store.key(a.EventID, a.Email)]
	if !ok {
		return domain.ErrNotFound
	}
	*stored = *a
	return nil
}

func (m *mockAttendeeRepository) DeleteByEventAndEmail(ctx context.Context, eventID, email string) error {
	if m.err != nil {
		return m.err
	}
	key := m.store.key(eventID, email)
	if _, ok := m.store.attendees[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store.attendees, key)
	return nil
}

type mockInvitationRepository struct {
	store *memRegistrationStore
	err   error
}

func (m *mockInvitationRepository) Create(ctx context.Context, inv *domain.AttendeeInvitation) error {
	if m.err != nil {
		return m.err
	}
	m.store.nextID++
	inv.ID = "inv-" + strconv.Itoa(m.store.nextID)
	stored := *inv
	m.store.invitations[inv.ID] = &stored
	return nil
}

func (m *mockInvitationRepository) GetByToken(ctx context.Context, token string) (*domain.AttendeeInvitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, inv := range m.store.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockInvitationRepository) GetByID(ctx context.Context, eventID, invitationID string) (*domain.AttendeeInvitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	inv, ok := m.store.invitations[invitationID]
	if !ok || inv.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvitationRepository) ListByEventID(ctx context.Context, eventID string, search string, params domain.PaginationParams) ([]*domain.AttendeeInvitation, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []*domain.AttendeeInvitation
	for _, inv := range m.store.invitations {
		if inv.EventID == eventID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockInvitationRepository) HasPending(ctx context.Context, eventID, email string) (bool, error) {
	for _, inv := range m.store.invitations {
		if inv.EventID == eventID && strings.EqualFold(inv.Email, email) && inv.Status == domain.InvitationStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvitationRepository) DeletePending(ctx context.Context, eventID, email string) error {
	if m.err != nil {
		return m.err
	}
	for id, inv := range m.store.invitations {
		if inv.EventID == eventID && strings.EqualFold(inv.Email, email) && inv.Status == domain.InvitationStatusPending {
			delete(m.store.invitations, id)
		}
	}
	return nil
}

func (m *mockInvitationRepository) Update(ctx context.Context, inv *domain.AttendeeInvitation) error {
	if m.err != nil {
		return m.err
	}
	stored, ok := m.store.invitations[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	*stored = *inv
	return nil
}

func (m *mockInvitationRepository) CountByStatus(ctx context.Context, eventID string) (map[domain.InvitationStatus]int, error) {
	counts := map[domain.InvitationStatus]int{}
	for _, inv := range m.store.invitations {
		if inv.EventID == eventID {
			counts[inv.Status]++
		}
	}
	return counts, nil
}

// recordingNotifier captures every Notify call for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	Type      domain.NotificationType
	Recipient string
	EventID   string
	Data      domain.NotificationContext
}

func (n *recordingNotifier) Notify(ctx context.Context, t domain.NotificationType, recipientEmail string, eventID string, data domain.NotificationContext) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{Type: t, Recipient: recipientEmail, EventID: eventID, Data: data})
}

func (n *recordingNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *recordingNotifier) last() (notifyCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return notifyCall{}, false
	}
	return n.calls[len(n.calls)-1], true
}
