package messaging

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// MockMessageStore is an in-memory store for tests. It mirrors the MongoDB
// implementation's semantics: MarkDeleted returns the post-image and Delete
// only matches fully deleted messages. Safe for concurrent use.
type MockMessageStore struct {
	mu       sync.Mutex
	nextID   int64
	Messages map[int64]*message.Message

	SaveErr error
	FindErr error
}

// NewMockMessageStore creates an empty mock store.
func NewMockMessageStore() *MockMessageStore {
	return &MockMessageStore{
		Messages: make(map[int64]*message.Message),
	}
}

// NextID allocates the next id. Ids are never reused.
func (m *MockMessageStore) NextID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

// Save stores the message.
func (m *MockMessageStore) Save(_ context.Context, msg *message.Message) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages[msg.ID()] = msg
	return nil
}

// FindByID returns a snapshot of the message.
func (m *MockMessageStore) FindByID(_ context.Context, id int64) (*message.Message, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return snapshot(msg), nil
}

// MarkDeleted atomically flips one side's flag and returns the post-image.
func (m *MockMessageStore) MarkDeleted(
	_ context.Context,
	id int64,
	side message.Side,
) (*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	switch side {
	case message.SideSender:
		msg.MarkDeletedFor(msg.SenderID())
	case message.SideRecipient:
		msg.MarkDeletedFor(msg.RecipientID())
	case message.SideNone:
	}
	return snapshot(msg), nil
}

// Delete purges a fully deleted message.
func (m *MockMessageStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[id]
	if !ok || !msg.IsFullyDeleted() {
		return errs.ErrNotFound
	}
	delete(m.Messages, id)
	return nil
}

// FindForUser returns the page of the user's visible messages plus the total.
func (m *MockMessageStore) FindForUser(
	_ context.Context,
	userID uuid.UUID,
	scope Scope,
	p Pagination,
) ([]*message.Message, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []*message.Message
	for _, msg := range m.Messages {
		if !msg.VisibleTo(userID) {
			continue
		}
		switch scope {
		case ScopeInbox:
			if msg.SideOf(userID) != message.SideRecipient {
				continue
			}
		case ScopeOutbox:
			if msg.SideOf(userID) != message.SideSender {
				continue
			}
		case ScopeAll, "":
		}
		all = append(all, snapshot(msg))
	}

	// sentAt with id as tiebreaker, matching the MongoDB sort keys
	sort.Slice(all, func(i, j int) bool {
		if all[i].SentAt().Equal(all[j].SentAt()) {
			if p.Ascending {
				return all[i].ID() < all[j].ID()
			}
			return all[i].ID() > all[j].ID()
		}
		if p.Ascending {
			return all[i].SentAt().Before(all[j].SentAt())
		}
		return all[i].SentAt().After(all[j].SentAt())
	})

	total := len(all)
	start := p.Offset()
	if start >= total {
		return []*message.Message{}, total, nil
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// FindBetween returns the visible two-party conversation, oldest first.
func (m *MockMessageStore) FindBetween(
	_ context.Context,
	userID, otherID uuid.UUID,
) ([]*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*message.Message, 0)
	for _, msg := range m.Messages {
		if !msg.VisibleTo(userID) {
			continue
		}
		if msg.SideOf(otherID) == message.SideNone {
			continue
		}
		result = append(result, snapshot(msg))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SentAt().Equal(result[j].SentAt()) {
			return result[i].ID() < result[j].ID()
		}
		return result[i].SentAt().Before(result[j].SentAt())
	})
	return result, nil
}

func snapshot(msg *message.Message) *message.Message {
	return message.Restore(
		msg.ID(),
		msg.SenderID(), msg.RecipientID(),
		msg.SenderUsername(), msg.RecipientUsername(),
		msg.Content(), msg.SentAt(),
		msg.SenderDeleted(), msg.RecipientDeleted(),
	)
}

// MockUnitOfWork runs the function directly. CommitErr, when set, simulates
// a failed commit after the function ran.
type MockUnitOfWork struct {
	CommitErr error
	Calls     int
}

// NewMockUnitOfWork creates a pass-through unit of work.
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{}
}

// Execute runs fn and reports the configured commit outcome.
func (u *MockUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	u.Calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return u.CommitErr
}

// MockUserDirectory resolves usernames from a fixed map, case-insensitively.
type MockUserDirectory struct {
	Users map[string]user.User
}

// NewMockUserDirectory creates an empty directory.
func NewMockUserDirectory() *MockUserDirectory {
	return &MockUserDirectory{Users: make(map[string]user.User)}
}

// AddUser registers a user under a fresh identity and returns the snapshot.
func (d *MockUserDirectory) AddUser(username string) user.User {
	u, err := user.New(uuid.NewUUID(), username)
	if err != nil {
		panic(err)
	}
	d.Users[u.Username()] = u
	return u
}

// Resolve looks up a username.
func (d *MockUserDirectory) Resolve(_ context.Context, username string) (user.User, error) {
	u, ok := d.Users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return user.User{}, errs.ErrNotFound
	}
	return u, nil
}
