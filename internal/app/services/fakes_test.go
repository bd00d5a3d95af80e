package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

// In-memory stores mirroring the repository semantics, so the services
// can be exercised without a database.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	badges map[int64]map[string]models.Badge
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[int64]*models.User),
		badges: make(map[int64]map[string]models.Badge),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.Rating = 5.0
	user.LastSeen = time.Now()
	user.LastActive = time.Now()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copy := *u
	for _, b := range f.badges[id] {
		copy.Badges = append(copy.Badges, b)
	}
	sort.Slice(copy.Badges, func(i, j int) bool { return copy.Badges[i].EarnedAt.Before(copy.Badges[j].EarnedAt) })
	return &copy, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) IncrementDoubtsAsked(ctx context.Context, userID int64) error {
	return f.update(userID, func(u *models.User) { u.DoubtsAsked++; u.LastActive = time.Now() })
}

func (f *fakeUserStore) IncrementDoubtsSolved(ctx context.Context, userID int64) error {
	return f.update(userID, func(u *models.User) { u.DoubtsSolved++; u.LastActive = time.Now() })
}

func (f *fakeUserStore) AddViews(ctx context.Context, userID int64, views int) error {
	return f.update(userID, func(u *models.User) { u.TotalViews += views })
}

func (f *fakeUserStore) ApplyReview(ctx context.Context, userID int64, rating int) (*models.User, error) {
	f.mu.Lock()
	u, ok := f.users[userID]
	if !ok {
		f.mu.Unlock()
		return nil, apperrors.ErrUserNotFound
	}
	u.Rating = (u.Rating*float64(u.TotalReviews) + float64(rating)) / float64(u.TotalReviews+1)
	u.TotalReviews++
	f.mu.Unlock()
	return f.FindByID(ctx, userID)
}

func (f *fakeUserStore) AwardBadge(ctx context.Context, userID int64, name, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return false, apperrors.ErrUserNotFound
	}
	if f.badges[userID] == nil {
		f.badges[userID] = make(map[string]models.Badge)
	}
	if _, ok := f.badges[userID][name]; ok {
		return false, nil
	}
	f.badges[userID][name] = models.Badge{
		UserID:      userID,
		Name:        name,
		Description: description,
		EarnedAt:    time.Now(),
	}
	return true, nil
}

func (f *fakeUserStore) SetOnlineStatus(ctx context.Context, userID int64, isOnline bool) error {
	return f.update(userID, func(u *models.User) {
		u.IsOnline = isOnline
		u.LastSeen = time.Now()
		u.LastActive = time.Now()
	})
}

func (f *fakeUserStore) OnlineUsers(ctx context.Context, limit int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var online []*models.User
	for _, u := range f.users {
		if u.IsOnline {
			copy := *u
			online = append(online, &copy)
		}
	}
	sort.Slice(online, func(i, j int) bool { return online[i].LastSeen.After(online[j].LastSeen) })
	if len(online) > limit {
		online = online[:limit]
	}
	return online, nil
}

func (f *fakeUserStore) update(userID int64, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

type fakeDoubtStore struct {
	mu         sync.Mutex
	nextID     int64
	nextRespID int64
	doubts     map[int64]*models.Doubt
	votes      map[int64]map[int64]models.VoteType
	users      *fakeUserStore
}

func newFakeDoubtStore(users *fakeUserStore) *fakeDoubtStore {
	return &fakeDoubtStore{
		doubts: make(map[int64]*models.Doubt),
		votes:  make(map[int64]map[int64]models.VoteType),
		users:  users,
	}
}

func (f *fakeDoubtStore) Create(ctx context.Context, doubt *models.Doubt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	doubt.ID = f.nextID
	doubt.Status = models.DoubtStatusOpen
	doubt.CreatedAt = time.Now()
	doubt.UpdatedAt = doubt.CreatedAt
	stored := *doubt
	stored.Responses = nil
	f.doubts[doubt.ID] = &stored
	f.votes[doubt.ID] = make(map[int64]models.VoteType)
	return nil
}

func (f *fakeDoubtStore) GetByID(ctx context.Context, id int64) (*models.Doubt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(id)
}

// snapshot returns a copy of the doubt with votes folded into the
// up/down sets and author summaries attached. Caller must hold the lock.
func (f *fakeDoubtStore) snapshot(id int64) (*models.Doubt, error) {
	d, ok := f.doubts[id]
	if !ok {
		return nil, apperrors.ErrDoubtNotFound
	}
	copy := *d
	copy.Responses = append([]models.Response(nil), d.Responses...)
	copy.Upvotes = []int64{}
	copy.Downvotes = []int64{}
	for userID, vote := range f.votes[id] {
		if vote == models.VoteUp {
			copy.Upvotes = append(copy.Upvotes, userID)
		} else {
			copy.Downvotes = append(copy.Downvotes, userID)
		}
	}
	if f.users != nil {
		if author, ok := f.users.users[d.AuthorID]; ok {
			a := *author
			copy.Author = &a
		}
		for i := range copy.Responses {
			if u, ok := f.users.users[copy.Responses[i].UserID]; ok {
				ru := *u
				copy.Responses[i].User = &ru
			}
		}
	}
	copy.ResponseCount = len(copy.Responses)
	return &copy, nil
}

func (f *fakeDoubtStore) List(ctx context.Context, filter *dto.ListDoubtsRequest, offset uint64, limit int) ([]*models.Doubt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*models.Doubt
	for id, d := range f.doubts {
		if filter.Subject != "" && d.Subject != filter.Subject {
			continue
		}
		if filter.Status != "" && string(d.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(d.Priority) != filter.Priority {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(d.Title), needle) &&
				!strings.Contains(strings.ToLower(d.Description), needle) &&
				!strings.Contains(strings.ToLower(d.Subject), needle) {
				continue
			}
		}
		snap, _ := f.snapshot(id)
		matched = append(matched, snap)
	}

	asc := filter.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case "views":
			less = matched[i].Views < matched[j].Views
		default:
			less = matched[i].ID < matched[j].ID
		}
		if asc {
			return less
		}
		return !less
	})

	total := int64(len(matched))
	if int(offset) >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeDoubtStore) MostViewed(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return f.top(limit, func(a, b *models.Doubt) bool { return a.Views > b.Views })
}

func (f *fakeDoubtStore) MostAnswered(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return f.top(limit, func(a, b *models.Doubt) bool { return len(a.Responses) > len(b.Responses) })
}

func (f *fakeDoubtStore) Recent(ctx context.Context, limit int) ([]*models.Doubt, error) {
	return f.top(limit, func(a, b *models.Doubt) bool { return a.ID > b.ID })
}

func (f *fakeDoubtStore) top(limit int, better func(a, b *models.Doubt) bool) ([]*models.Doubt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.Doubt
	for id := range f.doubts {
		snap, _ := f.snapshot(id)
		all = append(all, snap)
	}
	sort.Slice(all, func(i, j int) bool { return better(all[i], all[j]) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeDoubtStore) AddResponse(ctx context.Context, doubtID, userID int64, content string) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doubts[doubtID]
	if !ok {
		return nil, apperrors.ErrDoubtNotFound
	}
	f.nextRespID++
	resp := models.Response{
		ID:        f.nextRespID,
		DoubtID:   doubtID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	d.Responses = append(d.Responses, resp)
	d.UpdatedAt = time.Now()
	return &resp, nil
}

func (f *fakeDoubtStore) AcceptResponse(ctx context.Context, doubtID, responseID int64, acceptedAt time.Time) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doubts[doubtID]
	if !ok {
		return nil, apperrors.ErrDoubtNotFound
	}
	for i := range d.Responses {
		if d.Responses[i].ID == responseID {
			// A previously accepted response keeps its flag; solved_by
			// tracks the latest acceptance only
			d.Responses[i].IsAccepted = true
			at := acceptedAt
			d.Responses[i].AcceptedAt = &at
			d.Status = models.DoubtStatusResolved
			userID := d.Responses[i].UserID
			d.SolvedByID = &userID
			d.SolvedAt = &at
			resp := d.Responses[i]
			return &resp, nil
		}
	}
	return nil, apperrors.ErrResponseNotFound
}

func (f *fakeDoubtStore) Vote(ctx context.Context, doubtID, userID int64, voteType models.VoteType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doubts[doubtID]; !ok {
		return apperrors.ErrDoubtNotFound
	}
	f.votes[doubtID][userID] = voteType
	return nil
}

func (f *fakeDoubtStore) IncrementViews(ctx context.Context, doubtID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doubts[doubtID]
	if !ok {
		return apperrors.ErrDoubtNotFound
	}
	d.Views++
	return nil
}

func (f *fakeDoubtStore) Delete(ctx context.Context, doubtID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doubts[doubtID]; !ok {
		return apperrors.ErrDoubtNotFound
	}
	delete(f.doubts, doubtID)
	delete(f.votes, doubtID)
	return nil
}

func (f *fakeDoubtStore) Subjects(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var subjects []string
	for _, d := range f.doubts {
		if !seen[d.Subject] {
			seen[d.Subject] = true
			subjects = append(subjects, d.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	nextID   int64
	messages []*models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (f *fakeMessageStore) Create(ctx context.Context, message *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	message.ID = f.nextID
	message.IsRead = false
	message.CreatedAt = time.Now()
	stored := *message
	stored.Sender = nil
	stored.Receiver = nil
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			copy := *m
			return &copy, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeMessageStore) Conversation(ctx context.Context, doubtID, userA, userB int64, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.Message
	for _, m := range f.messages {
		if m.DoubtID != doubtID {
			continue
		}
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			copy := *m
			matched = append(matched, &copy)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (f *fakeMessageStore) MarkConversationRead(ctx context.Context, doubtID, readerID, otherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, m := range f.messages {
		if m.DoubtID == doubtID && m.SenderID == otherID && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			at := now
			m.ReadAt = &at
		}
	}
	return nil
}

func (f *fakeMessageStore) MarkRead(ctx context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == messageID {
			m.IsRead = true
			if m.ReadAt == nil {
				now := time.Now()
				m.ReadAt = &now
			}
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

func (f *fakeMessageStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, m := range f.messages {
		if m.ReceiverID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

type broadcastRecord struct {
	roomID  string
	payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{roomID: roomID, payload: payload})
}

func (f *fakeBroadcaster) records() []broadcastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]broadcastRecord(nil), f.events...)
}
