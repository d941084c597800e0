package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
)

// fakeListingRepo is an in-memory ListingRepository. By default FindByQuery
// filters the stored listings; tests that need per-call scripting (stale
// response ordering, injected failures) use the scripted queue and gates.
type fakeListingRepo struct {
	mu       sync.Mutex
	store    map[string]*domain.Listing
	nextID   int
	now      time.Time
	queryErr error

	queryCalls int

	// scripted, when non-empty, overrides query results call by call.
	scripted []scriptedQuery
}

type scriptedQuery struct {
	entered chan struct{} // closed when the call reaches the repo
	release chan struct{} // call blocks until this closes
	result  []*domain.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		store: make(map[string]*domain.Listing),
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.now = r.now.Add(time.Second)
	l.ID = fmt.Sprintf("lst-%03d", r.nextID)
	l.CreatedAt = r.now
	l.UpdatedAt = r.now
	if l.Status == "" {
		l.Status = domain.StatusAvailable
	}
	cp := *l
	r.store[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	r.now = r.now.Add(time.Second)
	l.UpdatedAt = r.now
	cp := *l
	r.store[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	return nil
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.store[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Listing{}
	for _, id := range ids {
		if l, ok := r.store[id]; ok {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) FindByQuery(ctx context.Context, q domain.Query) ([]*domain.Listing, error) {
	r.mu.Lock()
	r.queryCalls++
	if len(r.scripted) > 0 {
		s := r.scripted[0]
		r.scripted = r.scripted[1:]
		r.mu.Unlock()
		if s.entered != nil {
			close(s.entered)
		}
		if s.release != nil {
			<-s.release
		}
		return s.result, nil
	}
	if r.queryErr != nil {
		err := r.queryErr
		r.mu.Unlock()
		return nil, err
	}
	defer r.mu.Unlock()

	out := []*domain.Listing{}
	for _, l := range r.store {
		if q.Admits(l, nil) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.store)), nil
}

func (r *fakeListingRepo) CountByStatus(ctx context.Context, status domain.ListingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.store {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeListingRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queryCalls
}

func (r *fakeListingRepo) setQueryErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryErr = err
}

type fakeFavoriteRepo struct {
	mu        sync.Mutex
	favorites map[string]*domain.Favorite // key user\x00listing
	nextID    int
	addErr    error

	existsGate    chan struct{} // when set, Exists blocks until closed
	existsEntered chan struct{} // closed when a gated Exists call begins
	enteredOnce   sync.Once
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favorites: make(map[string]*domain.Favorite)}
}

func favKey(userID, listingID string) string { return userID + "\x00" + listingID }

func (r *fakeFavoriteRepo) Add(ctx context.Context, f *domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	key := favKey(f.UserID, f.ListingID)
	if _, ok := r.favorites[key]; ok {
		return domain.ErrDuplicateFavorite
	}
	r.nextID++
	f.ID = fmt.Sprintf("fav-%03d", r.nextID)
	f.CreatedAt = time.Now()
	cp := *f
	r.favorites[key] = &cp
	return nil
}

func (r *fakeFavoriteRepo) Remove(ctx context.Context, userID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favKey(userID, listingID)
	if _, ok := r.favorites[key]; !ok {
		return domain.ErrFavoriteNotFound
	}
	delete(r.favorites, key)
	return nil
}

func (r *fakeFavoriteRepo) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Favorite{}
	for _, f := range r.favorites {
		if f.UserID == userID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeFavoriteRepo) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	gate := r.existsGate
	entered := r.existsEntered
	r.mu.Unlock()
	if gate != nil {
		if entered != nil {
			r.enteredOnce.Do(func() { close(entered) })
		}
		<-gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.favorites[favKey(userID, listingID)]
	return ok, nil
}

func (r *fakeFavoriteRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.favorites)
}

type fakeUnlockRepo struct {
	mu      sync.Mutex
	unlocks []*domain.Unlock
	nextID  int
}

func newFakeUnlockRepo() *fakeUnlockRepo { return &fakeUnlockRepo{} }

func (r *fakeUnlockRepo) Add(ctx context.Context, u *domain.Unlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = fmt.Sprintf("unl-%03d", r.nextID)
	u.CreatedAt = time.Now()
	cp := *u
	r.unlocks = append(r.unlocks, &cp)
	return nil
}

func (r *fakeUnlockRepo) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.unlocks {
		if u.UserID == userID && u.ListingID == listingID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCategoryRepo struct {
	categories []*domain.Category
	calls      int
}

func (r *fakeCategoryRepo) FindAll(ctx context.Context) ([]*domain.Category, error) {
	r.calls++
	return r.categories, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (s *fakeStorage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	url := "https://blobs.test/" + fileName
	s.uploads = append(s.uploads, url)
	return url, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *fakePublisher) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeUsers struct {
	emails map[string]string
}

func (u *fakeUsers) GetEmailByID(ctx context.Context, userID string) (string, error) {
	email, ok := u.emails[userID]
	if !ok {
		return "", fmt.Errorf("user %s not found", userID)
	}
	return email, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // "email|title|status"
}

func (m *fakeMailer) SendStatusChanged(toEmail, listingTitle string, status domain.ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, fmt.Sprintf("%s|%s|%s", toEmail, listingTitle, status))
	return nil
}
