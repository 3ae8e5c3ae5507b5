package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"medride/internal/domain"
	"medride/internal/redis"
	"medride/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE (UNIT OF WORK + REPOSITORIES)
// ──────────────────────────────────────────────

// MockStore is an in-memory database. WithinTx runs one transaction at a
// time and restores a snapshot when fn fails, which stands in for row
// locks and rollback.
type MockStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	bookings  map[int64]*domain.Booking
	drivers   map[int64]*domain.Driver
	users     map[int64]*domain.User
	locations map[int64]*domain.Location
	logs      []*domain.LogEntry
	reports   map[int64]*domain.Report
	nextID    int64

	// Counters for verification
	CommitCount   int32
	RollbackCount int32

	// Error injection
	AppendLogError error
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		bookings:  make(map[int64]*domain.Booking),
		drivers:   make(map[int64]*domain.Driver),
		users:     make(map[int64]*domain.User),
		locations: make(map[int64]*domain.Location),
		reports:   make(map[int64]*domain.Report),
	}
}

func (m *MockStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}
	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

func (m *MockStore) Bookings() repository.BookingRepository   { return mockBookings{m} }
func (m *MockStore) Drivers() repository.DriverRepository     { return mockDrivers{m} }
func (m *MockStore) Locations() repository.LocationRepository { return mockLocations{m} }
func (m *MockStore) Logs() repository.LogRepository           { return mockLogs{m} }
func (m *MockStore) Reports() repository.ReportRepository     { return mockReports{m} }
func (m *MockStore) Users() repository.UserRepository         { return mockUsers{m} }

type storeSnapshot struct {
	bookings  map[int64]*domain.Booking
	drivers   map[int64]*domain.Driver
	locations map[int64]*domain.Location
	logs      []*domain.LogEntry
	reports   map[int64]*domain.Report
}

func (m *MockStore) snapshot() storeSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := storeSnapshot{
		bookings:  make(map[int64]*domain.Booking, len(m.bookings)),
		drivers:   make(map[int64]*domain.Driver, len(m.drivers)),
		locations: make(map[int64]*domain.Location, len(m.locations)),
		logs:      make([]*domain.LogEntry, 0, len(m.logs)),
		reports:   make(map[int64]*domain.Report, len(m.reports)),
	}
	for id, b := range m.bookings {
		snap.bookings[id] = copyBooking(b)
	}
	for id, d := range m.drivers {
		c := *d
		snap.drivers[id] = &c
	}
	for id, l := range m.locations {
		c := *l
		snap.locations[id] = &c
	}
	for _, e := range m.logs {
		c := *e
		snap.logs = append(snap.logs, &c)
	}
	for id, r := range m.reports {
		snap.reports[id] = copyReport(r)
	}
	return snap
}

func (m *MockStore) restore(snap storeSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = snap.bookings
	m.drivers = snap.drivers
	m.locations = snap.locations
	m.logs = snap.logs
	m.reports = snap.reports
}

// AddBooking stores a copy of b, assigning an ID when b has none.
func (m *MockStore) AddBooking(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == 0 {
		m.nextID++
		b.ID = m.nextID
	}
	m.bookings[b.ID] = copyBooking(b)
}

// AddDriver stores a copy of d.
func (m *MockStore) AddDriver(d *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *d
	m.drivers[d.ID] = &c
}

// AddUser stores a copy of u.
func (m *MockStore) AddUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *u
	m.users[u.ID] = &c
}

// AddLocation stores a copy of l.
func (m *MockStore) AddLocation(l *domain.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *l
	m.locations[l.BookingID] = &c
}

// Booking returns the committed state of a booking, or nil.
func (m *MockStore) Booking(id int64) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	return copyBooking(b)
}

// Driver returns the committed state of a driver, or nil.
func (m *MockStore) Driver(id int64) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil
	}
	c := *d
	return &c
}

// LogEntries returns the log rows of a booking in insertion order.
func (m *MockStore) LogEntries(bookingID int64) []*domain.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LogEntry
	for _, e := range m.logs {
		if e.BookingID == bookingID {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

// ReportCount returns the number of stored reports.
func (m *MockStore) ReportCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func copyBooking(b *domain.Booking) *domain.Booking {
	c := *b
	if b.DriverID != nil {
		id := *b.DriverID
		c.DriverID = &id
	}
	if b.ScheduledEnd != nil {
		end := *b.ScheduledEnd
		c.ScheduledEnd = &end
	}
	return &c
}

func copyReport(r *domain.Report) *domain.Report {
	c := *r
	if r.RepliedBy != nil {
		by := *r.RepliedBy
		c.RepliedBy = &by
	}
	if r.RepliedAt != nil {
		at := *r.RepliedAt
		c.RepliedAt = &at
	}
	return &c
}

type mockBookings struct{ m *MockStore }

func (r mockBookings) Create(ctx context.Context, b *domain.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextID++
	b.ID = r.m.nextID
	r.m.bookings[b.ID] = copyBooking(b)
	return nil
}

func (r mockBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyBooking(b), nil
}

func (r mockBookings) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r mockBookings) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*domain.Booking, 0)
	for _, b := range r.m.bookings {
		if filter.UserID > 0 && b.UserID != filter.UserID {
			continue
		}
		if filter.DriverID > 0 && b.AssignedDriver() != filter.DriverID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r mockBookings) ListPool(ctx context.Context, notBefore time.Time) ([]*domain.Booking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*domain.Booking, 0)
	for _, b := range r.m.bookings {
		if b.IsPoolJob() && !b.ScheduledStart.Before(notBefore) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out, nil
}

func (r mockBookings) CountActiveByDriver(ctx context.Context, driverID int64) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, b := range r.m.bookings {
		if b.AssignedDriver() == driverID && b.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r mockBookings) GetActiveByDriver(ctx context.Context, driverID int64) (*domain.Booking, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, b := range r.m.bookings {
		if b.AssignedDriver() == driverID && b.Status.IsActive() {
			return copyBooking(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r mockBookings) update(id int64, fn func(b *domain.Booking) error) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	return fn(b)
}

func (r mockBookings) AssignDriver(ctx context.Context, id, driverID int64) error {
	return r.update(id, func(b *domain.Booking) error {
		if !b.IsPoolJob() {
			return repository.ErrStaleState
		}
		b.DriverID = &driverID
		b.Status = domain.StatusAccepted
		return nil
	})
}

func (r mockBookings) ReleaseDriver(ctx context.Context, id, driverID int64, from domain.BookingStatus) error {
	return r.update(id, func(b *domain.Booking) error {
		if b.Status != from || b.AssignedDriver() != driverID {
			return repository.ErrStaleState
		}
		b.DriverID = nil
		b.Status = domain.StatusPending
		return nil
	})
}

func (r mockBookings) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	return r.update(id, func(b *domain.Booking) error {
		if b.Status != from {
			return repository.ErrStaleState
		}
		b.Status = to
		return nil
	})
}

func (r mockBookings) Cancel(ctx context.Context, id int64, from domain.BookingStatus, reason string) error {
	return r.update(id, func(b *domain.Booking) error {
		if b.Status != from {
			return repository.ErrStaleState
		}
		b.Status = domain.StatusCancelled
		b.CancelReason = reason
		return nil
	})
}

func (r mockBookings) UpdatePayment(ctx context.Context, id int64, change repository.PaymentChange) error {
	return r.update(id, func(b *domain.Booking) error {
		if b.Status != change.FromStatus || !hasPayment(change.FromPayment, b.PaymentStatus) {
			return repository.ErrStaleState
		}
		b.Status = change.ToStatus
		b.PaymentStatus = change.ToPayment
		if change.SlipURL != "" {
			b.SlipURL = change.SlipURL
		}
		return nil
	})
}

func (r mockBookings) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.bookings, id)
	return nil
}

func hasStatus(list []domain.BookingStatus, s domain.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func hasPayment(list []domain.PaymentStatus, p domain.PaymentStatus) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

type mockDrivers struct{ m *MockStore }

func (r mockDrivers) Create(ctx context.Context, d *domain.Driver) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if d.ID == 0 {
		r.m.nextID++
		d.ID = r.m.nextID
	}
	c := *d
	r.m.drivers[d.ID] = &c
	return nil
}

func (r mockDrivers) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	d, ok := r.m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r mockDrivers) GetForUpdate(ctx context.Context, id int64) (*domain.Driver, error) {
	return r.GetByID(ctx, id)
}

func (r mockDrivers) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*domain.Driver, 0, len(r.m.drivers))
	for _, d := range r.m.drivers {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r mockDrivers) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (r mockDrivers) UpdateVerification(ctx context.Context, id int64, verified domain.VerificationStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Verified = verified
	return nil
}

type mockUsers struct{ m *MockStore }

func (r mockUsers) Create(ctx context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u.ID == 0 {
		r.m.nextID++
		u.ID = r.m.nextID
	}
	c := *u
	r.m.users[u.ID] = &c
	return nil
}

func (r mockUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r mockUsers) GetAll(ctx context.Context) ([]*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockLocations struct{ m *MockStore }

func (r mockLocations) Create(ctx context.Context, l *domain.Location) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *l
	r.m.locations[l.BookingID] = &c
	return nil
}

func (r mockLocations) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Location, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	l, ok := r.m.locations[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (r mockLocations) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.locations, bookingID)
	return nil
}

type mockLogs struct{ m *MockStore }

func (r mockLogs) Append(ctx context.Context, entry *domain.LogEntry) error {
	if r.m.AppendLogError != nil {
		return r.m.AppendLogError
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextID++
	entry.ID = r.m.nextID
	c := *entry
	r.m.logs = append(r.m.logs, &c)
	return nil
}

func (r mockLogs) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.LogEntry, error) {
	return r.m.LogEntries(bookingID), nil
}

func (r mockLogs) DeleteByBooking(ctx context.Context, bookingID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.logs[:0]
	for _, e := range r.m.logs {
		if e.BookingID != bookingID {
			kept = append(kept, e)
		}
	}
	r.m.logs = kept
	return nil
}

type mockReports struct{ m *MockStore }

func (r mockReports) Create(ctx context.Context, report *domain.Report) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextID++
	report.ID = r.m.nextID
	r.m.reports[report.ID] = copyReport(report)
	return nil
}

func (r mockReports) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	report, ok := r.m.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyReport(report), nil
}

func (r mockReports) List(ctx context.Context, onlyOpen bool) ([]*domain.Report, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*domain.Report, 0, len(r.m.reports))
	for _, report := range r.m.reports {
		if onlyOpen && report.IsReplied {
			continue
		}
		out = append(out, copyReport(report))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r mockReports) Reply(ctx context.Context, id int64, reply string, adminID int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	report, ok := r.m.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if report.IsReplied {
		return repository.ErrStaleState
	}
	report.Reply = reply
	report.IsReplied = true
	report.RepliedBy = &adminID
	report.RepliedAt = &at
	return nil
}

func (r mockReports) DeleteByBooking(ctx context.Context, bookingID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, report := range r.m.reports {
		if report.BookingID == bookingID {
			delete(r.m.reports, id)
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu   sync.Mutex
	held map[int64]string
	seq  int

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[int64]string)}
}

// Hold marks the booking as locked by someone else.
func (m *MockLockStore) Hold(bookingID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[bookingID] = "held-elsewhere"
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[bookingID]; ok {
		return "", nil
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.held[bookingID] = token
	return token, nil
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[bookingID] == token {
		delete(m.held, bookingID)
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking
	pool     []*domain.Booking
	poolSet  bool

	// Counters for verification
	InvalidateBookingCount int32
	InvalidatePoolCount    int32
	SetPoolCount           int32

	// Error injection
	GetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{bookings: make(map[int64]*domain.Booking)}
}

func (m *MockCacheStore) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (m *MockCacheStore) SetBooking(ctx context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (m *MockCacheStore) InvalidateBooking(ctx context.Context, bookingID int64) error {
	atomic.AddInt32(&m.InvalidateBookingCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, bookingID)
	return nil
}

func (m *MockCacheStore) GetPool(ctx context.Context) ([]*domain.Booking, bool, error) {
	if m.GetError != nil {
		return nil, false, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.poolSet {
		return nil, false, nil
	}
	out := make([]*domain.Booking, 0, len(m.pool))
	for _, b := range m.pool {
		out = append(out, copyBooking(b))
	}
	return out, true, nil
}

func (m *MockCacheStore) SetPool(ctx context.Context, bookings []*domain.Booking) error {
	atomic.AddInt32(&m.SetPoolCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		m.pool = append(m.pool, copyBooking(b))
	}
	m.poolSet = true
	return nil
}

func (m *MockCacheStore) InvalidatePool(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidatePoolCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = nil
	m.poolSet = false
	return nil
}

// CachedBooking reports whether the booking is cached.
func (m *MockCacheStore) CachedBooking(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bookings[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[int64]redis.DriverLocation

	// Nearby is returned by FindNearbyDrivers as is.
	Nearby []redis.DriverLocation

	// Counters for verification
	UpdateCallCount int32
	RemoveCallCount int32
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[int64]redis.DriverLocation)}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID int64, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID int64) (*redis.DriverLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	return m.Nearby, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID int64) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER + CHAT
// ──────────────────────────────────────────────

type publishedEvent struct {
	Channels []string
	Event    string
	Payload  EventPayload

	// CommitsAtPublish is the store's commit count when Publish ran.
	CommitsAtPublish int32
}

// MockPublisher records every realtime publish.
type MockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	store  *MockStore

	// Error injection
	PublishError error
}

// NewMockPublisher creates a publisher that samples store's commit count.
func NewMockPublisher(store *MockStore) *MockPublisher {
	return &MockPublisher{store: store}
}

func (m *MockPublisher) Publish(ctx context.Context, channels []string, event string, payload any) error {
	p, _ := payload.(EventPayload)
	rec := publishedEvent{Channels: channels, Event: event, Payload: p}
	if m.store != nil {
		rec.CommitsAtPublish = atomic.LoadInt32(&m.store.CommitCount)
	}
	m.mu.Lock()
	m.events = append(m.events, rec)
	m.mu.Unlock()
	return m.PublishError
}

// Events returns the recorded publishes.
func (m *MockPublisher) Events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

// Named returns the recorded publishes of one event.
func (m *MockPublisher) Named(name EventName) []publishedEvent {
	var out []publishedEvent
	for _, e := range m.Events() {
		if e.Event == string(name) {
			out = append(out, e)
		}
	}
	return out
}

type chatMessage struct {
	To   string
	Text string
}

// MockChatSender records every chat push.
type MockChatSender struct {
	mu       sync.Mutex
	messages []chatMessage

	// Error injection
	PushError error
}

func (m *MockChatSender) PushText(ctx context.Context, chatUserID, text string) error {
	m.mu.Lock()
	m.messages = append(m.messages, chatMessage{To: chatUserID, Text: text})
	m.mu.Unlock()
	return m.PushError
}

// Messages returns the recorded pushes.
func (m *MockChatSender) Messages() []chatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chatMessage(nil), m.messages...)
}

// SentTo reports whether a message reached the chat account of actor.
func (m *MockChatSender) SentTo(actor domain.Actor) bool {
	want := chatID(actor)
	for _, msg := range m.Messages() {
		if msg.To == want {
			return true
		}
	}
	return false
}

// MockContacts links every user and driver to a predictable chat account.
type MockContacts struct {
	// Unlinked actors resolve to "".
	Unlinked map[domain.Actor]bool
	LookupError error
}

func (m MockContacts) ChatUserID(ctx context.Context, actor domain.Actor) (string, error) {
	if m.LookupError != nil {
		return "", m.LookupError
	}
	if m.Unlinked[actor] {
		return "", nil
	}
	return chatID(actor), nil
}

func chatID(actor domain.Actor) string {
	return fmt.Sprintf("line-%s-%d", actor.Role, actor.ID)
}

// ──────────────────────────────────────────────
// MOCK SLIP STORAGE + ROUTES
// ──────────────────────────────────────────────

// MockSlipStorage records stored slips.
type MockSlipStorage struct {
	mu   sync.Mutex
	keys []string

	// Counters for verification
	SaveCallCount int32

	// Error injection
	SaveError error
}

func (m *MockSlipStorage) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return "", m.SaveError
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	return "https://slips.test/" + key, nil
}

// Keys returns the stored object keys.
func (m *MockSlipStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// MockRouteEstimator returns a fixed route.
type MockRouteEstimator struct {
	Meters   int
	Duration time.Duration
	Err      error
}

func (m MockRouteEstimator) EstimateRoute(ctx context.Context, origin, destination string) (int, time.Duration, error) {
	return m.Meters, m.Duration, m.Err
}

// ──────────────────────────────────────────────
// TEST ENVIRONMENT
// ──────────────────────────────────────────────

// testEnv wires services to the mocks above with a frozen clock.
type testEnv struct {
	store     *MockStore
	locks     *MockLockStore
	cache     *MockCacheStore
	geo       *MockLocationStore
	publisher *MockPublisher
	chat      *MockChatSender
	notifier  *NotificationService
	audit     *AuditWriter
	now       time.Time
}

func newTestEnv() *testEnv {
	store := NewMockStore()
	publisher := NewMockPublisher(store)
	chat := &MockChatSender{}
	env := &testEnv{
		store:     store,
		locks:     NewMockLockStore(),
		cache:     NewMockCacheStore(),
		geo:       NewMockLocationStore(),
		publisher: publisher,
		chat:      chat,
		notifier:  NewNotificationService(nil, chat, MockContacts{}, publisher),
		audit:     NewAuditWriter(),
		now:       time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	env.audit.now = env.clock
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) assignmentService() *AssignmentService {
	s := NewAssignmentService(e.store, e.locks, e.cache, e.audit, e.notifier, nil)
	s.now = e.clock
	return s
}

func (e *testEnv) bookingService(routes RouteEstimator) *BookingService {
	s := NewBookingService(e.store, e.store.Bookings(), e.store.Locations(), e.store.Logs(), e.cache, routes, e.audit, e.notifier, Pricing{HourlyRate: 300, DefaultHours: 2}, nil)
	s.now = e.clock
	return s
}

func (e *testEnv) paymentService(slips SlipStorage) *PaymentService {
	s := NewPaymentService(e.store, e.store.Bookings(), slips, e.cache, e.audit, e.notifier, nil)
	s.now = e.clock
	return s
}

func (e *testEnv) reportService() *ReportService {
	s := NewReportService(e.store, e.store.Bookings(), e.store.Reports(), e.audit, e.notifier, nil)
	s.now = e.clock
	return s
}

func (e *testEnv) driverService() *DriverService {
	return NewDriverService(e.store, e.store.Drivers(), e.store.Bookings(), e.geo, e.notifier, nil)
}

func (e *testEnv) matchingService() *MatchingService {
	return NewMatchingService(e.geo, e.store.Drivers(), e.store.Bookings(), e.store.Locations(), nil)
}

// addBooking stores a booking for userID starting in two hours. A non-zero
// driverID binds the driver.
func (e *testEnv) addBooking(userID, driverID int64, status domain.BookingStatus) *domain.Booking {
	b := &domain.Booking{
		UserID:         userID,
		Status:         status,
		PaymentStatus:  domain.PaymentPending,
		ScheduledStart: e.now.Add(2 * time.Hour),
		TotalHours:     2,
		TotalPrice:     600,
	}
	if driverID > 0 {
		b.DriverID = &driverID
	}
	e.store.AddBooking(b)
	return b
}

// addDriver stores an active approved driver.
func (e *testEnv) addDriver(id int64) *domain.Driver {
	d := &domain.Driver{
		ID:       id,
		Name:     fmt.Sprintf("Driver %d", id),
		Phone:    fmt.Sprintf("08100000%02d", id),
		Status:   domain.DriverStatusActive,
		Verified: domain.VerificationApproved,
	}
	e.store.AddDriver(d)
	return d
}

func containsChannel(channels []string, want string) bool {
	for _, c := range channels {
		if c == want {
			return true
		}
	}
	return false
}
