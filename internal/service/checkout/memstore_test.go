package checkout

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lms-commerce/internal/domain"
	enrollmentrepo "lms-commerce/internal/repository/enrollment"
	orderrepo "lms-commerce/internal/repository/order"

	"github.com/google/uuid"
)

// memStore is a transactional in-memory Store. InTx works on a copy of the state and swaps it in on success.
type memStore struct {
	mu sync.Mutex
	st *memState
}

type memState struct {
	users       map[string]domain.User
	courses     map[string]domain.Course
	storeItems  map[string]domain.StoreItem
	carts       map[string]domain.Cart
	cartItems   map[string]domain.CartItem
	orders      map[string]domain.Order
	payments    map[string]domain.Payment
	purchases   map[string]domain.UserPurchase
	enrollments map[string]domain.Enrollment
}

func newMemStore() *memStore {
	return &memStore{st: &memState{
		users:       map[string]domain.User{},
		courses:     map[string]domain.Course{},
		storeItems:  map[string]domain.StoreItem{},
		carts:       map[string]domain.Cart{},
		cartItems:   map[string]domain.CartItem{},
		orders:      map[string]domain.Order{},
		payments:    map[string]domain.Payment{},
		purchases:   map[string]domain.UserPurchase{},
		enrollments: map[string]domain.Enrollment{},
	}}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		users:       cloneMap(s.users),
		courses:     cloneMap(s.courses),
		storeItems:  cloneMap(s.storeItems),
		carts:       cloneMap(s.carts),
		cartItems:   cloneMap(s.cartItems),
		orders:      cloneMap(s.orders),
		payments:    cloneMap(s.payments),
		purchases:   cloneMap(s.purchases),
		enrollments: cloneMap(s.enrollments),
	}
}

func (m *memStore) Repos() Repos {
	return m.st.repos()
}

func (m *memStore) InTx(_ context.Context, fn func(r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(work.repos()); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (s *memState) repos() Repos {
	return Repos{
		Carts:       memCarts{s},
		Catalog:     memCatalog{s},
		Orders:      memOrders{s},
		Payments:    memPayments{s},
		Purchases:   memPurchases{s},
		Enrollments: memEnrollments{s},
		Users:       memUsers{s},
	}
}

func purchaseKey(userID string, t domain.ItemType, itemID string) string {
	return userID + "/" + string(t) + "/" + itemID
}

// carts

type memCarts struct{ s *memState }

func (r memCarts) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	if c, err := r.GetByUser(ctx, userID); err == nil {
		return c, nil
	}
	c := domain.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.s.carts[c.ID] = c
	return &c, nil
}

func (r memCarts) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	for _, c := range r.s.carts {
		if c.UserID == userID {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memCarts) ListItems(_ context.Context, cartID string) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.Before(items[j].AddedAt) })
	return items, nil
}

func (r memCarts) AddItem(_ context.Context, item domain.CartItem) (*domain.CartItem, error) {
	for _, it := range r.s.cartItems {
		if it.CartID == item.CartID && it.ItemType == item.ItemType && it.ItemID == item.ItemID {
			return nil, domain.ErrAlreadyExists
		}
	}
	item.ID = uuid.NewString()
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	item.AddedAt = time.Now().Add(time.Duration(len(r.s.cartItems)) * time.Millisecond)
	r.s.cartItems[item.ID] = item
	return &item, nil
}

func (r memCarts) RemoveItem(_ context.Context, cartID, itemID string) error {
	it, ok := r.s.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return domain.ErrNotFound
	}
	delete(r.s.cartItems, itemID)
	return nil
}

func (r memCarts) UpdateItemPrice(_ context.Context, itemID string, priceMinor int64) error {
	it, ok := r.s.cartItems[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	it.PriceMinor = priceMinor
	r.s.cartItems[itemID] = it
	return nil
}

func (r memCarts) Clear(_ context.Context, cartID string) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

func (r memCarts) ClearByUser(ctx context.Context, userID string) error {
	c, err := r.GetByUser(ctx, userID)
	if err != nil {
		return nil
	}
	return r.Clear(ctx, c.ID)
}

// catalog

type memCatalog struct{ s *memState }

func (r memCatalog) ListCourses(context.Context) ([]domain.Course, error) {
	var out []domain.Course
	for _, c := range r.s.courses {
		out = append(out, c)
	}
	return out, nil
}

func (r memCatalog) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	c, ok := r.s.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memCatalog) UpsertCourse(_ context.Context, c domain.Course) (*domain.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.s.courses[c.ID] = c
	return &c, nil
}

func (r memCatalog) ListLectures(context.Context, string) ([]domain.Lecture, error) {
	return []domain.Lecture{}, nil
}

func (r memCatalog) CountLectures(context.Context, string) (int, error) { return 0, nil }

func (r memCatalog) UpsertLecture(_ context.Context, l domain.Lecture) (*domain.Lecture, error) {
	return &l, nil
}

func (r memCatalog) ListStoreItems(context.Context) ([]domain.StoreItem, error) {
	var out []domain.StoreItem
	for _, s := range r.s.storeItems {
		out = append(out, s)
	}
	return out, nil
}

func (r memCatalog) GetStoreItem(_ context.Context, id string) (*domain.StoreItem, error) {
	s, ok := r.s.storeItems[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r memCatalog) UpsertStoreItem(_ context.Context, s domain.StoreItem) (*domain.StoreItem, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.s.storeItems[s.ID] = s
	return &s, nil
}

func (r memCatalog) GetItem(ctx context.Context, ref domain.ItemRef) (*domain.CatalogItem, error) {
	if ref.Type == domain.ItemTypeCourse {
		c, err := r.GetCourse(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		item := c.AsItem()
		return &item, nil
	}
	s, err := r.GetStoreItem(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	item := s.AsItem()
	return &item, nil
}

func (r memCatalog) IncrementEnrolled(_ context.Context, courseID string) error {
	c, ok := r.s.courses[courseID]
	if !ok {
		return domain.ErrNotFound
	}
	c.EnrolledCount++
	r.s.courses[courseID] = c
	return nil
}

func (r memCatalog) RecordStoreSale(_ context.Context, itemID string, at time.Time) error {
	s, ok := r.s.storeItems[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	s.PurchaseCount++
	s.LastPurchasedAt = &at
	r.s.storeItems[itemID] = s
	return nil
}

// orders

type memOrders struct{ s *memState }

func (r memOrders) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	for _, existing := range r.s.orders {
		if existing.OrderID == o.OrderID {
			return nil, domain.ErrAlreadyExists
		}
	}
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.s.orders[o.ID] = o
	return &o, nil
}

func (r memOrders) GetByOrderID(_ context.Context, userID, orderID string) (*domain.Order, error) {
	for _, o := range r.s.orders {
		if o.OrderID == orderID && o.UserID == userID {
			o := o
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memOrders) LockByOrderID(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return r.GetByOrderID(ctx, userID, orderID)
}

func (r memOrders) GetByRef(ctx context.Context, userID, ref string) (*domain.Order, error) {
	if o, ok := r.s.orders[ref]; ok && o.UserID == userID {
		return &o, nil
	}
	return r.GetByOrderID(ctx, userID, ref)
}

func (r memOrders) ListByUser(_ context.Context, userID string, limit int) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memOrders) SetGatewayOrder(_ context.Context, id, gatewayOrderID string) error {
	o, ok := r.s.orders[id]
	if !ok || o.PaymentStatus != domain.PaymentPending {
		return domain.ErrNotFound
	}
	o.GatewayOrderID = &gatewayOrderID
	r.s.orders[id] = o
	return nil
}

func (r memOrders) MarkCompleted(_ context.Context, id string, in orderrepo.CompleteInput) (*domain.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.PaymentStatus != domain.PaymentPending {
		return nil, domain.ErrNotFound
	}
	o.PaymentStatus = domain.PaymentCompleted
	o.GatewayPaymentID = in.GatewayPaymentID
	o.GatewaySignature = in.GatewaySignature
	o.PaymentID = in.PaymentID
	at := in.CompletedAt
	o.CompletedAt = &at
	r.s.orders[id] = o
	return &o, nil
}

// payments

type memPayments struct{ s *memState }

func (r memPayments) Create(_ context.Context, p domain.Payment) (*domain.Payment, error) {
	for _, existing := range r.s.payments {
		if existing.OrderID == p.OrderID {
			return nil, domain.ErrAlreadyExists
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	r.s.payments[p.ID] = p
	return &p, nil
}

func (r memPayments) GetByOrder(_ context.Context, orderID string) (*domain.Payment, error) {
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPayments) ListByOrders(_ context.Context, orderIDs []string) (map[string]domain.Payment, error) {
	want := map[string]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	out := map[string]domain.Payment{}
	for _, p := range r.s.payments {
		if want[p.OrderID] {
			out[p.OrderID] = p
		}
	}
	return out, nil
}

// purchases

type memPurchases struct{ s *memState }

func (r memPurchases) Grant(_ context.Context, p domain.UserPurchase) (*domain.UserPurchase, error) {
	key := purchaseKey(p.UserID, p.ItemType, p.ItemID)
	if existing, ok := r.s.purchases[key]; ok && existing.IsActive {
		return nil, domain.ErrAlreadyExists
	}
	p.ID = uuid.NewString()
	p.IsActive = true
	r.s.purchases[key] = p
	return &p, nil
}

func (r memPurchases) Owned(_ context.Context, userID string, refs []domain.ItemRef) ([]domain.ItemRef, error) {
	var out []domain.ItemRef
	for _, ref := range refs {
		if p, ok := r.s.purchases[purchaseKey(userID, ref.Type, ref.ID)]; ok && p.IsActive {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r memPurchases) ListActive(_ context.Context, userID string, itemType domain.ItemType) ([]domain.UserPurchase, error) {
	out := []domain.UserPurchase{}
	for key, p := range r.s.purchases {
		if strings.HasPrefix(key, userID+"/") && p.IsActive && (itemType == "" || p.ItemType == itemType) {
			out = append(out, p)
		}
	}
	return out, nil
}

// enrollments

type memEnrollments struct{ s *memState }

func (r memEnrollments) Upsert(_ context.Context, in enrollmentrepo.GrantInput) (*domain.Enrollment, bool, error) {
	key := in.UserID + "/" + in.CourseID
	e, exists := r.s.enrollments[key]
	if !exists {
		e = domain.Enrollment{ID: uuid.NewString(), UserID: in.UserID, CourseID: in.CourseID, EnrolledAt: in.PurchasedAt, CompletedLectures: []string{}}
	}
	orderID := in.OrderID
	at := in.PurchasedAt
	e.OrderID = &orderID
	e.IsPaid = true
	e.PurchasedAt = &at
	r.s.enrollments[key] = e
	return &e, !exists, nil
}

func (r memEnrollments) Get(_ context.Context, userID, courseID string) (*domain.Enrollment, error) {
	e, ok := r.s.enrollments[userID+"/"+courseID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r memEnrollments) GetByID(_ context.Context, id string) (*domain.Enrollment, error) {
	for _, e := range r.s.enrollments {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memEnrollments) ListByUser(_ context.Context, userID string) ([]domain.Enrollment, error) {
	out := []domain.Enrollment{}
	for _, e := range r.s.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEnrollments) UpdateProgress(ctx context.Context, id string, completed []string, progress int) (*domain.Enrollment, error) {
	for key, e := range r.s.enrollments {
		if e.ID == id {
			e.CompletedLectures = completed
			e.Progress = progress
			r.s.enrollments[key] = e
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

// users

type memUsers struct{ s *memState }

func (r memUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	u.ID = uuid.NewString()
	r.s.users[u.ID] = u
	return &u, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) RecordPurchase(_ context.Context, id string, at time.Time) error {
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PurchaseCount++
	u.LastPurchaseAt = &at
	r.s.users[id] = u
	return nil
}
