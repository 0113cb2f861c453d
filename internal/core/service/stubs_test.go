package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	seq       int
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = "u" + strconv.Itoa(r.seq)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == identifier || u.Username == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindAdmin(_ context.Context) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == domain.RoleAdmin {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id, status string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Status = status
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	now    func() time.Time
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order), now: time.Now}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Notifications = append([]domain.NotificationLogEntry(nil), o.Notifications...)
	return &c
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return domain.ErrDuplicateOrderID
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) FindByCheckoutRequestID(_ context.Context, checkoutRequestID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.MpesaCheckoutRequestID == checkoutRequestID {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *stubOrderRepo) ListByIdentifier(_ context.Context, identifier string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Email == identifier || o.Phone == identifier {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = status
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) UpdatePayment(_ context.Context, id string, u ports.PaymentUpdate) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if u.Confirmed != nil {
		o.Confirmed = *u.Confirmed
		if *u.Confirmed {
			t := r.now()
			o.VerificationDate = &t
		} else {
			o.VerificationDate = nil
		}
	}
	if u.Status != nil {
		o.Payment.Status = *u.Status
	}
	if u.ConfirmationMessage != nil {
		o.ConfirmationMessage = *u.ConfirmationMessage
	}
	if u.VerifiedBy != nil {
		o.VerifiedBy = *u.VerifiedBy
	}
	if u.MpesaCheckoutRequestID != nil {
		o.MpesaCheckoutRequestID = *u.MpesaCheckoutRequestID
	}
	if u.MpesaReceiptNumber != nil {
		o.MpesaReceiptNumber = *u.MpesaReceiptNumber
	}
	if u.MpesaTransactionDate != nil {
		o.MpesaTransactionDate = *u.MpesaTransactionDate
	}
	if u.Message != nil {
		o.Payment.Message = *u.Message
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) AppendNotification(_ context.Context, id string, entry domain.NotificationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Notifications = append(o.Notifications, entry)
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

type stubBroadcaster struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *stubBroadcaster) Publish(_ context.Context, e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *stubBroadcaster) types() []domain.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.EventType, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

type notifyCall struct {
	kind  domain.NotificationKind
	order domain.Order
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *stubNotifier) Notify(_ context.Context, kind domain.NotificationKind, order domain.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{kind: kind, order: order})
}

type stubSMS struct {
	mu     sync.Mutex
	sent   map[string]string
	failTo map[string]error
}

func newStubSMS() *stubSMS {
	return &stubSMS{sent: make(map[string]string), failTo: make(map[string]error)}
}

func (s *stubSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failTo[to]; ok {
		return "", err
	}
	s.sent[to] = body
	return "SM" + to, nil
}

type stubEmail struct {
	sent []ports.EmailMessage
	err  error
}

func (e *stubEmail) SendEmail(_ context.Context, msg ports.EmailMessage) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, msg)
	return nil
}

type stubAlerter struct {
	texts []string
}

func (a *stubAlerter) Alert(_ context.Context, text string) error {
	a.texts = append(a.texts, text)
	return nil
}

type stubLimiter struct {
	failures map[string]int
	max      int
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), max: max}
}

func (l *stubLimiter) Allow(_ context.Context, identifier string) (bool, error) {
	return l.failures[identifier] < l.max, nil
}

func (l *stubLimiter) Fail(_ context.Context, identifier string) error {
	l.failures[identifier]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, identifier string) error {
	delete(l.failures, identifier)
	return nil
}

type stubGateway struct {
	pushFn  func(req ports.STKPushRequest) (*ports.STKPushResponse, error)
	queryFn func(id string) (*ports.STKQueryResponse, error)
}

func (g *stubGateway) STKPush(_ context.Context, req ports.STKPushRequest) (*ports.STKPushResponse, error) {
	return g.pushFn(req)
}

func (g *stubGateway) QueryStatus(_ context.Context, id string) (*ports.STKQueryResponse, error) {
	return g.queryFn(id)
}

type stubPhotoStore struct {
	saved   []string
	removed []string
}

func (p *stubPhotoStore) Save(_ context.Context, photo ports.Photo) (string, error) {
	path := "/uploads/" + photo.Filename
	p.saved = append(p.saved, path)
	return path, nil
}

func (p *stubPhotoStore) Remove(_ context.Context, url string) error {
	p.removed = append(p.removed, url)
	return nil
}

func sampleOrderInput(id string) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		ID:             id,
		Customer:       "Jane",
		Email:          "jane@example.com",
		Phone:          "0712345678",
		RecipientName:  "Otieno",
		RecipientPhone: "0798765432",
		PickupLocation: "Nairobi CBD",
		Destination:    "Westlands",
		PackageDetails: "Documents",
		Amount:         500,
	}
}
