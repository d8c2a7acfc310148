package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/payment"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	vendors *fakeVendors
	clients *fakeClients
}

func (f *fakeUsers) CreateAccount(_ context.Context, u *model.User, v *model.Vendor, c *model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	f.byID[u.ID] = u
	if v != nil {
		v.User = *u
		f.vendors.put(v)
	}
	if c != nil {
		c.User = *u
		f.clients.put(c)
	}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

type fakeVendors struct {
	mu   sync.Mutex
	byID map[string]*model.Vendor
}

func (f *fakeVendors) put(v *model.Vendor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[v.ID] = v
}

func (f *fakeVendors) GetByID(_ context.Context, id string) (*model.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.byID[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeVendors) GetByUserID(_ context.Context, userID string) (*model.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.byID {
		if v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeVendors) List(_ context.Context, status model.VendorStatus) ([]*model.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Vendor
	for _, v := range f.byID {
		if status == "" || v.Status == status {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVendors) UpdateStatus(_ context.Context, id string, from, to model.VendorStatus, approvedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok || v.Status != from {
		return repository.ErrStatusConflict
	}
	v.Status = to
	v.ApprovedAt = approvedAt
	return nil
}

type fakeClients struct {
	mu   sync.Mutex
	byID map[string]*model.Client
}

func (f *fakeClients) put(c *model.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[c.ID] = c
}

func (f *fakeClients) GetByID(_ context.Context, id string) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeClients) GetByUserID(_ context.Context, userID string) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeServices struct {
	mu      sync.Mutex
	byID    map[string]*model.Service
	vendors *fakeVendors
}

func (f *fakeServices) Create(_ context.Context, s *model.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.ID] = s
	return nil
}

func (f *fakeServices) GetByID(ctx context.Context, id string) (*model.Service, error) {
	f.mu.Lock()
	s, ok := f.byID[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	if v, err := f.vendors.GetByID(ctx, s.VendorID); err == nil {
		cp.Vendor = v
	}
	return &cp, nil
}

func (f *fakeServices) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	f.mu.Lock()
	ids := make([]string, 0, len(f.byID))
	for id, s := range f.byID {
		if filter.VendorID != "" && s.VendorID != filter.VendorID {
			continue
		}
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Strings(ids)

	var out []*model.Service
	for _, id := range ids {
		s, _ := f.GetByID(ctx, id)
		out = append(out, s)
	}
	return out, nil
}

type fakeBookings struct {
	mu   sync.Mutex
	byID map[string]*model.Booking
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) list(match func(*model.Booking) bool) []*model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.byID {
		if match(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeBookings) ListByClient(_ context.Context, clientID string) ([]*model.Booking, error) {
	return f.list(func(b *model.Booking) bool { return b.ClientID == clientID }), nil
}

func (f *fakeBookings) ListByVendor(_ context.Context, vendorID string) ([]*model.Booking, error) {
	return f.list(func(b *model.Booking) bool { return b.Service != nil && b.Service.VendorID == vendorID }), nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.Status != from {
		return repository.ErrStatusConflict
	}
	b.Status = to
	b.CancellationReason = reason
	return nil
}

// markPaid flips an unpaid booking to paid and reports whether it did.
func (f *fakeBookings) markPaid(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.PaymentStatus == model.BookingPaid {
		return false
	}
	b.PaymentStatus = model.BookingPaid
	return true
}

type fakePayments struct {
	mu       sync.Mutex
	byID     map[string]*model.Payment
	bookings *fakeBookings
}

// openPayment mirrors the partial unique index: one pending or completed
// payment per booking.
func openPayment(p *model.Payment) bool {
	return p.Status == model.PaymentStatusPending || p.Status == model.PaymentStatusCompleted
}

func (f *fakePayments) Create(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.TxRef == p.TxRef {
			return repository.ErrDuplicate
		}
		if existing.BookingID == p.BookingID && openPayment(existing) && openPayment(p) {
			return repository.ErrDuplicate
		}
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePayments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakePayments) GetByID(_ context.Context, id string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) GetByTxRef(_ context.Context, txRef string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.TxRef == txRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) GetLatestByBooking(_ context.Context, bookingID string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Payment
	for _, p := range f.byID {
		if p.BookingID == bookingID && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePayments) SetCheckoutURL(_ context.Context, id, checkoutURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].CheckoutURL = checkoutURL
	return nil
}

func (f *fakePayments) MarkCompleted(_ context.Context, id, gatewayRef string, paidAt time.Time) error {
	f.mu.Lock()
	p, ok := f.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		f.mu.Unlock()
		return repository.ErrStatusConflict
	}
	p.GatewayReference = gatewayRef
	p.PaidAt = &paidAt
	if !f.bookings.markPaid(p.BookingID) {
		p.Status = model.PaymentStatusRefundDue
		f.mu.Unlock()
		return repository.ErrAlreadySettled
	}
	p.Status = model.PaymentStatusCompleted
	f.mu.Unlock()
	return nil
}

func (f *fakePayments) MarkFailed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return repository.ErrStatusConflict
	}
	p.Status = model.PaymentStatusFailed
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Create(_ context.Context, log *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, log.Action)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeNotifier) SendVendorApproval(context.Context, *model.Vendor) error {
	return f.record("vendor_approval")
}

func (f *fakeNotifier) SendPaymentCompletionToVendor(context.Context, *model.Payment, *model.Booking, *model.Vendor) error {
	return f.record("payment_completed")
}

func (f *fakeNotifier) SendNewBookingToVendor(context.Context, *model.Booking, *model.Vendor) error {
	return f.record("new_booking")
}

func (f *fakeNotifier) SendBookingConfirmationToClient(context.Context, *model.Booking, *model.Client) error {
	return f.record("booking_confirmed")
}

func (f *fakeNotifier) SendBookingCancellationToClient(_ context.Context, _ *model.Booking, _ *model.Client, reason string) error {
	return f.record("booking_cancelled:" + reason)
}

func (f *fakeNotifier) SendBookingCompletionToClient(context.Context, *model.Booking, *model.Client) error {
	return f.record("booking_completed")
}

type fakeGateway struct {
	mu           sync.Mutex
	checkoutURL  string
	initErr      error
	verification *payment.Verification
	verifyErr    error
	initCalls    []payment.InitializeRequest
	verifyCalls  int
	// block, when set, holds Initialize until closed
	block chan struct{}
}

func (f *fakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls = append(f.initCalls, req)
	if f.initErr != nil {
		return "", f.initErr
	}
	return f.checkoutURL, nil
}

func (f *fakeGateway) Verify(_ context.Context, txRef string) (*payment.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	v := *f.verification
	v.TxRef = txRef
	return &v, nil
}

// world wires every fake together with one approved vendor, one service and
// one client.
type world struct {
	users    *fakeUsers
	vendors  *fakeVendors
	clients  *fakeClients
	services *fakeServices
	bookings *fakeBookings
	payments *fakePayments
	audit    *fakeAudit
	notifier *fakeNotifier
	gateway  *fakeGateway

	vendor  *model.Vendor
	client  *model.Client
	service *model.Service
}

func newWorld() *world {
	w := &world{
		vendors:  &fakeVendors{byID: map[string]*model.Vendor{}},
		clients:  &fakeClients{byID: map[string]*model.Client{}},
		bookings: &fakeBookings{byID: map[string]*model.Booking{}},
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
		gateway: &fakeGateway{
			checkoutURL:  "https://checkout.chapa.co/checkout/payment/abc",
			verification: &payment.Verification{Status: "success", Reference: "APx1", Amount: 12500},
		},
	}
	w.users = &fakeUsers{byID: map[string]*model.User{}, vendors: w.vendors, clients: w.clients}
	w.services = &fakeServices{byID: map[string]*model.Service{}, vendors: w.vendors}
	w.payments = &fakePayments{byID: map[string]*model.Payment{}, bookings: w.bookings}

	vendorUser := model.User{ID: "usr_vendor", Email: "vendor@example.com", FirstName: "Abebe", Role: model.RoleVendor}
	clientUser := model.User{ID: "usr_client", Email: "client@example.com", FirstName: "Sara", LastName: "T", Role: model.RoleClient}
	w.users.byID[vendorUser.ID] = &vendorUser
	w.users.byID[clientUser.ID] = &clientUser

	w.vendor = &model.Vendor{ID: "vnd_1", UserID: vendorUser.ID, User: vendorUser, BusinessName: "Blooms", Status: model.VendorStatusApproved}
	w.vendors.put(w.vendor)
	w.client = &model.Client{ID: "cli_1", UserID: clientUser.ID, User: clientUser}
	w.clients.put(w.client)
	w.service = &model.Service{ID: "svc_1", VendorID: w.vendor.ID, Name: "Floral Arch", Category: "decor", Price: 12500, Active: true}
	_ = w.services.Create(context.Background(), w.service)
	return w
}
