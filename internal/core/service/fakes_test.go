package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory workflow store. WithinTx snapshots the whole state and restores it
// when the callback fails, so tests can assert nothing partial is visible.
// ---------------------------------------------------------------------------

type memState struct {
	clients     map[int64]*domain.Client
	quotes      map[int64]*domain.Quote
	attachments []domain.QuoteAttachment
	orders      map[int64]*domain.Order
	bills       map[int64]*domain.Bill
	nextID      int64
}

func (st *memState) clone() *memState {
	c := &memState{
		clients:     make(map[int64]*domain.Client, len(st.clients)),
		quotes:      make(map[int64]*domain.Quote, len(st.quotes)),
		attachments: append([]domain.QuoteAttachment(nil), st.attachments...),
		orders:      make(map[int64]*domain.Order, len(st.orders)),
		bills:       make(map[int64]*domain.Bill, len(st.bills)),
		nextID:      st.nextID,
	}
	for id, v := range st.clients {
		cp := *v
		c.clients[id] = &cp
	}
	for id, v := range st.quotes {
		c.quotes[id] = cloneQuote(v)
	}
	for id, v := range st.orders {
		c.orders[id] = cloneOrder(v)
	}
	for id, v := range st.bills {
		c.bills[id] = cloneBill(v)
	}
	return c
}

func cloneQuote(q *domain.Quote) *domain.Quote {
	cp := *q
	cp.TimeWindow = append(domain.TimeWindow(nil), q.TimeWindow...)
	cp.Attachments = append([]domain.QuoteAttachment(nil), q.Attachments...)
	return &cp
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	if o.WorkEndDate != nil {
		end := *o.WorkEndDate
		cp.WorkEndDate = &end
	}
	return &cp
}

func cloneBill(b *domain.Bill) *domain.Bill {
	cp := *b
	if b.PayDate != nil {
		day := *b.PayDate
		cp.PayDate = &day
	}
	return &cp
}

type memStore struct {
	state  *memState
	failOn map[string]error
	txs    int
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			clients: make(map[int64]*domain.Client),
			quotes:  make(map[int64]*domain.Quote),
			orders:  make(map[int64]*domain.Order),
			bills:   make(map[int64]*domain.Bill),
		},
		failOn: make(map[string]error),
	}
}

func (m *memStore) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

func (m *memStore) Clients() ports.ClientRepository { return memClients{m} }
func (m *memStore) Quotes() ports.QuoteRepository   { return memQuotes{m} }
func (m *memStore) Orders() ports.OrderRepository   { return memOrders{m} }
func (m *memStore) Bills() ports.BillRepository     { return memBills{m} }

func (m *memStore) Ping(context.Context) error { return m.fail("ping") }

func (m *memStore) WithinTx(_ context.Context, fn func(repo ports.WorkflowRepository) error) error {
	m.txs++
	if err := m.fail("begin"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransaction, err)
	}
	snapshot := m.state.clone()
	if err := fn(m); err != nil {
		m.state = snapshot
		return err
	}
	if err := m.fail("commit"); err != nil {
		m.state = snapshot
		return fmt.Errorf("%w: %v", domain.ErrTransaction, err)
	}
	return nil
}

// seed helpers -------------------------------------------------------------

func (m *memStore) addClient(c domain.Client) *domain.Client {
	if c.ID == 0 {
		c.ID = m.id()
	}
	if c.Role == "" {
		c.Role = domain.RoleUser
	}
	m.state.clients[c.ID] = &c
	return &c
}

func (m *memStore) addQuote(q domain.Quote) *domain.Quote {
	q.ID = m.id()
	m.state.quotes[q.ID] = cloneQuote(&q)
	return &q
}

func (m *memStore) addOrder(o domain.Order) *domain.Order {
	o.ID = m.id()
	m.state.orders[o.ID] = cloneOrder(&o)
	return &o
}

func (m *memStore) addBill(b domain.Bill) *domain.Bill {
	b.ID = m.id()
	m.state.bills[b.ID] = cloneBill(&b)
	return &b
}

func (m *memStore) ordersForQuote(quoteID int64) []*domain.Order {
	var out []*domain.Order
	for _, o := range m.state.orders {
		if o.QuoteID == quoteID {
			out = append(out, o)
		}
	}
	return out
}

func (m *memStore) billsForOrder(orderID int64) []*domain.Bill {
	var out []*domain.Bill
	for _, b := range m.state.bills {
		if b.OrderID == orderID {
			out = append(out, b)
		}
	}
	return out
}

// clients ------------------------------------------------------------------

type memClients struct{ m *memStore }

func (r memClients) Create(_ context.Context, c *domain.Client) error {
	if err := r.m.fail("clients.create"); err != nil {
		return err
	}
	for _, existing := range r.m.state.clients {
		if existing.Email == c.Email {
			return domain.ErrUserExists
		}
	}
	c.ID = r.m.id()
	cp := *c
	r.m.state.clients[c.ID] = &cp
	return nil
}

func (r memClients) FindByID(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := r.m.state.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memClients) FindByEmail(_ context.Context, email string) (*domain.Client, error) {
	if err := r.m.fail("clients.find"); err != nil {
		return nil, err
	}
	for _, c := range r.m.state.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r memClients) List(context.Context) ([]*domain.Client, error) {
	out := make([]*domain.Client, 0, len(r.m.state.clients))
	for _, c := range r.m.state.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memClients) UpdatePaymentDescriptor(_ context.Context, id int64, descriptor string) error {
	if err := r.m.fail("clients.update_payment"); err != nil {
		return err
	}
	c, ok := r.m.state.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.PaymentDescriptor = descriptor
	return nil
}

// quotes -------------------------------------------------------------------

type memQuotes struct{ m *memStore }

func (r memQuotes) Create(_ context.Context, q *domain.Quote) error {
	if err := r.m.fail("quotes.create"); err != nil {
		return err
	}
	q.ID = r.m.id()
	r.m.state.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (r memQuotes) AddAttachment(_ context.Context, a *domain.QuoteAttachment) error {
	if err := r.m.fail("quotes.add_attachment"); err != nil {
		return err
	}
	if _, ok := r.m.state.quotes[a.QuoteID]; !ok {
		return domain.ErrQuoteNotFound
	}
	a.ID = r.m.id()
	r.m.state.attachments = append(r.m.state.attachments, *a)
	return nil
}

func (r memQuotes) withAttachments(q *domain.Quote) *domain.Quote {
	cp := cloneQuote(q)
	cp.Attachments = nil
	for _, a := range r.m.state.attachments {
		if a.QuoteID == q.ID {
			cp.Attachments = append(cp.Attachments, a)
		}
	}
	return cp
}

func (r memQuotes) FindByID(_ context.Context, id int64) (*domain.Quote, error) {
	if err := r.m.fail("quotes.find"); err != nil {
		return nil, err
	}
	q, ok := r.m.state.quotes[id]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	return r.withAttachments(q), nil
}

func (r memQuotes) ListByClient(_ context.Context, clientID int64) ([]*domain.Quote, error) {
	var out []*domain.Quote
	for _, q := range r.m.state.quotes {
		if q.ClientID == clientID {
			out = append(out, r.withAttachments(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memQuotes) ListWithClients(_ context.Context) ([]*domain.QuoteWithClient, error) {
	var out []*domain.QuoteWithClient
	for _, q := range r.m.state.quotes {
		row := &domain.QuoteWithClient{Quote: *r.withAttachments(q)}
		if c, ok := r.m.state.clients[q.ClientID]; ok {
			row.ClientFirstName, row.ClientLastName, row.ClientEmail = c.FirstName, c.LastName, c.Email
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memQuotes) Save(_ context.Context, q *domain.Quote, from domain.QuoteStatus) error {
	if err := r.m.fail("quotes.save"); err != nil {
		return err
	}
	stored, ok := r.m.state.quotes[q.ID]
	if !ok {
		return domain.ErrQuoteNotFound
	}
	if stored.Status != from {
		return domain.ErrInvalidTransition
	}
	r.m.state.quotes[q.ID] = cloneQuote(q)
	return nil
}

// orders -------------------------------------------------------------------

type memOrders struct{ m *memStore }

func (r memOrders) Create(_ context.Context, o *domain.Order) error {
	if err := r.m.fail("orders.create"); err != nil {
		return err
	}
	if len(r.m.ordersForQuote(o.QuoteID)) > 0 {
		return domain.ErrOrderExists
	}
	o.ID = r.m.id()
	r.m.state.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r memOrders) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := r.m.state.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r memOrders) List(context.Context) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(r.m.state.orders))
	for _, o := range r.m.state.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memOrders) Save(_ context.Context, o *domain.Order, from domain.OrderStatus) error {
	stored, ok := r.m.state.orders[o.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Status != from {
		return domain.ErrInvalidTransition
	}
	r.m.state.orders[o.ID] = cloneOrder(o)
	return nil
}

// bills --------------------------------------------------------------------

type memBills struct{ m *memStore }

func (r memBills) resolve(b *domain.Bill) *domain.Bill {
	cp := cloneBill(b)
	if o, ok := r.m.state.orders[b.OrderID]; ok {
		cp.QuoteID = o.QuoteID
		if q, ok := r.m.state.quotes[o.QuoteID]; ok {
			cp.ClientID = q.ClientID
		}
	}
	return cp
}

func (r memBills) Create(_ context.Context, b *domain.Bill) error {
	if err := r.m.fail("bills.create"); err != nil {
		return err
	}
	if len(r.m.billsForOrder(b.OrderID)) > 0 {
		return domain.ErrBillExists
	}
	b.ID = r.m.id()
	r.m.state.bills[b.ID] = cloneBill(b)
	return nil
}

func (r memBills) FindByID(_ context.Context, id int64) (*domain.Bill, error) {
	b, ok := r.m.state.bills[id]
	if !ok {
		return nil, domain.ErrBillNotFound
	}
	return r.resolve(b), nil
}

func (r memBills) List(context.Context) ([]*domain.Bill, error) {
	out := make([]*domain.Bill, 0, len(r.m.state.bills))
	for _, b := range r.m.state.bills {
		out = append(out, r.resolve(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memBills) ListByClient(ctx context.Context, clientID int64) ([]*domain.Bill, error) {
	all, _ := r.List(ctx)
	var out []*domain.Bill
	for _, b := range all {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBills) Save(_ context.Context, b *domain.Bill, from domain.BillStatus) error {
	if err := r.m.fail("bills.save"); err != nil {
		return err
	}
	stored, ok := r.m.state.bills[b.ID]
	if !ok {
		return domain.ErrBillNotFound
	}
	if stored.Status != from {
		return domain.ErrInvalidTransition
	}
	r.m.state.bills[b.ID] = cloneBill(b)
	return nil
}

// ---------------------------------------------------------------------------
// Attachment store, publisher, idempotency and revocation stubs
// ---------------------------------------------------------------------------

type stubAttachments struct {
	saved     map[string][]byte
	deleted   []string
	failAfter int // fail the Nth save (1-based); 0 = never
	saves     int
}

func newStubAttachments() *stubAttachments {
	return &stubAttachments{saved: make(map[string][]byte)}
}

func (s *stubAttachments) Save(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	s.saves++
	if s.failAfter > 0 && s.saves == s.failAfter {
		return "", errors.New("gridfs unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("ref-%d-%s", s.saves, filename)
	s.saved[ref] = data
	return ref, nil
}

func (s *stubAttachments) Open(_ context.Context, ref string) (io.ReadCloser, *ports.StoredFile, error) {
	data, ok := s.saved[ref]
	if !ok {
		return nil, nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), &ports.StoredFile{Ref: ref, Size: int64(len(data))}, nil
}

func (s *stubAttachments) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	delete(s.saved, ref)
	return nil
}

type recordingPublisher struct {
	events []domain.WorkflowEvent
}

func (p *recordingPublisher) Publish(e domain.WorkflowEvent) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) transitions() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Entity + ":" + e.From + "->" + e.To
	}
	return out
}

type memIdempotency struct {
	keys      map[string]int64
	lookupErr error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]int64)}
}

func (m *memIdempotency) Lookup(_ context.Context, clientID int64, key string) (int64, bool, error) {
	if m.lookupErr != nil {
		return 0, false, m.lookupErr
	}
	id, ok := m.keys[fmt.Sprintf("%d:%s", clientID, key)]
	return id, ok, nil
}

func (m *memIdempotency) Remember(_ context.Context, clientID int64, key string, quoteID int64) error {
	m.keys[fmt.Sprintf("%d:%s", clientID, key)] = quoteID
	return nil
}

func picture(name string) ports.AttachmentInput {
	return ports.AttachmentInput{Filename: name, ContentType: "image/jpeg", Content: strings.NewReader("jpeg:" + name)}
}
