package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/billing"
	"admissions-portal/internal/client"
	"admissions-portal/internal/dbtest"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/verification"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	student = lifecycle.Actor{ID: "stu-1", Role: lifecycle.RoleStudent}
	other   = lifecycle.Actor{ID: "stu-2", Role: lifecycle.RoleStudent}
	admin   = lifecycle.Actor{ID: "adm-1", Role: lifecycle.RoleAdmin}
)

// fakeGateway stands in for Razorpay. Payments are reported as captured unless listed in failed.
type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	orders     int
	fetches    int
	failed     map[string]bool
	createErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{configured: true, failed: map[string]bool{}}
}

func (g *fakeGateway) Configured() bool {
	return g.configured
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, receipt string, _ map[string]string) (*client.RazorpayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.orders++
	id := fmt.Sprintf("order_%d", g.orders)
	return &client.RazorpayOrder{
		ID:       id,
		Amount:   client.ToPaise(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
		Raw:      map[string]interface{}{"id": id},
	}, nil
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == "good"
}

func (g *fakeGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature == "good"
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*client.RazorpayPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	status := "captured"
	if g.failed[paymentID] {
		status = "failed"
	}
	return &client.RazorpayPayment{
		ID:     paymentID,
		Status: status,
		Method: "upi",
		Raw:    map[string]interface{}{"id": paymentID, "status": status},
	}, nil
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, applicationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, applicationID)
	return d.err
}

type fixture struct {
	db         *gorm.DB
	apps       repository.ApplicationRepository
	payments   repository.PaymentRepository
	gateway    *fakeGateway
	dispatcher *recordingDispatcher

	applications ApplicationService
	billing      PaymentService
	refunds      RefundService
	tickets      TicketService
	documents    DocumentService
	dashboard    DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	apps := repository.NewApplicationRepository(db)
	unis := repository.NewUniversityRepository(db)
	docs := repository.NewDocumentRepository(db)
	payments := repository.NewPaymentRepository(db)
	refunds := repository.NewRefundRepository(db)
	tickets := repository.NewTicketRepository(db)
	events := repository.NewWebhookEventRepository(db)

	gateway := newFakeGateway()
	dispatcher := &recordingDispatcher{}
	verifier := verification.NewVerifier(apps, docs, unis, nil, nil, nil)
	gate := billing.NewGate(decimal.NewFromInt(500), "INR")

	return &fixture{
		db:           db,
		apps:         apps,
		payments:     payments,
		gateway:      gateway,
		dispatcher:   dispatcher,
		applications: NewApplicationService(apps, unis, payments, verifier, dispatcher, nil, nil),
		billing:      NewPaymentService(db, gateway, "rzp_test_key", gate, apps, unis, payments, events, nil, nil),
		refunds:      NewRefundService(db, refunds, payments, nil),
		tickets:      NewTicketService(tickets, apps),
		documents:    NewDocumentService(docs, apps),
		dashboard:    NewDashboardService(apps, payments, refunds, tickets),
	}
}

func (f *fixture) status(t *testing.T, id string) model.ApplicationStatus {
	t.Helper()
	app, err := f.apps.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return app.Status
}

func (f *fixture) countPayments(t *testing.T, applicationID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Payment{}).Where("application_id = ?", applicationID).Count(&n).Error)
	return n
}

func TestAllocateNumberRetriesCollisions(t *testing.T) {
	taken := map[string]bool{"A": true, "B": true}
	seq := []string{"A", "B", "C"}
	i := 0
	gen := func(_ time.Time) string {
		n := seq[i]
		i++
		return n
	}
	exists := func(_ context.Context, n string) (bool, error) { return taken[n], nil }

	var got string
	err := allocateNumber(context.Background(), time.Now(), gen, exists, func(n string) error {
		got = n
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "C", got)
}

func TestAllocateNumberTreatsDuplicateKeyAsCollision(t *testing.T) {
	calls := 0
	err := allocateNumber(context.Background(), time.Now(),
		func(time.Time) string { return "X" },
		func(context.Context, string) (bool, error) { return false, nil },
		func(string) error {
			calls++
			if calls < 3 {
				return gorm.ErrDuplicatedKey
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAllocateNumberGivesUp(t *testing.T) {
	err := allocateNumber(context.Background(), time.Now(),
		func(time.Time) string { return "X" },
		func(context.Context, string) (bool, error) { return true, nil },
		func(string) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrConflict)

	boom := errors.New("boom")
	err = allocateNumber(context.Background(), time.Now(),
		func(time.Time) string { return "X" },
		func(context.Context, string) (bool, error) { return false, nil },
		func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}
