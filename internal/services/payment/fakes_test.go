package payment

import (
	"context"
	"sync"

	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/services/gateway"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
)

// memoryPayments is a transactional in-memory PaymentRepository. A
// transaction works on a copy of the rows and commits only when fn
// returns nil; the mutex stands in for the row lock.
type memoryPayments struct {
	mu         *sync.Mutex
	rows       map[uint]models.Payment
	nextID     uint
	paidWrites int
	inTx       bool
}

func newMemoryPayments() *memoryPayments {
	return &memoryPayments{mu: &sync.Mutex{}, rows: map[uint]models.Payment{}, nextID: 1}
}

func (m *memoryPayments) Create(_ context.Context, p *models.Payment) error {
	p.ID = m.nextID
	m.nextID++
	m.rows[p.ID] = *p
	return nil
}

func (m *memoryPayments) GetByID(_ context.Context, id uint) (*models.Payment, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *memoryPayments) GetByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryPayments) GetByChargeID(_ context.Context, chargeID string) (*models.Payment, error) {
	for _, p := range m.rows {
		if p.PaymentChargeID != nil && *p.PaymentChargeID == chargeID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryPayments) SetCharge(_ context.Context, id uint, chargeID, gateway string) error {
	p := m.rows[id]
	if p.PaymentChargeID != nil {
		return repositories.ErrConflict
	}
	p.PaymentChargeID = &chargeID
	p.Gateway = gateway
	m.rows[id] = p
	return nil
}

func (m *memoryPayments) SaveBankResponse(_ context.Context, id uint, raw []byte) error {
	p := m.rows[id]
	p.BankTransactionResponse = append([]byte(nil), raw...)
	m.rows[id] = p
	return nil
}

func (m *memoryPayments) MarkPaid(_ context.Context, id uint) (bool, error) {
	p := m.rows[id]
	if p.IsPaid {
		return false, nil
	}
	p.IsPaid = true
	m.rows[id] = p
	m.paidWrites++
	return true, nil
}

func (m *memoryPayments) ExecuteInTransaction(_ context.Context, fn func(repositories.PaymentRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryPayments{mu: m.mu, rows: make(map[uint]models.Payment, len(m.rows)), nextID: m.nextID, inTx: true}
	for id, p := range m.rows {
		tx.rows[id] = p
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.rows, m.nextID = tx.rows, tx.nextID
	m.paidWrites += tx.paidWrites
	return nil
}

type memoryUsers map[uint]*models.User

func (u memoryUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, repositories.ErrNotFound
}

// fakeAdapter records calls and parses Tap shaped callbacks.
type fakeAdapter struct {
	gw        types.GatewayType
	charges   []types.ChargeRequest
	refunds   []string
	status    *types.ChargeStatusResponse
	statusErr error
	createErr error
}

func (f *fakeAdapter) Type() types.GatewayType { return f.gw }

func (f *fakeAdapter) CreateCharge(_ context.Context, req types.ChargeRequest) (*types.ChargeResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.charges = append(f.charges, req)
	return &types.ChargeResponse{PaymentURL: "https://pay.example/" + req.OrderID, PaymentID: "chg_" + req.OrderID}, nil
}

func (f *fakeAdapter) ExtractPaymentCallback(raw []byte) (*types.PaymentStatusCallback, error) {
	doc, err := types.Decode(raw)
	if err != nil {
		return nil, err
	}
	order, _ := types.LookupString(doc, "reference.order")
	key, _ := types.LookupString(doc, "metadata.udf2")
	status, _ := types.LookupString(doc, "status")
	id, _ := types.LookupString(doc, "id")
	return &types.PaymentStatusCallback{
		OrderID:          order,
		ConfirmationKey:  key,
		Status:           status,
		IsCompleted:      status == "CAPTURED",
		GatewayType:      f.gw,
		GatewayPaymentID: id,
	}, nil
}

func (f *fakeAdapter) RefundPayment(_ context.Context, txID string, _ decimal.Decimal, _, _ string) (*types.RefundResponse, error) {
	f.refunds = append(f.refunds, txID)
	return &types.RefundResponse{IsSuccess: true, RefundID: "re_1"}, nil
}

func (f *fakeAdapter) GetChargeStatus(context.Context, string) (*types.ChargeStatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	webhooks []string
}

func (r *recordingMetrics) RecordCharge(string, string) {}

func (r *recordingMetrics) RecordWebhook(_ string, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks = append(r.webhooks, state)
}

func gatewayFactoryOf(f *fixture) GatewayFactory {
	return gateway.NewFactory(nil, f.tap)
}
