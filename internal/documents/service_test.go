package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/accounts"
	"github.com/finbook-app/finbook/internal/ledger/journals"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

type mockRepository struct {
	tenantID   uuid.UUID
	accounts   map[uuid.UUID]accounts.AccountType
	system     map[string]uuid.UUID
	customers  map[uuid.UUID]bool
	vendors    map[uuid.UUID]bool
	vendorByNm map[string]uuid.UUID
	taxRate    *float64

	invoices map[uuid.UUID]Invoice
	bills    map[uuid.UUID]Bill
	items    []TransactionItem
	postings []journals.PostingInput
	counters map[string]int64
}

func newMockRepository(tenantID uuid.UUID) *mockRepository {
	m := &mockRepository{
		tenantID:   tenantID,
		accounts:   make(map[uuid.UUID]accounts.AccountType),
		system:     make(map[string]uuid.UUID),
		customers:  make(map[uuid.UUID]bool),
		vendors:    make(map[uuid.UUID]bool),
		vendorByNm: make(map[string]uuid.UUID),
		invoices:   make(map[uuid.UUID]Invoice),
		bills:      make(map[uuid.UUID]Bill),
		counters:   make(map[string]int64),
	}
	for _, code := range []string{
		accounts.CodeCashOnHand, accounts.CodeAccountsReceivable,
		accounts.CodeAccountsPayable, accounts.CodeTaxPayable,
	} {
		id := uuid.New()
		m.system[code] = id
		switch code {
		case accounts.CodeAccountsPayable, accounts.CodeTaxPayable:
			m.accounts[id] = accounts.AccountTypeLiability
		default:
			m.accounts[id] = accounts.AccountTypeAsset
		}
	}
	return m
}

func (m *mockRepository) addAccount(accType accounts.AccountType) uuid.UUID {
	id := uuid.New()
	m.accounts[id] = accType
	return id
}

func (m *mockRepository) addCustomer() uuid.UUID {
	id := uuid.New()
	m.customers[id] = true
	return id
}

func (m *mockRepository) addVendor() uuid.UUID {
	id := uuid.New()
	m.vendors[id] = true
	return id
}

func (m *mockRepository) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (m *mockRepository) ListInvoices(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockRepository) GetBill(ctx context.Context, tenantID, billID uuid.UUID) (Bill, error) {
	bill, ok := m.bills[billID]
	if !ok || bill.TenantID != tenantID {
		return Bill{}, shared.ErrNotFound
	}
	return bill, nil
}

func (m *mockRepository) ListBills(ctx context.Context, tenantID uuid.UUID) ([]Bill, error) {
	var out []Bill
	for _, bill := range m.bills {
		if bill.TenantID == tenantID {
			out = append(out, bill)
		}
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := &mockTxRepo{repo: m}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	staged.commit()
	return nil
}

// mockTxRepo stages writes and only publishes them when the unit of
// work returns nil, mirroring the transactional contract.
type mockTxRepo struct {
	repo     *mockRepository
	invoices []Invoice
	bills    []Bill
	posted   map[uuid.UUID]time.Time
	items    []TransactionItem
	postings []journals.PostingInput
}

func (t *mockTxRepo) commit() {
	for _, inv := range t.invoices {
		if at, ok := t.posted[inv.ID]; ok {
			inv.PostedAt = &at
		}
		t.repo.invoices[inv.ID] = inv
	}
	for _, bill := range t.bills {
		if at, ok := t.posted[bill.ID]; ok {
			bill.PostedAt = &at
		}
		t.repo.bills[bill.ID] = bill
	}
	t.repo.items = append(t.repo.items, t.items...)
	t.repo.postings = append(t.repo.postings, t.postings...)
}

func (t *mockTxRepo) CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	return t.repo.customers[customerID], nil
}

func (t *mockTxRepo) VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error) {
	return t.repo.vendors[vendorID], nil
}

func (t *mockTxRepo) EnsureVendorByName(ctx context.Context, tenantID uuid.UUID, name string) (uuid.UUID, error) {
	if id, ok := t.repo.vendorByNm[name]; ok {
		return id, nil
	}
	id := uuid.New()
	t.repo.vendorByNm[name] = id
	t.repo.vendors[id] = true
	return id, nil
}

func (t *mockTxRepo) AccountTypes(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]accounts.AccountType, error) {
	out := make(map[uuid.UUID]accounts.AccountType)
	for _, id := range ids {
		if accType, ok := t.repo.accounts[id]; ok {
			out[id] = accType
		}
	}
	return out, nil
}

func (t *mockTxRepo) SystemAccount(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error) {
	id, ok := t.repo.system[code]
	if !ok {
		return uuid.Nil, shared.ErrNotFound
	}
	return id, nil
}

func (t *mockTxRepo) TaxRate(ctx context.Context, tenantID uuid.UUID) (float64, bool, error) {
	if t.repo.taxRate == nil {
		return 0, false, nil
	}
	return *t.repo.taxRate, true, nil
}

func (t *mockTxRepo) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, kind string) (int64, error) {
	key := tenantID.String() + "/" + kind
	t.repo.counters[key]++
	return t.repo.counters[key], nil
}

func (t *mockTxRepo) InsertInvoice(ctx context.Context, invoice Invoice) error {
	t.invoices = append(t.invoices, invoice)
	return nil
}

func (t *mockTxRepo) MarkInvoicePosted(ctx context.Context, invoiceID uuid.UUID, at time.Time) error {
	if t.posted == nil {
		t.posted = make(map[uuid.UUID]time.Time)
	}
	t.posted[invoiceID] = at
	return nil
}

func (t *mockTxRepo) InsertBill(ctx context.Context, bill Bill) error {
	t.bills = append(t.bills, bill)
	return nil
}

func (t *mockTxRepo) MarkBillPosted(ctx context.Context, billID uuid.UUID, at time.Time) error {
	if t.posted == nil {
		t.posted = make(map[uuid.UUID]time.Time)
	}
	t.posted[billID] = at
	return nil
}

func (t *mockTxRepo) InsertTransactionItems(ctx context.Context, items []TransactionItem) error {
	t.items = append(t.items, items...)
	return nil
}

func (t *mockTxRepo) Ledger() journals.TxPoster {
	return &mockPoster{tx: t}
}

type mockPoster struct {
	tx *mockTxRepo
}

func (p *mockPoster) PostJournal(ctx context.Context, in journals.PostingInput) (journals.Transaction, error) {
	if err := in.Validate(); err != nil {
		return journals.Transaction{}, err
	}
	p.tx.postings = append(p.tx.postings, in)
	txn := journals.Transaction{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Date:        in.Date,
		Description: in.Description,
		VendorID:    in.VendorID,
		TotalAmount: in.TotalDebit(),
	}
	return txn, nil
}

func newTestService(repo *mockRepository) *Service {
	svc := NewService(repo, nil, nil, DefaultTaxRate)
	svc.WithNow(func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) })
	return svc
}

func lineFor(account uuid.UUID, qty, price float64) LineInput {
	return LineInput{Description: "line", Quantity: qty, UnitPrice: price, AccountID: account}
}

func findLine(t *testing.T, lines []journals.PostingLine, account uuid.UUID) journals.PostingLine {
	t.Helper()
	for _, line := range lines {
		if line.AccountID == account {
			return line
		}
	}
	t.Fatalf("no posting line for account %s", account)
	return journals.PostingLine{}
}

func TestCreateInvoiceMergesRevenueLines(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	customerID := repo.addCustomer()
	revenue := repo.addAccount(accounts.AccountTypeRevenue)

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: customerID,
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			lineFor(revenue, 1, 100),
			lineFor(revenue, 1, 50),
		},
	})
	require.NoError(t, err)

	require.InDelta(t, 150, invoice.Subtotal, 0.001)
	require.InDelta(t, 15, invoice.TaxAmount, 0.001)
	require.InDelta(t, 165, invoice.TotalAmount, 0.001)
	require.Equal(t, StatusOpen, invoice.Status())
	require.Contains(t, invoice.Number, "INV-")

	require.Len(t, repo.postings, 1)
	posting := repo.postings[0]
	// AR debit, one merged revenue credit, tax credit.
	require.Len(t, posting.Lines, 3)
	require.InDelta(t, 165, findLine(t, posting.Lines, repo.system[accounts.CodeAccountsReceivable]).Debit, 0.001)
	require.InDelta(t, 150, findLine(t, posting.Lines, revenue).Credit, 0.001)
	require.InDelta(t, 15, findLine(t, posting.Lines, repo.system[accounts.CodeTaxPayable]).Credit, 0.001)
}

func TestCreateInvoiceUsesTenantTaxRate(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	rate := 0.25
	repo.taxRate = &rate
	svc := newTestService(repo)

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: repo.addCustomer(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:      []LineInput{lineFor(repo.addAccount(accounts.AccountTypeRevenue), 2, 100)},
	})
	require.NoError(t, err)
	require.InDelta(t, 50, invoice.TaxAmount, 0.001)
	require.InDelta(t, 250, invoice.TotalAmount, 0.001)
}

func TestDocumentNumbersSequencePerTenant(t *testing.T) {
	tenantA := uuid.New()
	repo := newMockRepository(tenantA)
	svc := newTestService(repo)

	revenue := repo.addAccount(accounts.AccountTypeRevenue)
	date := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	makeInvoice := func(tenantID uuid.UUID) Invoice {
		inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
			TenantID:   tenantID,
			CustomerID: repo.addCustomer(),
			Date:       date,
			Lines:      []LineInput{lineFor(revenue, 1, 100)},
		})
		require.NoError(t, err)
		return inv
	}

	first := makeInvoice(tenantA)
	second := makeInvoice(tenantA)
	require.Equal(t, "INV-000001", first.Number)
	require.Equal(t, "INV-000002", second.Number)

	// Another tenant starts its own sequence.
	tenantB := uuid.New()
	require.Equal(t, "INV-000001", makeInvoice(tenantB).Number)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		TenantID: tenantA,
		VendorID: repo.addVendor(),
		Date:     date,
		Lines:    []LineInput{lineFor(repo.addAccount(accounts.AccountTypeExpense), 1, 100)},
	})
	require.NoError(t, err)
	require.Equal(t, "BILL-000001", bill.Number)
}

func TestCreateInvoiceRejectsCorruptTenantTaxRate(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	rate := -0.10
	repo.taxRate = &rate
	svc := newTestService(repo)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: repo.addCustomer(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:      []LineInput{lineFor(repo.addAccount(accounts.AccountTypeRevenue), 1, 100)},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, repo.invoices)
}

func TestCreateInvoiceRejectsUnknownCustomer(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: uuid.New(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:      []LineInput{lineFor(repo.addAccount(accounts.AccountTypeRevenue), 1, 100)},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.invoices)
	require.Empty(t, repo.postings)
}

func TestCreateInvoiceRejectsNonRevenueLine(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: repo.addCustomer(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:      []LineInput{lineFor(repo.addAccount(accounts.AccountTypeExpense), 1, 100)},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, repo.invoices)
}

func TestCreateInvoiceRejectsBadLines(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)
	revenue := repo.addAccount(accounts.AccountTypeRevenue)

	in := CreateInvoiceInput{
		TenantID:   tenantID,
		CustomerID: repo.addCustomer(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	in.Lines = []LineInput{lineFor(revenue, 0, 100)}
	_, err = svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	in.Lines = []LineInput{lineFor(revenue, 1, -5)}
	_, err = svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateBillPostsExpenseSide(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	vendorID := repo.addVendor()
	expense := repo.addAccount(accounts.AccountTypeExpense)
	cogs := repo.addAccount(accounts.AccountTypeCOGS)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		TenantID: tenantID,
		VendorID: vendorID,
		Date:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			lineFor(expense, 1, 200),
			lineFor(cogs, 2, 50),
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 300, bill.Subtotal, 0.001)
	require.InDelta(t, 30, bill.TaxAmount, 0.001)
	require.InDelta(t, 330, bill.TotalAmount, 0.001)
	require.Equal(t, StatusOpen, bill.Status())
	require.Contains(t, bill.Number, "BILL-")

	require.Len(t, repo.postings, 1)
	posting := repo.postings[0]
	require.Len(t, posting.Lines, 4)
	require.InDelta(t, 200, findLine(t, posting.Lines, expense).Debit, 0.001)
	require.InDelta(t, 100, findLine(t, posting.Lines, cogs).Debit, 0.001)
	require.InDelta(t, 30, findLine(t, posting.Lines, repo.system[accounts.CodeTaxPayable]).Debit, 0.001)
	require.InDelta(t, 330, findLine(t, posting.Lines, repo.system[accounts.CodeAccountsPayable]).Credit, 0.001)
	require.NotNil(t, posting.VendorID)
	require.Equal(t, vendorID, *posting.VendorID)
}

func TestCreateBillRejectsRevenueLine(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		TenantID: tenantID,
		VendorID: repo.addVendor(),
		Date:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:    []LineInput{lineFor(repo.addAccount(accounts.AccountTypeRevenue), 1, 100)},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, repo.bills)
}

func TestCreateExpensePostsAndRecordsItems(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	payment := repo.system[accounts.CodeCashOnHand]
	rent := repo.addAccount(accounts.AccountTypeExpense)
	supplies := repo.addAccount(accounts.AccountTypeExpense)

	txn, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		TenantID:         tenantID,
		VendorName:       "Acme Landlord",
		Date:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Description:      "february rent and supplies",
		PaymentAccountID: payment,
		Items: []ExpenseItemInput{
			{Description: "rent", ExpenseAccountID: rent, Amount: 1200},
			{Description: "paper", ExpenseAccountID: supplies, Amount: 45.50},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 1245.50, txn.TotalAmount, 0.001)

	require.Len(t, repo.postings, 1)
	posting := repo.postings[0]
	require.InDelta(t, 1200, findLine(t, posting.Lines, rent).Debit, 0.001)
	require.InDelta(t, 45.50, findLine(t, posting.Lines, supplies).Debit, 0.001)
	require.InDelta(t, 1245.50, findLine(t, posting.Lines, payment).Credit, 0.001)

	require.Len(t, repo.items, 2)
	require.Contains(t, repo.vendorByNm, "Acme Landlord")

	// Same vendor name resolves to the same vendor on a second expense.
	before := repo.vendorByNm["Acme Landlord"]
	_, err = svc.CreateExpense(context.Background(), CreateExpenseInput{
		TenantID:         tenantID,
		VendorName:       "Acme Landlord",
		Date:             time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PaymentAccountID: payment,
		Items:            []ExpenseItemInput{{Description: "rent", ExpenseAccountID: rent, Amount: 1200}},
	})
	require.NoError(t, err)
	require.Equal(t, before, repo.vendorByNm["Acme Landlord"])
}

func TestCreateExpenseRejectsNonAssetPaymentAccount(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	svc := newTestService(repo)

	_, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		TenantID:         tenantID,
		VendorName:       "Acme",
		Date:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PaymentAccountID: repo.addAccount(accounts.AccountTypeRevenue),
		Items: []ExpenseItemInput{
			{Description: "rent", ExpenseAccountID: repo.addAccount(accounts.AccountTypeExpense), Amount: 100},
		},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, repo.postings)
}

func TestCreateInvoiceAuditedAfterCommit(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockRepository(tenantID)
	rec := &recordingAudit{}
	bump := &countingBump{}
	svc := NewService(repo, rec, bump, DefaultTaxRate)
	svc.WithNow(func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) })

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:   tenantID,
		ActorID:    uuid.New(),
		CustomerID: repo.addCustomer(),
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:      []LineInput{lineFor(repo.addAccount(accounts.AccountTypeRevenue), 1, 100)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, bump.bumps)
	require.Len(t, rec.entries, 1)
	require.Equal(t, "invoices", rec.entries[0].Table)
	require.Equal(t, "open", rec.entries[0].NewValues["status"])
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	require.Equal(t, StatusDraft, deriveStatus(nil, 0, 100))
	require.Equal(t, StatusOpen, deriveStatus(&now, 0, 100))
	require.Equal(t, StatusPartial, deriveStatus(&now, 40, 100))
	require.Equal(t, StatusPaid, deriveStatus(&now, 100, 100))
	require.Equal(t, StatusPaid, deriveStatus(&now, 100.004, 100))
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type countingBump struct {
	bumps int
}

func (c *countingBump) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}
