package journals

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/finbook-app/finbook/internal/audit"
	"github.com/finbook-app/finbook/internal/ledger/shared"
)

type mockRepository struct {
	transactions map[uuid.UUID]Transaction
	txError      error
}

func newMockRepository() *mockRepository {
	return &mockRepository{transactions: make(map[uuid.UUID]Transaction)}
}

func (m *mockRepository) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (Transaction, error) {
	txn, ok := m.transactions[transactionID]
	if !ok || txn.TenantID != tenantID {
		return Transaction{}, shared.ErrNotFound
	}
	return txn, nil
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Transaction, error) {
	var out []Transaction
	for _, txn := range m.transactions {
		if txn.TenantID == tenantID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxPoster) error) error {
	if m.txError != nil {
		return m.txError
	}
	staging := make(map[uuid.UUID]Transaction)
	if err := fn(ctx, &mockPoster{staging: staging}); err != nil {
		return err
	}
	for id, txn := range staging {
		m.transactions[id] = txn
	}
	return nil
}

type mockPoster struct {
	staging map[uuid.UUID]Transaction
}

func (p *mockPoster) PostJournal(ctx context.Context, in PostingInput) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	txn := Transaction{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Date:        in.Date,
		Description: in.Description,
		VendorID:    in.VendorID,
		TotalAmount: in.TotalDebit(),
		CreatedAt:   time.Now(),
	}
	for _, line := range in.Lines {
		txn.Entries = append(txn.Entries, JournalEntry{
			ID:            uuid.New(),
			TenantID:      in.TenantID,
			TransactionID: txn.ID,
			AccountID:     line.AccountID,
			Debit:         shared.Round2(line.Debit),
			Credit:        shared.Round2(line.Credit),
			Date:          in.Date,
		})
	}
	p.staging[txn.ID] = txn
	return txn, nil
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

func validInput(tenantID uuid.UUID) PostingInput {
	return PostingInput{
		TenantID:    tenantID,
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: "office rent",
		Lines: []PostingLine{
			{AccountID: uuid.New(), Debit: 1200},
			{AccountID: uuid.New(), Credit: 1200},
		},
	}
}

func TestPostCommitsBalancedTransaction(t *testing.T) {
	repo := newMockRepository()
	auditRec := &recordingAudit{}
	bump := &countingBump{}
	svc := NewService(repo, auditRec, bump)

	tenantID := uuid.New()
	txn, err := svc.Post(context.Background(), validInput(tenantID), uuid.New())
	require.NoError(t, err)
	require.Len(t, txn.Entries, 2)
	require.InDelta(t, 1200, txn.TotalAmount, 0.001)

	stored, err := svc.Get(context.Background(), tenantID, txn.ID)
	require.NoError(t, err)
	require.Equal(t, txn.ID, stored.ID)

	require.Equal(t, 1, bump.bumps)
	require.Len(t, auditRec.entries, 1)
	require.Equal(t, "transactions", auditRec.entries[0].Table)
	require.Equal(t, "insert", auditRec.entries[0].Action)
}

func TestPostRejectsUnbalanced(t *testing.T) {
	repo := newMockRepository()
	bump := &countingBump{}
	svc := NewService(repo, nil, bump)

	in := validInput(uuid.New())
	in.Lines[1].Credit = 1199.99

	_, err := svc.Post(context.Background(), in, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Empty(t, repo.transactions)
	require.Zero(t, bump.bumps)
}

func TestPostRejectsEmptyLines(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	in := validInput(uuid.New())
	in.Lines = nil

	_, err := svc.Post(context.Background(), in, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrTooFewLines)
}

func TestPostRejectsNegativeAndEmptyAmounts(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	tenantID := uuid.New()

	in := validInput(tenantID)
	in.Lines[0].Debit = -5
	_, err := svc.Post(context.Background(), in, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	in = validInput(tenantID)
	in.Lines[0] = PostingLine{AccountID: in.Lines[0].AccountID}
	_, err = svc.Post(context.Background(), in, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPostToleratesBothSidesOnOneLine(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	in := validInput(uuid.New())
	in.Lines = []PostingLine{
		{AccountID: uuid.New(), Debit: 100, Credit: 30},
		{AccountID: uuid.New(), Credit: 70},
	}
	_, err := svc.Post(context.Background(), in, uuid.Nil)
	require.NoError(t, err)
}

func TestPostBalanceComparedAtCentPrecision(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	// 0.1+0.2 != 0.3 in float64, but both sides are 30 cents.
	in := validInput(uuid.New())
	in.Lines = []PostingLine{
		{AccountID: uuid.New(), Debit: 0.1},
		{AccountID: uuid.New(), Debit: 0.2},
		{AccountID: uuid.New(), Credit: 0.3},
	}
	_, err := svc.Post(context.Background(), in, uuid.Nil)
	require.NoError(t, err)
}

func TestPostRandomisedBalanceProperty(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		lineCount := 2 + rng.Intn(6)
		in := PostingInput{
			TenantID:    uuid.New(),
			Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Description: "generated",
		}
		totalCents := int64(0)
		for j := 0; j < lineCount; j++ {
			cents := int64(1 + rng.Intn(100000))
			totalCents += cents
			in.Lines = append(in.Lines, PostingLine{AccountID: uuid.New(), Debit: float64(cents) / 100})
		}
		in.Lines = append(in.Lines, PostingLine{AccountID: uuid.New(), Credit: float64(totalCents) / 100})

		_, err := svc.Post(context.Background(), in, uuid.Nil)
		require.NoError(t, err, "balanced posting %d must commit", i)

		in.Lines[0].Debit += 0.01
		_, err = svc.Post(context.Background(), in, uuid.Nil)
		require.ErrorIs(t, err, shared.ErrUnbalanced, "perturbed posting %d must be rejected", i)
	}
}

func TestGetUnknownTransaction(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPostInvokesHooks(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	var posted []string
	var rejected []string
	svc.OnPosted(func(source string) { posted = append(posted, source) })
	svc.OnRejected(func(reason string) { rejected = append(rejected, reason) })

	_, err := svc.Post(context.Background(), validInput(uuid.New()), uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, []string{"journal"}, posted)

	in := validInput(uuid.New())
	in.Lines[1].Credit = 1000
	_, err = svc.Post(context.Background(), in, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Equal(t, []string{"unbalanced"}, rejected)
}
