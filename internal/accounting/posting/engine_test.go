package posting

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	platformShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type memoryStore struct {
	documents    map[int64]Document
	receipts     map[int64]Receipt
	thirdParties map[int64]ThirdParty
	withholdings map[int64]Withholding
	banks        map[int64]BankAccount
	bankTxns     map[int64]BankTransaction
	products     map[int64]inventory.Product
	movements    []inventory.Movement
	moveWrites   int
	entries      map[int64]accounting.JournalEntry
	counters     map[string]int64
	accounts     map[int64]accounts.Account
	resolver     *stubResolver
}

func leaf(id int64) accounts.Account {
	return accounts.Account{ID: id, CompanyID: 1, Code: fmt.Sprintf("1.1.01.%05d", id), Name: fmt.Sprintf("Cuenta %d", id), IsActive: true}
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{
		documents:    map[int64]Document{},
		receipts:     map[int64]Receipt{},
		thirdParties: map[int64]ThirdParty{7: supplier()},
		withholdings: map[int64]Withholding{},
		banks:        map[int64]BankAccount{3: {ID: 3, CompanyID: 1, Name: "Banesco", GLAccountID: id(acctBank)}},
		bankTxns:     map[int64]BankTransaction{},
		products: map[int64]inventory.Product{
			5: {ID: 5, CompanyID: 1, SKU: "PAPEL-CARTA", Name: "Resma carta", Type: inventory.ProductTypeGoods, TrackInventory: true,
				AssetAccountID: id(acctInventory)},
		},
		entries:  map[int64]accounting.JournalEntry{},
		counters: map[string]int64{},
		accounts: map[int64]accounts.Account{},
		resolver: newStubResolver(),
	}
	for _, a := range []int64{acctReceivable, acctFiscalCredit, acctRetIVA, acctRetISLR, acctInventory, acctBank,
		acctPayable, acctFiscalDebit, acctIncome, acctExpense, acctContra, acctIGTF} {
		s.accounts[a] = leaf(a)
	}
	return s
}

// WithTx runs fn against the store and restores the previous state on error.
func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, UnitOfWork) error) error {
	snapshot := s.clone()
	tx := &memoryTx{s: s}
	journal := journals.Ports{Counters: tx, Journals: tx, Accounts: accountBook{s}}
	err := fn(ctx, UnitOfWork{
		Repo:      tx,
		Resolver:  s.resolver,
		Journal:   journal,
		Inventory: inventory.Ports{Stock: tx, Mappings: mappingBook{s}, Journal: journal},
	})
	if err != nil {
		*s = *snapshot
	}
	return err
}

func (s *memoryStore) clone() *memoryStore {
	c := *s
	c.documents = cloneMap(s.documents)
	c.receipts = cloneMap(s.receipts)
	c.withholdings = cloneMap(s.withholdings)
	c.bankTxns = cloneMap(s.bankTxns)
	c.products = cloneMap(s.products)
	c.entries = cloneMap(s.entries)
	c.counters = cloneMap(s.counters)
	c.movements = append([]inventory.Movement(nil), s.movements...)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memoryTx struct {
	s *memoryStore
}

func (tx *memoryTx) GetDocumentForUpdate(ctx context.Context, companyID, documentID int64) (Document, error) {
	doc, ok := tx.s.documents[documentID]
	if !ok || doc.CompanyID != companyID {
		return Document{}, shared.NotFound("document", documentID)
	}
	doc.ThirdParty = tx.s.thirdParties[doc.ThirdPartyID]
	doc.Items = append([]DocumentItem(nil), doc.Items...)
	return doc, nil
}

func (tx *memoryTx) SetDocumentJournalEntry(ctx context.Context, documentID, entryID int64) error {
	doc := tx.s.documents[documentID]
	doc.JournalEntryID = &entryID
	tx.s.documents[documentID] = doc
	return nil
}

func (tx *memoryTx) GetReceiptForUpdate(ctx context.Context, companyID, receiptID int64) (Receipt, error) {
	rc, ok := tx.s.receipts[receiptID]
	if !ok {
		return Receipt{}, shared.NotFound("receipt", receiptID)
	}
	return rc, nil
}

func (tx *memoryTx) SetReceiptJournalEntry(ctx context.Context, receiptID, entryID int64) error {
	rc := tx.s.receipts[receiptID]
	rc.JournalEntryID = &entryID
	tx.s.receipts[receiptID] = rc
	return nil
}

func (tx *memoryTx) GetThirdParty(ctx context.Context, companyID, id int64) (ThirdParty, error) {
	tp, ok := tx.s.thirdParties[id]
	if !ok {
		return ThirdParty{}, shared.NotFound("third party", id)
	}
	return tp, nil
}

func (tx *memoryTx) GetWithholdingForUpdate(ctx context.Context, companyID, id int64) (Withholding, error) {
	wh, ok := tx.s.withholdings[id]
	if !ok {
		return Withholding{}, shared.NotFound("withholding", id)
	}
	return wh, nil
}

func (tx *memoryTx) SetWithholdingJournalEntry(ctx context.Context, id, entryID int64) error {
	wh := tx.s.withholdings[id]
	wh.JournalEntryID = &entryID
	tx.s.withholdings[id] = wh
	return nil
}

func (tx *memoryTx) GetBankAccount(ctx context.Context, companyID, id int64) (BankAccount, error) {
	b, ok := tx.s.banks[id]
	if !ok {
		return BankAccount{}, shared.NotFound("bank account", id)
	}
	return b, nil
}

func (tx *memoryTx) GetBankTransactionForUpdate(ctx context.Context, companyID, id int64) (BankTransaction, error) {
	t, ok := tx.s.bankTxns[id]
	if !ok {
		return BankTransaction{}, shared.NotFound("bank transaction", id)
	}
	return t, nil
}

func (tx *memoryTx) SetBankTransactionJournalEntry(ctx context.Context, id, entryID int64) error {
	t := tx.s.bankTxns[id]
	t.JournalEntryID = &entryID
	tx.s.bankTxns[id] = t
	return nil
}

func (tx *memoryTx) DocumentsByJournalEntry(ctx context.Context, entryID int64) ([]int64, error) {
	var ids []int64
	for _, doc := range tx.s.documents {
		if doc.JournalEntryID != nil && *doc.JournalEntryID == entryID {
			ids = append(ids, doc.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (tx *memoryTx) GetJournalEntryForUpdate(ctx context.Context, entryID int64) (accounting.JournalEntry, error) {
	entry, ok := tx.s.entries[entryID]
	if !ok {
		return accounting.JournalEntry{}, shared.NotFound("journal entry", entryID)
	}
	return entry, nil
}

func (tx *memoryTx) ReplaceJournalLines(ctx context.Context, entryID int64, date time.Time, description string, lines []accounting.JournalLine) ([]accounting.JournalLine, error) {
	entry := tx.s.entries[entryID]
	entry.Date, entry.Description = date, description
	entry.Lines = append([]accounting.JournalLine(nil), lines...)
	tx.s.entries[entryID] = entry
	return entry.Lines, nil
}

func (tx *memoryTx) InsertJournalEntry(ctx context.Context, entry accounting.JournalEntry) (accounting.JournalEntry, error) {
	entry.ID = int64(len(tx.s.entries) + 1)
	entry.Lines = append([]accounting.JournalLine(nil), entry.Lines...)
	tx.s.entries[entry.ID] = entry
	return entry, nil
}

func (tx *memoryTx) CounterExists(ctx context.Context, companyID int64, scope string) (bool, error) {
	_, ok := tx.s.counters[scope]
	return ok, nil
}

func (tx *memoryTx) EnsureCounter(ctx context.Context, companyID int64, scope string, seed int64) error {
	if _, ok := tx.s.counters[scope]; !ok {
		tx.s.counters[scope] = seed
	}
	return nil
}

func (tx *memoryTx) Increment(ctx context.Context, companyID int64, scope string) (int64, error) {
	tx.s.counters[scope]++
	return tx.s.counters[scope], nil
}

func (tx *memoryTx) LatestNumberWithPrefix(ctx context.Context, companyID int64, prefix string) (string, error) {
	return "", nil
}

func (tx *memoryTx) CertificateNumbers(ctx context.Context, companyID int64, t correlative.CertificateType) ([]string, error) {
	return nil, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, companyID, productID int64) (inventory.Product, error) {
	p, ok := tx.s.products[productID]
	if !ok {
		return inventory.Product{}, shared.NotFound("product", productID)
	}
	return p, nil
}

func (tx *memoryTx) UpdateProductStock(ctx context.Context, productID int64, qty, avgCost decimal.Decimal) error {
	p := tx.s.products[productID]
	p.QuantityOnHand, p.AvgCost = qty, avgCost
	tx.s.products[productID] = p
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m inventory.Movement) (inventory.Movement, error) {
	if m.JournalEntryID != nil {
		if _, ok := tx.s.entries[*m.JournalEntryID]; !ok {
			return inventory.Movement{}, fmt.Errorf("movement references missing entry %d", *m.JournalEntryID)
		}
	}
	tx.s.moveWrites++
	m.ID = int64(len(tx.s.movements) + 1)
	tx.s.movements = append(tx.s.movements, m)
	return m, nil
}

type accountBook struct{ s *memoryStore }

func (b accountBook) Get(ctx context.Context, companyID, id int64) (accounts.Account, error) {
	a, ok := b.s.accounts[id]
	if !ok {
		return accounts.Account{}, shared.NotFound("account", id)
	}
	return a, nil
}

type mappingBook struct{ s *memoryStore }

func (b mappingBook) Get(ctx context.Context, companyID int64, module, key string) (mappings.AccountMapping, error) {
	account, err := b.s.resolver.MappedAccount(ctx, companyID, module, key)
	if err != nil {
		return mappings.AccountMapping{}, err
	}
	return mappings.AccountMapping{CompanyID: companyID, Module: module, Key: key, AccountID: account}, nil
}

type recordingAudit struct {
	logs []platformShared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log platformShared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type recordingMetrics struct {
	modules []string
	failed  int
}

func (m *recordingMetrics) ObservePosting(module string, err error, elapsed time.Duration) {
	m.modules = append(m.modules, module)
	if err != nil {
		m.failed++
	}
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(ctx context.Context, companyID int64) error {
	c.bumps++
	return nil
}

type fixture struct {
	store   *memoryStore
	engine  *Engine
	audit   *recordingAudit
	metrics *recordingMetrics
	cache   *countingCache
}

func newFixture() *fixture {
	f := &fixture{store: newMemoryStore(), audit: &recordingAudit{}, metrics: &recordingMetrics{}, cache: &countingCache{}}
	f.engine = NewEngine(f.store, f.audit, Config{Metrics: f.metrics, Cache: f.cache})
	f.engine.WithNow(func() time.Time { return march })
	return f
}

// stockBill is a bill of 10 reams at 100 with 16% IVA and a 75% VAT retention.
func stockBill() Document {
	doc := bill("1160", "160", retention(taxes.TypeRetentionIVA, "120", "RET-IVA-000001"))
	doc.Items[0].ProductID = id(5)
	doc.Items[0].ProductType = inventory.ProductTypeGoods
	doc.Items[0].TrackInventory = true
	doc.Items[0].Quantity = d("10")
	doc.Items[0].UnitPrice = d("100")
	doc.Items[0].GLAccountID = id(acctInventory)
	return doc
}

func TestCreateBillJournalEntryPostsAndMovesStock(t *testing.T) {
	f := newFixture()
	f.store.documents[10] = stockBill()
	ctx := platformShared.ContextWithActor(context.Background(), 42)

	entry, err := f.engine.CreateBillJournalEntry(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, "P050324-001", entry.Number)
	require.Equal(t, accounting.JournalStatusPosted, entry.Status)
	require.Equal(t, []lineShape{
		{acctInventory, "1000.00", "0.00"},
		{acctFiscalCredit, "160.00", "0.00"},
		{acctPayable, "0.00", "1040.00"},
		{acctRetIVA, "0.00", "120.00"},
	}, shapes(entry.Lines))

	require.Equal(t, entry.ID, *f.store.documents[10].JournalEntryID)
	require.Len(t, f.store.entries, 1, "document movements post no entry of their own")

	product := f.store.products[5]
	require.True(t, product.QuantityOnHand.Equal(d("10")))
	require.True(t, product.AvgCost.Equal(d("100")))
	require.Len(t, f.store.movements, 1)
	require.Equal(t, inventory.MovementPurchase, f.store.movements[0].Type)
	require.Equal(t, entry.ID, *f.store.movements[0].JournalEntryID)

	require.Len(t, f.audit.logs, 1)
	require.Equal(t, "journal.post", f.audit.logs[0].Action)
	require.Equal(t, int64(42), f.audit.logs[0].ActorID)
	require.Equal(t, 1, f.cache.bumps)
	require.Equal(t, []string{"P"}, f.metrics.modules)
}

func TestCreateBillJournalEntryWritesMovementsOnceWithEntry(t *testing.T) {
	f := newFixture()
	doc := stockBill()
	second := doc.Items[0]
	second.ID, second.Quantity, second.UnitPrice = 2, d("2"), d("130")
	second.TaxAmount, second.Total = d("41.60"), d("301.60")
	service := doc.Items[0]
	service.ID, service.ProductID, service.TrackInventory, service.TaxID = 3, nil, false, nil
	service.Quantity, service.UnitPrice, service.TaxAmount, service.Total = d("1"), d("40"), d("0"), d("40")
	service.GLAccountID = id(acctExpense)
	doc.Total, doc.TaxAmount, doc.Subtotal = d("1501.60"), d("201.60"), d("1300")
	doc.Items = append(doc.Items, second, service)
	f.store.documents[10] = doc

	entry, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Equal(t, 2, f.store.moveWrites)
	require.Len(t, f.store.movements, 2)
	for _, m := range f.store.movements {
		require.NotNil(t, m.JournalEntryID)
		require.Equal(t, entry.ID, *m.JournalEntryID)
		require.Equal(t, int64(10), *m.DocumentID)
	}
	require.True(t, f.store.movements[1].AvgCostBefore.Equal(d("100")))
	require.True(t, f.store.movements[1].AvgCostAfter.Equal(d("105")))
	require.True(t, f.store.products[5].QuantityOnHand.Equal(d("12")))
}

func TestCreateBillJournalEntryRejectsSecondPosting(t *testing.T) {
	f := newFixture()
	f.store.documents[10] = stockBill()
	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Len(t, f.store.movements, 1)
	require.True(t, f.store.products[5].QuantityOnHand.Equal(d("10")))
}

func TestCreateBillJournalEntryRollsBackOnNonPostableAccount(t *testing.T) {
	f := newFixture()
	f.store.accounts[acctPayable] = accounts.Account{ID: acctPayable, CompanyID: 1, Code: "2.1.01", Name: "Proveedores", IsActive: true}
	f.store.documents[10] = stockBill()

	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, f.store.entries)
	require.Empty(t, f.store.movements)
	require.True(t, f.store.products[5].QuantityOnHand.IsZero())
	require.Nil(t, f.store.documents[10].JournalEntryID)
	require.Empty(t, f.store.counters)
	require.Equal(t, 1, f.metrics.failed)
	require.Zero(t, f.cache.bumps)
}

func TestCreateBillJournalEntryRejectsSalesDocuments(t *testing.T) {
	f := newFixture()
	invoice := bill("116", "16")
	invoice.Type = DocumentInvoice
	f.store.documents[10] = invoice

	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateBillJournalEntryMissingPayableIsConfiguration(t *testing.T) {
	f := newFixture()
	tp := supplier()
	tp.PayableAccountID = nil
	f.store.thirdParties[7] = tp
	f.store.documents[10] = stockBill()

	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.ErrorIs(t, err, shared.ErrConfiguration)
	require.Empty(t, f.store.movements)
}

func TestPurchaseCreditNoteReturnsStock(t *testing.T) {
	f := newFixture()
	f.store.documents[10] = stockBill()
	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	note := stockBill()
	note.ID, note.Type, note.BillType, note.Number = 11, DocumentCreditNote, CyclePurchase, "NC-0001"
	note.Items[0].Quantity = d("4")
	note.Items[0].Total, note.Items[0].TaxAmount = d("464"), d("64")
	note.Total, note.TaxAmount = d("464"), d("64")
	note.Withholdings = nil
	f.store.documents[11] = note

	entry, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Equal(t, "P050324-002", entry.Number)
	require.Equal(t, []lineShape{
		{acctInventory, "0.00", "400.00"},
		{acctFiscalCredit, "0.00", "64.00"},
		{acctPayable, "464.00", "0.00"},
	}, shapes(entry.Lines))
	require.True(t, f.store.products[5].QuantityOnHand.Equal(d("6")))
	require.Equal(t, inventory.MovementPurchaseReturn, f.store.movements[1].Type)
}

func TestPurchaseCreditNoteBeyondStockFails(t *testing.T) {
	f := newFixture()
	note := stockBill()
	note.Type, note.BillType = DocumentCreditNote, CyclePurchase
	note.Withholdings = nil
	f.store.documents[10] = note

	_, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Empty(t, f.store.movements)
	require.Empty(t, f.store.entries)
}

func TestCreateDocumentJournalEntry(t *testing.T) {
	f := newFixture()
	invoice := bill("116", "16")
	invoice.Type = DocumentInvoice
	invoice.Items[0].GLAccountID = id(acctIncome)
	f.store.documents[10] = invoice
	void := bill("116", "16")
	void.ID, void.Status = 12, StatusVoid
	f.store.documents[12] = void

	entry, err := f.engine.CreateDocumentJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, "C050324-001", entry.Number)
	require.Equal(t, accounting.ModuleSales, entry.SourceModule)

	none, err := f.engine.CreateDocumentJournalEntry(context.Background(), 1, 12)
	require.NoError(t, err)
	require.Nil(t, none)
	require.Len(t, f.store.entries, 1)
	require.Equal(t, 1, f.cache.bumps)
}

func TestCreatePaymentJournalEntry(t *testing.T) {
	f := newFixture()
	f.store.receipts[2] = Receipt{ID: 2, CompanyID: 1, ThirdPartyID: 7, Number: "RC-1", Date: march, Amount: d("116")}
	f.store.receipts[3] = Receipt{ID: 3, CompanyID: 1, ThirdPartyID: 7, Number: "RC-2", Date: march, Amount: d("50")}

	_, err := f.engine.CreatePaymentJournalEntry(context.Background(), 1, 2, PaymentTarget{})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.engine.CreatePaymentJournalEntry(context.Background(), 1, 2, PaymentTarget{BankAccountID: id(3), CashAccountID: id(acctContra)})
	require.ErrorIs(t, err, shared.ErrValidation)

	entry, err := f.engine.CreatePaymentJournalEntry(context.Background(), 1, 2, PaymentTarget{BankAccountID: id(3)})
	require.NoError(t, err)
	require.Equal(t, "C050324-001", entry.Number)
	require.Equal(t, []lineShape{{acctBank, "116.00", "0.00"}, {acctReceivable, "0.00", "116.00"}}, shapes(entry.Lines))
	require.Equal(t, entry.ID, *f.store.receipts[2].JournalEntryID)

	cash, err := f.engine.CreatePaymentJournalEntry(context.Background(), 1, 3, PaymentTarget{CashAccountID: id(acctContra)})
	require.NoError(t, err)
	require.Equal(t, acctContra, cash.Lines[0].AccountID)
}

func TestCreateWithholdingJournalEntry(t *testing.T) {
	f := newFixture()
	f.store.withholdings[4] = Withholding{ID: 4, CompanyID: 1, ThirdPartyID: 7, Type: taxes.TypeRetentionISLR, Date: march,
		CertificateNumber: "0042", Amount: d("20"), Direction: DirectionReceived}

	entry, err := f.engine.CreateWithholdingJournalEntry(context.Background(), 1, 4)
	require.NoError(t, err)
	require.Equal(t, "F050324-001", entry.Number)
	require.Equal(t, []lineShape{{acctRetISLR, "20.00", "0.00"}, {acctReceivable, "0.00", "20.00"}}, shapes(entry.Lines))

	_, err = f.engine.CreateWithholdingJournalEntry(context.Background(), 1, 4)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateBankTransactionJournalEntry(t *testing.T) {
	f := newFixture()
	f.store.bankTxns[8] = BankTransaction{ID: 8, CompanyID: 1, BankAccountID: 3, Type: BankCredit, Date: march,
		Amount: d("500"), Reference: "TRF-88", ContraAccountID: id(acctContra), ApplyIGTF: true}

	entry, err := f.engine.CreateBankTransactionJournalEntry(context.Background(), 1, 8)
	require.NoError(t, err)
	require.Equal(t, "B050324-001", entry.Number)
	require.Equal(t, []lineShape{
		{acctContra, "500.00", "0.00"},
		{acctBank, "0.00", "500.00"},
		{acctIGTF, "15.00", "0.00"},
		{acctBank, "0.00", "15.00"},
	}, shapes(entry.Lines))
	require.Equal(t, entry.ID, *f.store.bankTxns[8].JournalEntryID)
}

func TestResyncRebuildsLinesFromDocument(t *testing.T) {
	f := newFixture()
	f.store.documents[10] = stockBill()
	posted, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	// The retention was corrected after posting.
	doc := f.store.documents[10]
	doc.Withholdings = []Withholding{retention(taxes.TypeRetentionIVA, "80", "RET-IVA-000001")}
	f.store.documents[10] = doc

	first, err := f.engine.Resync(context.Background(), 1, posted.ID)
	require.NoError(t, err)
	require.Equal(t, posted.ID, first.ID)
	require.Equal(t, posted.Number, first.Number)
	require.Equal(t, []lineShape{
		{acctInventory, "1000.00", "0.00"},
		{acctFiscalCredit, "160.00", "0.00"},
		{acctPayable, "0.00", "1080.00"},
		{acctRetIVA, "0.00", "80.00"},
	}, shapes(first.Lines))

	second, err := f.engine.Resync(context.Background(), 0, posted.ID)
	require.NoError(t, err)
	require.Equal(t, first.Lines, second.Lines)

	require.Len(t, f.store.entries, 1)
	require.Len(t, f.store.movements, 1, "resync has no stock side effects")
	require.True(t, f.store.products[5].QuantityOnHand.Equal(d("10")))
	require.Equal(t, "journal.resync", f.audit.logs[len(f.audit.logs)-1].Action)
}

func TestResyncRejectsSalesCycle(t *testing.T) {
	f := newFixture()
	invoice := bill("116", "16")
	invoice.Type = DocumentInvoice
	invoice.Items[0].GLAccountID = id(acctIncome)
	f.store.documents[10] = invoice
	entry, err := f.engine.CreateDocumentJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = f.engine.Resync(context.Background(), 1, entry.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "SALE cycle")
}

func TestResyncScopesByCompany(t *testing.T) {
	f := newFixture()
	f.store.documents[10] = stockBill()
	entry, err := f.engine.CreateBillJournalEntry(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = f.engine.Resync(context.Background(), 2, entry.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.engine.Resync(context.Background(), 1, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResyncRequiresLinkedDocument(t *testing.T) {
	f := newFixture()
	f.store.bankTxns[8] = BankTransaction{ID: 8, CompanyID: 1, BankAccountID: 3, Type: BankDebit, Date: march,
		Amount: d("10"), ContraAccountID: id(acctContra)}
	entry, err := f.engine.CreateBankTransactionJournalEntry(context.Background(), 1, 8)
	require.NoError(t, err)

	_, err = f.engine.Resync(context.Background(), 1, entry.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
}
