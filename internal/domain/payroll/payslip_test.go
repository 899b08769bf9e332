package payroll

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpay/internal/domain/apperr"
	"workpay/internal/domain/workforce"
)

type fakeDirectory struct {
	employees map[string]workforce.Employee
}

func (f fakeDirectory) FindCompany(_ context.Context, id string) (workforce.Company, error) {
	return workforce.Company{ID: id, Name: "Acme Staffing"}, nil
}

func (f fakeDirectory) FindEmployee(_ context.Context, id string) (workforce.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return workforce.Employee{}, &workforce.NotFoundError{Entity: "employee", ID: id}
	}
	return e, nil
}

func (f fakeDirectory) AgencyName(_ context.Context, e workforce.Employee) (string, error) {
	if e.AgencyID == "" {
		return "", nil
	}
	return "Agency " + e.AgencyID, nil
}

type memBlobs struct {
	objects map[string][]byte
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

// xorCipher stands in for AES-GCM so stored bytes differ from rendered ones.
type xorCipher struct{}

func (xorCipher) Encrypt(plain []byte) ([]byte, error) {
	out := make([]byte, len(plain))
	for i, b := range plain {
		out[i] = b ^ 0x5a
	}
	return out, nil
}

func (c xorCipher) Decrypt(sealed []byte) ([]byte, error) {
	return c.Encrypt(sealed)
}

type recordingRenderer struct {
	rendered []PayslipData
}

func (r *recordingRenderer) Render(data PayslipData) ([]byte, error) {
	r.rendered = append(r.rendered, data)
	return []byte("payslip:" + data.EmployeeCode + ":" + data.Net.StringFixed(2)), nil
}

func newTestGenerator(t *testing.T, svc *Service, store *memStore, employees ...workforce.Employee) (*PayslipGenerator, *recordingRenderer, *memBlobs) {
	t.Helper()
	directory := fakeDirectory{employees: map[string]workforce.Employee{}}
	for _, e := range employees {
		directory.employees[e.ID] = e
	}
	renderer := &recordingRenderer{}
	blobs := &memBlobs{objects: map[string][]byte{}}
	return NewPayslipGenerator(store, directory, renderer, blobs, xorCipher{}), renderer, blobs
}

var (
	alice = workforce.Employee{ID: "e1", Code: "EMP-001", FullName: "Alice Reyes", CompanyID: "c1", AgencyID: "a1"}
	bob   = workforce.Employee{ID: "e2", Code: "EMP-002", FullName: "Bob Cruz", CompanyID: "c1"}
)

func TestGeneratePayslipsRequiresLockedRun(t *testing.T) {
	svc, store := newTestService(t)
	gen, _, _ := newTestGenerator(t, svc, store, alice, bob)
	run := createRun(t, svc)

	_, err := gen.Generate(context.Background(), finance, run.ID)
	var notLocked *PayrollNotLockedError
	require.ErrorAs(t, err, &notLocked)
	assert.ErrorIs(t, err, apperr.State)
}

func TestGeneratePayslipsRequiresPayables(t *testing.T) {
	svc, store := newTestService(t)
	gen, _, _ := newTestGenerator(t, svc, store, alice, bob)
	run := lockedRun(t, svc)
	store.payables[run.ID] = nil

	_, err := gen.Generate(context.Background(), finance, run.ID)
	var noSnap *NoSnapshotError
	assert.ErrorAs(t, err, &noSnap)
}

func TestGeneratePayslipsStoresEncryptedDocuments(t *testing.T) {
	svc, store := newTestService(t)
	gen, renderer, blobs := newTestGenerator(t, svc, store, alice, bob)
	ctx := context.Background()
	run := lockedRun(t, svc)
	_, err := svc.AddAdjustment(ctx, finance, AdjustmentInput{RunID: run.ID, EmployeeID: "e1", Amount: d("-25"), Reason: "uniform"})
	require.NoError(t, err)

	result, err := gen.Generate(ctx, finance, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Empty(t, result.Skipped)

	require.Len(t, renderer.rendered, 2)
	first := renderer.rendered[0]
	assert.Equal(t, "EMP-001", first.EmployeeCode)
	assert.Equal(t, "Acme Staffing", first.CompanyName)
	assert.Equal(t, "Agency a1", first.AgencyName)
	assert.Equal(t, 960, first.Minutes.Regular)
	assert.Equal(t, 60, first.Minutes.Overtime)
	assert.True(t, first.Gross.Equal(d("1725")))
	assert.True(t, first.Net.Equal(d("1700")))

	docs, err := gen.ListDocuments(ctx, DocumentFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	doc, plain, err := gen.Open(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "payslip:EMP-001:1700.00", string(plain))
	sum := sha256.Sum256(plain)
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.ContentHash)
	assert.False(t, bytes.Equal(plain, blobs.objects[doc.StorageKey]))
}

func TestPayslipsAndSummaryAgreeAfterRateChange(t *testing.T) {
	svc, store := newTestService(t)
	gen, renderer, _ := newTestGenerator(t, svc, store, alice, bob)
	ctx := context.Background()
	run := lockedRun(t, svc)
	_, err := svc.AddAdjustment(ctx, finance, AdjustmentInput{RunID: run.ID, EmployeeID: "e2", Amount: d("-40"), Reason: "advance"})
	require.NoError(t, err)

	store.mu.Lock()
	store.rates = append(store.rates, RateRow{EmployeeID: "e1", HourlyRate: d("200"), EffectiveFrom: date("2026-03-10")})
	store.mu.Unlock()

	summary, err := svc.Summary(ctx, run.ID)
	require.NoError(t, err)
	_, err = gen.Generate(ctx, finance, run.ID)
	require.NoError(t, err)

	require.Len(t, renderer.rendered, len(summary.Summaries))
	codes := map[string]string{"e1": alice.Code, "e2": bob.Code}
	for i, s := range summary.Summaries {
		slip := renderer.rendered[i]
		assert.Equal(t, codes[s.EmployeeID], slip.EmployeeCode)
		assert.True(t, slip.Gross.Equal(s.GrossPay), "%s gross %s vs %s", s.EmployeeID, slip.Gross, s.GrossPay)
		assert.True(t, slip.Net.Equal(s.NetPay), "%s net %s vs %s", s.EmployeeID, slip.Net, s.NetPay)
	}
	assert.True(t, renderer.rendered[0].Gross.Equal(d("1725")))
	assert.True(t, renderer.rendered[1].Net.Equal(d("360")))
}

func TestGeneratePayslipsIsRepeatable(t *testing.T) {
	svc, store := newTestService(t)
	gen, _, _ := newTestGenerator(t, svc, store, alice, bob)
	ctx := context.Background()
	run := lockedRun(t, svc)

	_, err := gen.Generate(ctx, finance, run.ID)
	require.NoError(t, err)
	_, err = gen.Generate(ctx, finance, run.ID)
	require.NoError(t, err)

	docs, err := gen.ListDocuments(ctx, DocumentFilter{RunID: run.ID})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestGeneratePayslipsSkipsUnknownEmployees(t *testing.T) {
	svc, store := newTestService(t)
	gen, _, _ := newTestGenerator(t, svc, store, alice)
	run := lockedRun(t, svc)

	var hooked []string
	gen.OnSkip(func(_ context.Context, r Run, employeeID string, reason error) {
		assert.Equal(t, run.ID, r.ID)
		assert.ErrorIs(t, reason, apperr.NotFound)
		hooked = append(hooked, employeeID)
	})

	result, err := gen.Generate(context.Background(), finance, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, []string{"e2"}, result.Skipped)
	assert.Equal(t, []string{"e2"}, hooked)
}

func TestOpenDetectsTamperedContent(t *testing.T) {
	svc, store := newTestService(t)
	gen, _, blobs := newTestGenerator(t, svc, store, alice, bob)
	ctx := context.Background()
	run := lockedRun(t, svc)
	_, err := gen.Generate(ctx, finance, run.ID)
	require.NoError(t, err)

	docs, err := gen.ListDocuments(ctx, DocumentFilter{RunID: run.ID, EmployeeID: "e2"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	blobs.objects[docs[0].StorageKey] = []byte("garbage")

	_, _, err = gen.Open(ctx, docs[0].ID)
	assert.Error(t, err)
}

func TestPDFRendererProducesPDF(t *testing.T) {
	out, err := PDFRenderer{}.Render(PayslipData{
		CompanyName:  "Acme Staffing",
		PeriodStart:  date("2026-03-01"),
		PeriodEnd:    date("2026-03-15"),
		EmployeeCode: "EMP-001",
		EmployeeName: "Alice Reyes",
		Minutes:      MinuteTotals{Regular: 960, Overtime: 90},
		Gross:        d("1725"),
		Net:          d("1725"),
		IssuedAt:     date("2026-03-16"),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
