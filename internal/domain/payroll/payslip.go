package payroll

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"workpay/internal/domain/apperr"
	"workpay/internal/domain/workforce"
)

const payslipContentType = "application/pdf"

type Directory interface {
	FindCompany(ctx context.Context, id string) (workforce.Company, error)
	FindEmployee(ctx context.Context, id string) (workforce.Employee, error)
	AgencyName(ctx context.Context, employee workforce.Employee) (string, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type Cipher interface {
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type Renderer interface {
	Render(data PayslipData) ([]byte, error)
}

// SkipHook is told about every employee left without a payslip.
type SkipHook func(ctx context.Context, run Run, employeeID string, reason error)

type MinuteTotals struct {
	Regular   int
	Overtime  int
	NightDiff int
	Holiday   int
	RestDay   int
}

func (m *MinuteTotals) add(p Payable) {
	m.Regular += p.RegularMinutes
	m.Overtime += p.OvertimeMinutes
	m.NightDiff += p.NightDiffMinutes
	m.Holiday += p.HolidayMinutes
	m.RestDay += p.RestDayMinutes
}

type PayslipData struct {
	CompanyName  string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	EmployeeCode string
	EmployeeName string
	AgencyName   string
	Minutes      MinuteTotals
	Gross        decimal.Decimal
	Adjustments  decimal.Decimal
	Net          decimal.Decimal
	IssuedAt     time.Time
}

type employeeTotals struct {
	employeeID string
	minutes    MinuteTotals
	gross      decimal.Decimal
}

type PayslipGenerator struct {
	store     StoreAPI
	directory Directory
	renderer  Renderer
	blobs     BlobStore
	cipher    Cipher
	onSkip    []SkipHook
}

func NewPayslipGenerator(store StoreAPI, directory Directory, renderer Renderer, blobs BlobStore, cipher Cipher) *PayslipGenerator {
	return &PayslipGenerator{store: store, directory: directory, renderer: renderer, blobs: blobs, cipher: cipher}
}

func (g *PayslipGenerator) OnSkip(hook SkipHook) {
	g.onSkip = append(g.onSkip, hook)
}

func payslipKey(runID, employeeID string) string {
	return fmt.Sprintf("payslips/%s/%s.pdf", runID, employeeID)
}

// Generate renders, encrypts and stores one payslip per employee with payable
// rows on a locked run. Regenerating replaces the previous document.
func (g *PayslipGenerator) Generate(ctx context.Context, actor Actor, runID string) (PayslipResult, error) {
	run, err := g.store.GetRun(ctx, runID)
	if err != nil {
		return PayslipResult{}, err
	}
	if run.Status != StatusLocked {
		return PayslipResult{}, &PayrollNotLockedError{RunID: run.ID, Status: run.Status}
	}
	payables, err := g.store.ListPayables(ctx, run.ID)
	if err != nil {
		return PayslipResult{}, err
	}
	if len(payables) == 0 {
		return PayslipResult{}, &NoSnapshotError{RunID: run.ID}
	}
	company, err := g.directory.FindCompany(ctx, run.CompanyID)
	if err != nil {
		return PayslipResult{}, fmt.Errorf("load company: %w", err)
	}
	adjustments, err := g.store.SumAdjustments(ctx, run.ID)
	if err != nil {
		return PayslipResult{}, err
	}

	issuedAt := run.UpdatedAt
	if run.LockedAt != nil {
		issuedAt = *run.LockedAt
	}

	result := PayslipResult{RunID: run.ID, Skipped: []string{}}
	for _, totals := range groupByEmployee(payables) {
		employee, err := g.directory.FindEmployee(ctx, totals.employeeID)
		if errors.Is(err, apperr.NotFound) {
			g.skip(ctx, run, totals.employeeID, err)
			result.Skipped = append(result.Skipped, totals.employeeID)
			continue
		}
		if err != nil {
			return PayslipResult{}, fmt.Errorf("load employee %s: %w", totals.employeeID, err)
		}
		agencyName, err := g.directory.AgencyName(ctx, employee)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return PayslipResult{}, fmt.Errorf("load agency for employee %s: %w", employee.ID, err)
		}

		adjustment := adjustments[employee.ID]
		data := PayslipData{
			CompanyName:  company.Name,
			PeriodStart:  run.PeriodStart,
			PeriodEnd:    run.PeriodEnd,
			EmployeeCode: employee.Code,
			EmployeeName: employee.FullName,
			AgencyName:   agencyName,
			Minutes:      totals.minutes,
			Gross:        totals.gross,
			Adjustments:  adjustment,
			Net:          totals.gross.Add(adjustment).Round(2),
			IssuedAt:     issuedAt,
		}
		if _, err := g.storePayslip(ctx, actor, run, employee.ID, data); err != nil {
			return PayslipResult{}, err
		}
		result.Count++
	}
	slog.Info("payslips generated", "run_id", run.ID, "count", result.Count, "skipped", len(result.Skipped))
	return result, nil
}

func (g *PayslipGenerator) storePayslip(ctx context.Context, actor Actor, run Run, employeeID string, data PayslipData) (Document, error) {
	rendered, err := g.renderer.Render(data)
	if err != nil {
		return Document{}, fmt.Errorf("render payslip for employee %s: %w", employeeID, err)
	}
	sum := sha256.Sum256(rendered)
	sealed, err := g.cipher.Encrypt(rendered)
	if err != nil {
		return Document{}, fmt.Errorf("encrypt payslip for employee %s: %w", employeeID, err)
	}
	key := payslipKey(run.ID, employeeID)
	if err := g.blobs.Put(ctx, key, sealed, payslipContentType); err != nil {
		return Document{}, fmt.Errorf("store payslip for employee %s: %w", employeeID, err)
	}
	return g.store.UpsertDocument(ctx, Document{
		Type:        DocumentTypePayslip,
		RunID:       run.ID,
		EmployeeID:  employeeID,
		StorageKey:  key,
		ContentHash: hex.EncodeToString(sum[:]),
		CreatedBy:   actor.UserID,
	})
}

func (g *PayslipGenerator) skip(ctx context.Context, run Run, employeeID string, reason error) {
	slog.Warn("payslip skipped", "run_id", run.ID, "employee_id", employeeID, "err", reason)
	for _, hook := range g.onSkip {
		hook(ctx, run, employeeID, reason)
	}
}

func groupByEmployee(payables []Payable) []employeeTotals {
	index := make(map[string]int)
	var out []employeeTotals
	for _, p := range payables {
		i, ok := index[p.EmployeeID]
		if !ok {
			i = len(out)
			index[p.EmployeeID] = i
			out = append(out, employeeTotals{employeeID: p.EmployeeID})
		}
		out[i].minutes.add(p)
		out[i].gross = out[i].gross.Add(p.PayrollAmount)
	}
	return out
}

func (g *PayslipGenerator) ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error) {
	if filter.Type == "" {
		filter.Type = DocumentTypePayslip
	}
	out, err := g.store.ListDocuments(ctx, filter)
	if out == nil && err == nil {
		out = []Document{}
	}
	return out, err
}

// Document returns the stored metadata of a document without reading its content.
func (g *PayslipGenerator) Document(ctx context.Context, documentID string) (Document, error) {
	return g.store.GetDocument(ctx, documentID)
}

// Read fetches and decrypts the content of doc and checks its content hash.
func (g *PayslipGenerator) Read(ctx context.Context, doc Document) ([]byte, error) {
	sealed, err := g.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", doc.ID, err)
	}
	plain, err := g.cipher.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt document %s: %w", doc.ID, err)
	}
	sum := sha256.Sum256(plain)
	if hex.EncodeToString(sum[:]) != doc.ContentHash {
		return nil, fmt.Errorf("document %s content hash mismatch", doc.ID)
	}
	return plain, nil
}

// Open loads a document record and its decrypted content.
func (g *PayslipGenerator) Open(ctx context.Context, documentID string) (Document, []byte, error) {
	doc, err := g.Document(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	plain, err := g.Read(ctx, doc)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, plain, nil
}
