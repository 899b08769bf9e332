package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type memStore struct {
	mu sync.Mutex

	companyOf    map[string]string
	attendance   []AttendanceDay
	rates        []RateRow
	runs         map[string]Run
	snapshots    map[string]bool
	payables     map[string][]Payable
	acks         []Acknowledgment
	approvals    []Approval
	adjustments  []Adjustment
	documents    []Document
	seq          int
	failDocument error
}

func newMemStore() *memStore {
	return &memStore{
		companyOf: map[string]string{},
		runs:      map[string]Run{},
		snapshots: map[string]bool{},
		payables:  map[string][]Payable{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addAttendance(companyID string, days ...AttendanceDay) {
	for _, d := range days {
		m.companyOf[d.EmployeeID] = companyID
	}
	m.attendance = append(m.attendance, days...)
}

func (m *memStore) findAttendance(companyID string, start, end time.Time) []AttendanceDay {
	var out []AttendanceDay
	for _, d := range m.attendance {
		if m.companyOf[d.EmployeeID] != companyID || d.WorkDate.Before(start) || d.WorkDate.After(end) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out
}

func (m *memStore) FindAttendance(_ context.Context, companyID string, start, end time.Time) ([]AttendanceDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findAttendance(companyID, start, end), nil
}

func (m *memStore) FindRatesOverlapping(_ context.Context, start, end time.Time) ([]RateRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RateRow
	for _, r := range m.rates {
		if r.Window().Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) CreateRun(_ context.Context, run Run) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = m.nextID("run")
	run.CreatedAt = time.Now()
	run.UpdatedAt = run.CreatedAt
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return Run{}, runNotFound(runID)
	}
	return run, nil
}

func (m *memStore) ListRuns(_ context.Context, filter RunFilter) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Run
	for _, run := range m.runs {
		if (filter.CompanyID == "" || run.CompanyID == filter.CompanyID) && (filter.Status == "" || run.Status == filter.Status) {
			out = append(out, run)
		}
	}
	return out, nil
}

func (m *memStore) FindLockedRunsOverlapping(_ context.Context, companyID string, start, end time.Time) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Run
	for _, run := range m.runs {
		if run.CompanyID == companyID && run.Status == StatusLocked && !run.PeriodStart.After(end) && !run.PeriodEnd.Before(start) {
			out = append(out, run)
		}
	}
	return out, nil
}

func (m *memStore) HasSnapshot(_ context.Context, runID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[runID], nil
}

func (m *memStore) Freeze(_ context.Context, runID, _ string, price FreezeFunc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return 0, runNotFound(runID)
	}
	if run.Status != StatusDraft {
		return 0, &InvalidStatusTransitionError{RunID: runID, Status: run.Status, Action: ActionSnapshot}
	}
	if m.snapshots[runID] {
		return 0, &SnapshotAlreadyExistsError{RunID: runID}
	}
	payables, err := price(run, m.findAttendance(run.CompanyID, run.PeriodStart, run.PeriodEnd))
	if err != nil {
		return 0, err
	}
	m.snapshots[runID] = true
	m.payables[runID] = payables
	return len(payables), nil
}

func (m *memStore) ListPayables(_ context.Context, runID string) ([]Payable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payable(nil), m.payables[runID]...), nil
}

func (m *memStore) HasPayables(_ context.Context, runID, employeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payables[runID] {
		if p.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) TransitionRun(_ context.Context, approval Approval) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[approval.RunID]
	if !ok {
		return Run{}, runNotFound(approval.RunID)
	}
	if run.Status != approval.FromStatus {
		return Run{}, &InvalidStatusTransitionError{RunID: run.ID, Status: run.Status, Action: approval.Action}
	}
	run.Status = approval.ToStatus
	run.UpdatedAt = time.Now()
	if run.Status == StatusLocked {
		lockedAt := run.UpdatedAt
		run.LockedAt = &lockedAt
	}
	m.runs[run.ID] = run
	approval.ID = m.nextID("approval")
	m.approvals = append(m.approvals, approval)
	return run, nil
}

func (m *memStore) InsertAcknowledgment(_ context.Context, ack Acknowledgment) (Acknowledgment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ack.ID = m.nextID("ack")
	m.acks = append(m.acks, ack)
	return ack, nil
}

func (m *memStore) ListAcknowledgments(_ context.Context, runID string) ([]Acknowledgment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Acknowledgment
	for _, a := range m.acks {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListApprovals(_ context.Context, runID string) ([]Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Approval
	for _, a := range m.approvals {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) InsertAdjustment(_ context.Context, adj Adjustment) (Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	adj.ID = m.nextID("adj")
	m.adjustments = append(m.adjustments, adj)
	return adj, nil
}

func (m *memStore) ListAdjustments(_ context.Context, runID string) ([]Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Adjustment
	for _, a := range m.adjustments {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) SumAdjustments(_ context.Context, runID string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for _, a := range m.adjustments {
		if a.RunID == runID {
			out[a.EmployeeID] = out[a.EmployeeID].Add(a.Amount)
		}
	}
	return out, nil
}

func (m *memStore) UpsertDocument(_ context.Context, doc Document) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDocument != nil {
		return Document{}, m.failDocument
	}
	for i, existing := range m.documents {
		if existing.Type == doc.Type && existing.RunID == doc.RunID && existing.EmployeeID == doc.EmployeeID {
			doc.ID = existing.ID
			m.documents[i] = doc
			return doc, nil
		}
	}
	doc.ID = m.nextID("doc")
	m.documents = append(m.documents, doc)
	return doc, nil
}

func (m *memStore) ListDocuments(_ context.Context, filter DocumentFilter) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Document
	for _, d := range m.documents {
		if (filter.Type == "" || d.Type == filter.Type) && (filter.RunID == "" || d.RunID == filter.RunID) && (filter.EmployeeID == "" || d.EmployeeID == filter.EmployeeID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) GetDocument(_ context.Context, documentID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.ID == documentID {
			return d, nil
		}
	}
	return Document{}, &NotFoundError{Entity: "document", ID: documentID}
}
