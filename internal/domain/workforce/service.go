package workforce

import "context"

// Service is the read side of the company, agency and employee directory.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) FindCompany(ctx context.Context, id string) (Company, error) {
	return s.store.FindCompany(ctx, id)
}

func (s *Service) FindAgency(ctx context.Context, id string) (Agency, error) {
	return s.store.FindAgency(ctx, id)
}

func (s *Service) FindEmployee(ctx context.Context, id string) (Employee, error) {
	return s.store.FindEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	out, err := s.store.ListEmployees(ctx, filter)
	if out == nil && err == nil {
		out = []Employee{}
	}
	return out, err
}

// AgencyName returns the employee's agency name, or "" when unassigned.
func (s *Service) AgencyName(ctx context.Context, employee Employee) (string, error) {
	if employee.AgencyID == "" {
		return "", nil
	}
	agency, err := s.store.FindAgency(ctx, employee.AgencyID)
	if err != nil {
		return "", err
	}
	return agency.Name, nil
}
