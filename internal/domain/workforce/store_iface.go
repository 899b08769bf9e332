package workforce

import "context"

type StoreAPI interface {
	FindCompany(ctx context.Context, id string) (Company, error)
	FindAgency(ctx context.Context, id string) (Agency, error)
	FindEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
}
