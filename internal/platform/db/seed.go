package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"workpay/internal/domain/auth"
	"workpay/internal/domain/rules"
	"workpay/internal/domain/workforce"
	"workpay/internal/platform/querier"
)

// SeedFile is the YAML fixture loaded when RUN_SEED is set.
type SeedFile struct {
	Companies []SeedCompany  `yaml:"companies"`
	Agencies  []SeedAgency   `yaml:"agencies"`
	Employees []SeedEmployee `yaml:"employees"`
	Users     []SeedUser     `yaml:"users"`
}

type SeedCompany struct {
	Name     string        `yaml:"name"`
	RuleSets []SeedRuleSet `yaml:"rule_sets"`
}

type SeedRuleSet struct {
	EffectiveFrom string            `yaml:"effective_from"`
	EffectiveTo   string            `yaml:"effective_to"`
	Rules         map[string]string `yaml:"rules"`
}

type SeedAgency struct {
	Name string `yaml:"name"`
}

type SeedEmployee struct {
	Code     string     `yaml:"code"`
	FullName string     `yaml:"full_name"`
	Company  string     `yaml:"company"`
	Agency   string     `yaml:"agency"`
	Rates    []SeedRate `yaml:"rates"`
}

type SeedRate struct {
	HourlyRate          string `yaml:"hourly_rate"`
	OvertimeMultiplier  string `yaml:"ot_multiplier"`
	NightDiffMultiplier string `yaml:"night_diff_multiplier"`
	HolidayMultiplier   string `yaml:"holiday_multiplier"`
	RestDayMultiplier   string `yaml:"rest_day_multiplier"`
	EffectiveFrom       string `yaml:"effective_from"`
	EffectiveTo         string `yaml:"effective_to"`
}

type SeedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Company  string `yaml:"company"`
	Agency   string `yaml:"agency"`
	Employee string `yaml:"employee"`
}

func ParseSeed(data []byte) (SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, user := range seed.Users {
		if !auth.ValidRole(user.Role) {
			return SeedFile{}, fmt.Errorf("seed user %s has unknown role %q", user.Email, user.Role)
		}
	}
	return seed, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Seed loads path and upserts its contents. Rule sets and rates are only
// inserted when no row with the same effective_from exists.
func Seed(ctx context.Context, db querier.Querier, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return err
	}

	directory := workforce.NewStore(db)
	ruleStore := rules.NewStore(db)
	users := auth.NewStore(db)

	companies := map[string]string{}
	for _, c := range seed.Companies {
		id, err := directory.UpsertCompany(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("seed company %s: %w", c.Name, err)
		}
		companies[c.Name] = id
		for _, rs := range c.RuleSets {
			if err := seedRuleSet(ctx, db, ruleStore, id, rs); err != nil {
				return fmt.Errorf("seed rule set for %s: %w", c.Name, err)
			}
		}
	}

	agencies := map[string]string{}
	for _, a := range seed.Agencies {
		id, err := directory.UpsertAgency(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("seed agency %s: %w", a.Name, err)
		}
		agencies[a.Name] = id
	}

	employees := map[string]string{}
	for _, e := range seed.Employees {
		companyID, ok := companies[e.Company]
		if !ok {
			return fmt.Errorf("seed employee %s: unknown company %q", e.Code, e.Company)
		}
		id, err := directory.UpsertEmployee(ctx, workforce.Employee{Code: e.Code, FullName: e.FullName, CompanyID: companyID, AgencyID: agencies[e.Agency]})
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Code, err)
		}
		employees[e.Code] = id
		for _, r := range e.Rates {
			if err := seedRate(ctx, db, directory, id, r); err != nil {
				return fmt.Errorf("seed rate for %s: %w", e.Code, err)
			}
		}
	}

	for _, u := range seed.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return err
		}
		if err := users.UpsertUser(ctx, auth.AuthUser{
			Email:        u.Email,
			PasswordHash: hash,
			Role:         u.Role,
			CompanyID:    companies[u.Company],
			AgencyID:     agencies[u.Agency],
			EmployeeID:   employees[u.Employee],
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}

func seedRuleSet(ctx context.Context, db querier.Querier, store *rules.Store, companyID string, rs SeedRuleSet) error {
	from, err := parseDate(rs.EffectiveFrom)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(rs.EffectiveTo)
	if err != nil {
		return err
	}
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rule_sets WHERE company_id = $1 AND effective_from = $2)`, companyID, from).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	payRules := make([]rules.PayRule, 0, len(rs.Rules))
	for key, value := range rs.Rules {
		payRules = append(payRules, rules.PayRule{Key: key, Value: value})
	}
	_, err = store.CreateRuleSet(ctx, companyID, from, to, payRules)
	return err
}

func seedRate(ctx context.Context, db querier.Querier, store *workforce.Store, employeeID string, r SeedRate) error {
	from, err := parseDate(r.EffectiveFrom)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(r.EffectiveTo)
	if err != nil {
		return err
	}
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employee_rate_history WHERE employee_id = $1 AND effective_from = $2)`, employeeID, from).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	return store.AddRate(ctx, workforce.RateInput{
		EmployeeID:          employeeID,
		HourlyRate:          r.HourlyRate,
		OvertimeMultiplier:  r.OvertimeMultiplier,
		NightDiffMultiplier: r.NightDiffMultiplier,
		HolidayMultiplier:   r.HolidayMultiplier,
		RestDayMultiplier:   r.RestDayMultiplier,
		EffectiveFrom:       from,
		EffectiveTo:         to,
	})
}
