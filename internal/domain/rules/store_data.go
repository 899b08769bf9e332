package rules

import (
	"context"
	"time"
)

// ListRuleSets returns the company's rule sets that start on or before the
// given date, oldest first. Selection happens in Resolver.
func (s *Store) ListRuleSets(ctx context.Context, companyID string, onOrBefore time.Time) ([]RuleSetRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, effective_from, effective_to
    FROM rule_sets
    WHERE company_id = $1 AND effective_from <= $2
    ORDER BY effective_from, created_at
  `, companyID, onOrBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RuleSetRow
	for rows.Next() {
		var row RuleSetRow
		if err := rows.Scan(&row.ID, &row.CompanyID, &row.EffectiveFrom, &row.EffectiveTo); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) FindPayRules(ctx context.Context, ruleSetID string) ([]PayRule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT rule_key, rule_value
    FROM pay_rules
    WHERE rule_set_id = $1
    ORDER BY rule_key
  `, ruleSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayRule
	for rows.Next() {
		var rule PayRule
		if err := rows.Scan(&rule.Key, &rule.Value); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *Store) CreateRuleSet(ctx context.Context, companyID string, effectiveFrom time.Time, effectiveTo *time.Time, payRules []PayRule) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO rule_sets (company_id, effective_from, effective_to)
    VALUES ($1,$2,$3)
    RETURNING id
  `, companyID, effectiveFrom, effectiveTo).Scan(&id); err != nil {
		return "", err
	}
	for _, rule := range payRules {
		if _, err := s.DB.Exec(ctx, `
      INSERT INTO pay_rules (rule_set_id, rule_key, rule_value)
      VALUES ($1,$2,$3)
      ON CONFLICT (rule_set_id, rule_key) DO UPDATE SET rule_value = EXCLUDED.rule_value
    `, id, rule.Key, rule.Value); err != nil {
			return "", err
		}
	}
	return id, nil
}
