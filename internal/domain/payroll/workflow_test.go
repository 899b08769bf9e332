package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpay/internal/domain/apperr"
)

func actor(role string, caps ...string) Actor {
	return Actor{UserID: role + "-user", Role: role, Capabilities: caps}
}

func TestNextTransitionTable(t *testing.T) {
	cases := []struct {
		from, action, to, capability string
	}{
		{StatusDraft, ActionSnapshot, StatusDraft, CapOperator},
		{StatusDraft, ActionSubmit, StatusOperatorSubmitted, CapOperator},
		{StatusOperatorSubmitted, ActionApprove, StatusBillingApproved, CapBilling},
		{StatusBillingApproved, ActionApprove, StatusAgencyApproved, CapAgency},
		{StatusAgencyApproved, ActionApprove, StatusFinanceApproved, CapFinance},
		{StatusFinanceApproved, ActionLock, StatusLocked, CapFinance},
	}
	for _, tc := range cases {
		tr, err := NextTransition("run-1", tc.from, tc.action)
		require.NoError(t, err, "%s/%s", tc.from, tc.action)
		assert.Equal(t, tc.to, tr.To)
		assert.Equal(t, []string{tc.capability}, tr.Capabilities)
	}
}

func TestLockOnlyFromFinanceApproved(t *testing.T) {
	for _, status := range Statuses {
		_, err := NextTransition("run-1", status, ActionLock)
		if status == StatusFinanceApproved {
			assert.NoError(t, err)
			continue
		}
		var invalid *InvalidStatusTransitionError
		require.ErrorAs(t, err, &invalid, status)
		assert.Equal(t, status, invalid.Status)
		assert.ErrorIs(t, err, apperr.State)
	}
}

func TestLockedIsTerminal(t *testing.T) {
	for _, action := range []string{ActionSnapshot, ActionSubmit, ActionApprove, ActionLock} {
		_, err := NextTransition("run-1", StatusLocked, action)
		assert.ErrorIs(t, err, apperr.State, action)
	}
}

func TestAcknowledgeKeepsStatus(t *testing.T) {
	_, err := NextTransition("run-1", StatusDraft, ActionAcknowledge)
	assert.Error(t, err)

	for _, status := range Statuses[1:] {
		tr, err := NextTransition("run-1", status, ActionAcknowledge)
		require.NoError(t, err)
		assert.False(t, tr.ChangesStatus())
		assert.NoError(t, tr.Authorize("run-1", actor("agency", CapAgency)))
		assert.ErrorIs(t, tr.Authorize("run-1", actor("operator", CapOperator)), apperr.Forbidden)
	}
}

func TestAuthorizeRequiresCapability(t *testing.T) {
	tr, err := NextTransition("run-1", StatusBillingApproved, ActionApprove)
	require.NoError(t, err)

	err = tr.Authorize("run-1", actor("billing", CapBilling))
	var capErr *CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, []string{CapAgency}, capErr.Required)
	assert.ErrorIs(t, err, apperr.Forbidden)

	assert.NoError(t, tr.Authorize("run-1", actor("agency", CapAgency)))
	assert.ErrorIs(t, tr.Authorize("run-1", actor("admin")), apperr.Forbidden)
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t, []string{ActionSnapshot, ActionSubmit}, AllowedActions(StatusDraft, actor("operator", CapOperator)))
	assert.Equal(t, []string{ActionAcknowledge, ActionLock}, AllowedActions(StatusFinanceApproved, actor("finance", CapFinance)))
	assert.Empty(t, AllowedActions(StatusDraft, actor("finance", CapFinance)))
}
