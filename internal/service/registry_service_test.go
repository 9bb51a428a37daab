package service

import (
	"context"
	"testing"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_DuplicateCreditID(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t, defaultGovernance(), nil)
	registry := NewRegistryService(store, zerolog.Nop())

	req := ports.IssueRequest{CreditID: "C1", ProjectID: "P1", Amount: 100, Vintage: 2023, Standard: "VCS"}
	_, err := registry.Issue(ctx, txAt("developer", 1), req)
	require.NoError(t, err)

	_, err = registry.Issue(ctx, txAt("developer", 2), req)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestIssue_Validation(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t, defaultGovernance(), nil)
	registry := NewRegistryService(store, zerolog.Nop())

	cases := []struct {
		name string
		req  ports.IssueRequest
	}{
		{"missing credit id", ports.IssueRequest{ProjectID: "P1", Amount: 10, Vintage: 2023, Standard: "VCS"}},
		{"zero amount", ports.IssueRequest{CreditID: "C1", ProjectID: "P1", Amount: 0, Vintage: 2023, Standard: "VCS"}},
		{"negative amount", ports.IssueRequest{CreditID: "C1", ProjectID: "P1", Amount: -5, Vintage: 2023, Standard: "VCS"}},
		{"missing vintage", ports.IssueRequest{CreditID: "C1", ProjectID: "P1", Amount: 10, Standard: "VCS"}},
		{"missing standard", ports.IssueRequest{CreditID: "C1", ProjectID: "P1", Amount: 10, Vintage: 2023}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.Issue(ctx, txAt("developer", 1), tc.req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestIssue_TracksProjectTotals(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t, defaultGovernance(), nil)
	registry := NewRegistryService(store, zerolog.Nop())

	_, err := registry.RegisterProject(ctx, txAt("admin", 1), ports.RegisterProjectRequest{
		ProjectID: "P1", Name: "Mangrove Restoration",
	})
	require.NoError(t, err)

	_, err = registry.Issue(ctx, txAt("developer", 2), ports.IssueRequest{
		CreditID: "C1", ProjectID: "P1", Amount: 100, Vintage: 2023, Standard: "VCS",
	})
	require.NoError(t, err)
	_, err = registry.Issue(ctx, txAt("developer", 3), ports.IssueRequest{
		CreditID: "C2", ProjectID: "P1", Amount: 40, Vintage: 2024, Standard: "VCS",
	})
	require.NoError(t, err)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck
	project, err := tx.Projects().Get("P1")
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, int64(140), project.TotalIssued)
	assert.Equal(t, int64(2), project.CreditCount)
}

func TestRegisterProject_AdminOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t, defaultGovernance(), nil)
	registry := NewRegistryService(store, zerolog.Nop())

	_, err := registry.RegisterProject(ctx, txAt("developer", 1), ports.RegisterProjectRequest{
		ProjectID: "P1", Name: "Mangrove Restoration",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = registry.RegisterProject(ctx, txAt("admin", 2), ports.RegisterProjectRequest{
		ProjectID: "P1", Name: "Mangrove Restoration",
	})
	require.NoError(t, err)

	_, err = registry.RegisterProject(ctx, txAt("admin", 3), ports.RegisterProjectRequest{
		ProjectID: "P1", Name: "Mangrove Restoration",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestIssue_HistoryRecordsIssuance(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t, defaultGovernance(), nil)
	registry := NewRegistryService(store, zerolog.Nop())

	credit, err := registry.Issue(ctx, txAt("developer", 1), ports.IssueRequest{
		CreditID: "C1", ProjectID: "P1", Amount: 100, Vintage: 2023, Standard: "VCS",
		Metadata: domain.CreditMetadata{Country: "ID", ProjectType: "blue_carbon"},
	})
	require.NoError(t, err)

	require.Len(t, credit.History, 1)
	assert.Equal(t, "issuance", credit.History[0].Action)
	assert.Equal(t, "developer", credit.History[0].Actor)
	assert.Equal(t, testBaseTime+1, credit.History[0].Time)
}
