package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "version"},
		{"overdue"},
		{"policy", "show"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestOverdueCmd_RejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"overdue", "extra"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	require.Error(t, root.Execute())
}

func sampleReport() *appsvcs.OverdueReport {
	asOf := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	branch := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	return &appsvcs.OverdueReport{
		AsOf: asOf,
		Loans: []*models.LoanView{
			{
				Loan:         models.Loan{ID: uuid.New(), TenantID: branch, DueDate: asOf.AddDate(0, 0, -5)},
				ItemTitle:    "Dune",
				MemberNumber: "M-001",
			},
			{
				Loan:         models.Loan{ID: uuid.New(), DueDate: asOf.AddDate(0, 0, -1)},
				ItemTitle:    "Emma",
				MemberNumber: "M-002",
			},
		},
	}
}

func TestWriteOverdue_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOverdue(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "as of 2025-03-20: 2 overdue")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[3], "Dune")
	assert.Contains(t, lines[3], "2025-03-15")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[3]), "5"))
	assert.Contains(t, lines[4], "shared")
}

func TestWriteOverdue_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOverdueJSON(&buf, sampleReport()))

	var got struct {
		AsOf  string        `json:"as_of"`
		Loans []overdueLine `json:"loans"`
	}
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2025-03-20", got.AsOf)
	require.Len(t, got.Loans, 2)
	assert.Equal(t, 5, got.Loans[0].DaysOverdue)
	assert.Equal(t, "shared", got.Loans[1].Tenant)
	assert.Equal(t, "M-002", got.Loans[1].Member)
}
