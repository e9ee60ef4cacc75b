package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/stmtparse/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func sampleOutcome(id string) Outcome {
	return Outcome{
		ProcessedAt:     time.Now().UTC(),
		RequestID:       id,
		Method:          model.MethodRuleBased,
		DecisionState:   "RULE_SUFFICIENT",
		DateProvenance:  model.ProvenanceExplicitSingle,
		Duration:        12 * time.Millisecond,
		Confidence:      89.5,
		CategoryCount:   1,
		TypeCount:       1,
		IdentifierCount: 2,
	}
}

func TestSQLiteRecorderRecordAndCount(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, sampleOutcome("req-1")))
	require.NoError(t, r.Record(ctx, sampleOutcome("req-2")))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteRecorderPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	r1, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r1.Record(ctx, sampleOutcome("req-1")))
	require.NoError(t, r1.Close())

	r2, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer func() { _ = r2.Close() }()

	n, err := r2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewSQLiteRecorderEmptyPath(t *testing.T) {
	_, err := NewSQLiteRecorder("")
	assert.Error(t, err)
}

func TestFromResult(t *testing.T) {
	ids := model.NewIdentifierSet()
	ids.Add(model.KindPAN, "ABCDE1234F")
	ids.Add(model.KindDICode, "D1234567")

	sel := model.NewStatementSelection()
	sel.Set("PMS", "Portfolio_Appraisal", 0.95)
	sel.Set("PMS", "Capital_Gain", 0.9)

	d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	r := &model.ParseResult{
		RequestID:   "req-9",
		Identifiers: ids,
		DateRange:   model.NewDateRange(d, d, model.ProvenanceExplicitSingle),
		Selection:   sel,
		Confidence:  89.5,
		Method:      model.MethodRuleBased,
		Metadata: model.Metadata{
			ProcessedAt:   time.Now().UTC(),
			Duration:      5 * time.Millisecond,
			DecisionState: "RULE_SUFFICIENT",
		},
	}

	o := FromResult(r)
	assert.Equal(t, "req-9", o.RequestID)
	assert.Equal(t, 1, o.CategoryCount)
	assert.Equal(t, 2, o.TypeCount)
	assert.Equal(t, 2, o.IdentifierCount)
	assert.Equal(t, model.ProvenanceExplicitSingle, o.DateProvenance)
	assert.Equal(t, 89.5, o.Confidence)
}
