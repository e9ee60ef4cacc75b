package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/stmtparse/internal/audit"
	"github.com/wealthdesk/stmtparse/internal/common"
	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/daterange"
	"github.com/wealthdesk/stmtparse/internal/ml"
	"github.com/wealthdesk/stmtparse/internal/model"
)

var engineNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

// captureRecorder collects outcomes in memory for assertions.
type captureRecorder struct {
	outcomes []audit.Outcome
	err      error
}

func (r *captureRecorder) Record(_ context.Context, o audit.Outcome) error {
	if r.err != nil {
		return r.err
	}
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *captureRecorder) Close() error { return nil }

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return engineNow })}, opts...)
	e, err := New(config.Default(), opts...)
	require.NoError(t, err)
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Confidence.Weights.Identifiers = 0.9
	_, err := New(cfg)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestParseEmptyInput(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Parse(context.Background(), "   ", "\n\t")
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestParseHighConfidenceSkipsClassifier(t *testing.T) {
	stub := &ml.Stub{Prediction: &ml.Prediction{Confidence: 99}}
	e := newTestEngine(t, WithClassifier(stub))

	res, err := e.Parse(context.Background(),
		"Portfolio Statement Request",
		"Please share my portfolio statement as on 15-Mar-2024. PAN ABCDE1234F, code D1234567.")
	require.NoError(t, err)

	assert.Equal(t, 0, stub.Calls(), "classifier must not run above the high threshold")
	assert.Equal(t, model.MethodRuleBased, res.Method)
	assert.Equal(t, string(StateRuleSufficient), res.Metadata.DecisionState)
	assert.GreaterOrEqual(t, res.Confidence, 80.0)

	assert.Equal(t, []string{"ABCDE1234F"}, res.Identifiers[model.KindPAN])
	assert.Equal(t, []string{"D1234567"}, res.Identifiers[model.KindDICode])
	assert.Equal(t, []string{"Portfolio_Appraisal"}, res.Selection.Types("PMS"))

	d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d, res.DateRange.From)
	assert.Equal(t, d, res.DateRange.To)
	assert.Equal(t, "email", res.Metadata.DateSource)
	assert.True(t, res.Metadata.HasIdentifiers)
	assert.NotEmpty(t, res.RequestID)
}

func TestParseAmbiguousFallsBackToClassifier(t *testing.T) {
	stub := &ml.Stub{Prediction: &ml.Prediction{
		Confidence: 70,
		Labels:     []ml.Label{{Category: "PMS", Type: "Capital_Gain", Weight: 0.8}},
	}}
	e := newTestEngine(t, WithClassifier(stub))

	res, err := e.Parse(context.Background(), "", "please send statement")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, model.MethodMLFallback, res.Method)
	assert.Equal(t, string(StateMLFallback), res.Metadata.DecisionState)
	assert.Equal(t, []string{"Capital_Gain"}, res.Selection.Types("PMS"))
	assert.Equal(t, "default", res.Metadata.DateSource)
	assert.False(t, res.Metadata.MLSkipped)
}

func TestParseMediumConfidenceEnhances(t *testing.T) {
	stub := &ml.Stub{Prediction: &ml.Prediction{
		Confidence: 90,
		Labels:     []ml.Label{{Category: "PMS", Type: "Portfolio_Appraisal", Weight: 0.9}},
	}}
	e := newTestEngine(t, WithClassifier(stub))

	// Strong statement match, relative date, no identifiers: lands between
	// the medium and high thresholds.
	res, err := e.Parse(context.Background(), "", "portfolio appraisal for last 3 months")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, model.MethodMLEnhanced, res.Method)
	assert.Equal(t, string(StateMLEnhance), res.Metadata.DecisionState)
	assert.Equal(t, []string{"Portfolio_Appraisal"}, res.Selection.Types("PMS"))
	assert.InDelta(t, 78.1, res.Confidence, 0.01)
}

func TestParseDegradesWhenClassifierFails(t *testing.T) {
	stub := &ml.Stub{Err: errors.New("model host down")}
	e := newTestEngine(t, WithClassifier(stub))

	res, err := e.Parse(context.Background(), "", "please send statement")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, model.MethodRuleBased, res.Method)
	assert.Equal(t, string(StateRuleSufficient), res.Metadata.DecisionState)
	assert.True(t, res.Metadata.MLSkipped)
	assert.Contains(t, res.Metadata.MLSkipReason, "model host down")
}

func TestParseDegradesWithoutClassifier(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Parse(context.Background(), "", "please send statement")
	require.NoError(t, err)

	assert.Equal(t, model.MethodRuleBased, res.Method)
	assert.True(t, res.Metadata.MLSkipped)
}

func TestParseClassifierTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Timeout = 20 * time.Millisecond

	stub := &ml.Stub{Delay: time.Second, Prediction: &ml.Prediction{Confidence: 70}}
	e, err := New(cfg,
		WithClock(func() time.Time { return engineNow }),
		WithClassifier(stub))
	require.NoError(t, err)

	res, err := e.Parse(context.Background(), "", "please send statement")
	require.NoError(t, err)

	assert.True(t, res.Metadata.MLSkipped)
	assert.Equal(t, model.MethodRuleBased, res.Method)
}

func TestParseAIFRequiresFolioOrPAN(t *testing.T) {
	e := newTestEngine(t)

	t.Run("folio keeps the AIF selection", func(t *testing.T) {
		res, err := e.Parse(context.Background(), "", "aif statement for folio 5123456789")
		require.NoError(t, err)
		assert.Equal(t, []string{"AIF_Statement"}, res.Selection.Types("AIF"))
	})

	t.Run("pan keeps the AIF selection", func(t *testing.T) {
		res, err := e.Parse(context.Background(), "", "aif statement for pan ABCDE1234F")
		require.NoError(t, err)
		assert.Equal(t, []string{"AIF_Statement"}, res.Selection.Types("AIF"))
	})

	t.Run("no identifiers drops the AIF selection", func(t *testing.T) {
		res, err := e.Parse(context.Background(), "", "aif statement please")
		require.NoError(t, err)
		assert.False(t, res.Selection.Has("AIF"))
	})

	t.Run("di code alone drops AIF but boosts confidence", func(t *testing.T) {
		withDI, err := e.Parse(context.Background(), "", "aif statement for D1234567")
		require.NoError(t, err)
		assert.False(t, withDI.Selection.Has("AIF"))

		without, err := e.Parse(context.Background(), "", "aif statement please")
		require.NoError(t, err)
		assert.Greater(t, withDI.Confidence, without.Confidence)
	})
}

func TestParseRecordsOutcome(t *testing.T) {
	rec := &captureRecorder{}
	e := newTestEngine(t, WithRecorder(rec))

	res, err := e.Parse(context.Background(), "Portfolio Statement",
		"portfolio statement as on 15-mar-2024 pan ABCDE1234F code D1234567")
	require.NoError(t, err)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, res.RequestID, rec.outcomes[0].RequestID)
	assert.Equal(t, res.Confidence, rec.outcomes[0].Confidence)
}

func TestParseRecorderFailureIsNonFatal(t *testing.T) {
	rec := &captureRecorder{err: errors.New("disk full")}
	e := newTestEngine(t, WithRecorder(rec))

	_, err := e.Parse(context.Background(), "x", "portfolio statement")
	assert.NoError(t, err)
}

func TestParseDefaultDateRange(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Parse(context.Background(), "", "portfolio statement please")
	require.NoError(t, err)

	assert.Equal(t, daterange.Epoch, res.DateRange.From)
	assert.Equal(t, engineNow.Truncate(24*time.Hour).AddDate(0, 0, -1), res.DateRange.To)
	assert.Equal(t, "default", res.Metadata.DateSource)
}
