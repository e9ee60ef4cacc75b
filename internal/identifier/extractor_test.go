package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/model"
	"github.com/wealthdesk/stmtparse/internal/normalize"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(config.Default().Identifiers)
	require.NoError(t, err)
	return e
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[model.IdentifierKind][]string
	}{
		{
			name: "pan in lowercase text is canonicalized",
			text: "my pan is abcde1234f, please verify",
			want: map[model.IdentifierKind][]string{
				model.KindPAN: {"ABCDE1234F"},
			},
		},
		{
			name: "duplicate pans collapse to one",
			text: "ABCDE1234F mentioned twice: abcde1234f",
			want: map[model.IdentifierKind][]string{
				model.KindPAN: {"ABCDE1234F"},
			},
		},
		{
			name: "di code both shapes",
			text: "accounts D1234567 and DIABC123",
			want: map[model.IdentifierKind][]string{
				model.KindDICode: {"D1234567", "DIABC123"},
			},
		},
		{
			name: "di false positive words skipped",
			text: "please download the dividend document by december",
			want: map[model.IdentifierKind][]string{},
		},
		{
			name: "aif folio ten digits starting high",
			text: "folio 5123456789 under my aif",
			want: map[model.IdentifierKind][]string{
				model.KindAIFFolio: {"5123456789"},
			},
		},
		{
			name: "account code eight digits",
			text: "account 12345678 statement",
			want: map[model.IdentifierKind][]string{
				model.KindAccountCode: {"12345678"},
			},
		},
		{
			name: "date shaped eight digits rejected as account",
			text: "statement as on 15032024 and 20240315",
			want: map[model.IdentifierKind][]string{},
		},
		{
			name: "folio is not also an account code",
			text: "folio 5123456789",
			want: map[model.IdentifierKind][]string{
				model.KindAIFFolio: {"5123456789"},
			},
		},
		{
			name: "mixed identifiers",
			text: "pan ABCDE1234F folio 9876543210 di D00XY123 acct 87654321",
			want: map[model.IdentifierKind][]string{
				model.KindPAN:         {"ABCDE1234F"},
				model.KindAIFFolio:    {"9876543210"},
				model.KindDICode:      {"D00XY123"},
				model.KindAccountCode: {"87654321"},
			},
		},
		{
			name: "no identifiers is not an error",
			text: "please send my statement",
			want: map[model.IdentifierKind][]string{},
		},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(model.NormalizedText(tt.text))
			for _, kind := range model.AllIdentifierKinds {
				want := tt.want[kind]
				if want == nil {
					want = []string{}
				}
				assert.Equal(t, want, got[kind], "kind %s", kind)
			}
		})
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := newTestExtractor(t)
	set := e.Extract(model.NormalizedText(""))
	assert.True(t, set.Empty())
	for _, kind := range model.AllIdentifierKinds {
		assert.NotNil(t, set[kind], "all kinds present even when empty")
	}
}

func TestExtractOrderOfFirstAppearance(t *testing.T) {
	e := newTestExtractor(t)
	set := e.Extract(normalize.Text("", "ZZZZZ9999Z first, then ABCDE1234F"))
	assert.Equal(t, []string{"ZZZZZ9999Z", "ABCDE1234F"}, set[model.KindPAN])
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name  string
		kind  model.IdentifierKind
		value string
		want  bool
	}{
		{"valid pan", model.KindPAN, "ABCDE1234F", true},
		{"lowercase pan accepted", model.KindPAN, "abcde1234f", true},
		{"short pan rejected", model.KindPAN, "ABCDE1234", false},
		{"pan with trailing junk rejected", model.KindPAN, "ABCDE1234FX", false},
		{"di false positive rejected", model.KindDICode, "DIVIDEND", false},
		{"valid di code", model.KindDICode, "D1234567", true},
		{"date shaped account rejected", model.KindAccountCode, "15032024", false},
		{"plain account accepted", model.KindAccountCode, "12345678", true},
		{"folio starting low rejected", model.KindAIFFolio, "4123456789", false},
		{"valid folio", model.KindAIFFolio, "5123456789", true},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ValidateValue(tt.kind, tt.value))
		})
	}
}

func TestNewExtractorBadPattern(t *testing.T) {
	cfg := config.Default().Identifiers
	cfg.Patterns["pan"] = `[`
	_, err := NewExtractor(cfg)
	assert.Error(t, err)
}
