package config

import "time"

// Default returns the built-in configuration: the standard identifier
// patterns and statement keyword dictionaries, with thresholds tuned for the
// production back office. Tests and the CLI use it as the baseline that file
// configuration overrides.
func Default() *Config {
	return &Config{
		Identifiers: Identifiers{
			Patterns: map[string]string{
				// 5 letters, 4 digits, 1 letter.
				"pan": `\b[A-Z]{5}[0-9]{4}[A-Z]\b`,
				// 10 digits starting 5-9.
				"aif_folio": `\b[5-9][0-9]{9}\b`,
				// D + 7 alphanumerics, or DI + 6 alphanumerics.
				"di_code": `\bD[0-9A-Z]{7}\b|\bDI[0-9A-Z]{6}\b`,
				// Exactly 8 digits; date-shaped values are filtered out.
				"account_code": `\b[0-9]{8}\b`,
			},
			DIFalsePositives: []string{
				"DECEMBER", "DIVIDEND", "DOCUMENT", "DELIVERY", "DIRECTOR",
				"DETAILED", "DOWNLOAD", "DOMESTIC", "DURATION", "DISCOUNT",
				"DIRECTLY", "DISCLOSE", "DEADLINE", "DATABASE",
			},
		},
		Keywords: Keywords{
			MinScore:        0.5,
			SecondaryFactor: 0.7,
			Categories: map[string]map[string]KeywordGroup{
				"PMS": {
					"Portfolio_Appraisal": {
						Weight: 0.95,
						Primary: []string{
							"portfolio appraisal", "portfolio statement",
							"appraisal report", "portfolio summary",
						},
						Secondary: []string{
							"portfolio", "holdings", "valuation",
						},
					},
					"Capital_Gain": {
						Weight: 0.9,
						Primary: []string{
							"capital gain", "capital gains",
						},
						Secondary: []string{
							"realised gains", "tax statement", "gains report",
						},
					},
					"Transaction_Statement": {
						Weight: 0.9,
						Primary: []string{
							"transaction statement", "statement of transactions",
						},
						Secondary: []string{
							"transaction history", "ledger",
						},
					},
					"Fee_Statement": {
						Weight: 0.85,
						Primary: []string{
							"fee statement", "fees statement",
						},
						Secondary: []string{
							"management fee", "charges summary",
						},
					},
				},
				"AIF": {
					"AIF_Statement": {
						Weight: 0.95,
						Primary: []string{
							"aif", "alternative investment fund", "aif statement",
						},
						Secondary: []string{
							"fund statement", "unit statement", "drawdown",
						},
					},
				},
			},
			Blanket: Blanket{
				AllStatements: []string{
					"all statements", "all the statements", "every statement",
					"complete set of statements",
				},
				AllPMS: []string{
					"all pms statements", "all pms reports", "entire pms",
				},
				AllAIF: []string{
					"all aif statements", "all aif reports",
				},
			},
		},
		Confidence: Confidence{
			Weights: Weights{
				StatementType: 0.4,
				DateParsing:   0.3,
				Identifiers:   0.3,
			},
			MLBlendWeight: 0.3,
		},
		Thresholds: Thresholds{
			High:   80,
			Medium: 60,
		},
		Classifier: Classifier{
			Enabled:    false,
			Endpoint:   "",
			Timeout:    300 * time.Millisecond,
			MaxRetries: 2,
		},
		Merge: Merge{
			Margin: 0.2,
		},
		Server: Server{
			Addr: ":5000",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
