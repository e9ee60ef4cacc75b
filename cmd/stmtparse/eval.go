package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wealthdesk/stmtparse/internal/engine"
)

// evalCase is one labeled example in the evaluation corpus.
type evalCase struct {
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
	ExpectCategories []string `json:"expect_categories"`
	ExpectTypes      []string `json:"expect_types"`
	ExpectMethod     string   `json:"expect_method,omitempty"`
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate parsing accuracy against a labeled JSONL corpus",
		Long: `Runs every case in a JSONL corpus through the pipeline and reports
per-field accuracy. Each line holds one case:

  {"subject": "...", "body": "...", "expect_categories": ["PMS"], "expect_types": ["Portfolio_Appraisal"]}`,
		RunE: runEval,
	}
	cmd.Flags().String("cases", "", "path to the JSONL corpus (required)")
	_ = cmd.MarkFlagRequired("cases")
	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	casesPath, _ := cmd.Flags().GetString("cases")
	cases, err := loadCases(casesPath)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases found in %s", casesPath)
	}

	bar := progressbar.NewOptions(len(cases),
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var categoryHits, typeHits, methodHits, methodChecked, failures int
	var confidenceSum float64

	for _, tc := range cases {
		result, parseErr := eng.Parse(cmd.Context(), tc.Subject, tc.Body)
		_ = bar.Add(1)
		if parseErr != nil {
			failures++
			continue
		}

		confidenceSum += result.Confidence
		if sameSet(result.Selection.Categories(), tc.ExpectCategories) {
			categoryHits++
		}
		if sameSet(result.Selection.AllTypes(), tc.ExpectTypes) {
			typeHits++
		}
		if tc.ExpectMethod != "" {
			methodChecked++
			if string(result.Method) == tc.ExpectMethod {
				methodHits++
			}
		}
	}
	_ = bar.Finish()

	parsed := len(cases) - failures
	fmt.Println(titleStyle.Render("Evaluation Summary"))
	fmt.Println()
	row("Cases", fmt.Sprintf("%d (%d failed to parse)", len(cases), failures))
	row("Category accuracy", pct(categoryHits, parsed))
	row("Type accuracy", pct(typeHits, parsed))
	if methodChecked > 0 {
		row("Method accuracy", pct(methodHits, methodChecked))
	}
	if parsed > 0 {
		row("Mean confidence", fmt.Sprintf("%.2f%%", confidenceSum/float64(parsed)))
	}

	return nil
}

func loadCases(path string) ([]evalCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	var cases []evalCase
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var tc evalCase
		if err := json.Unmarshal(raw, &tc); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		cases = append(cases, tc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return cases, nil
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]struct{}, len(want))
	for _, w := range want {
		seen[w] = struct{}{}
	}
	for _, g := range got {
		if _, ok := seen[g]; !ok {
			return false
		}
	}
	return true
}

func pct(hits, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%d/%d)", 100*float64(hits)/float64(total), hits, total)
}
