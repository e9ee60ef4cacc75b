package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wealthdesk/stmtparse/internal/engine"
	"github.com/wealthdesk/stmtparse/internal/model"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a single email from the command line",
		Example: `  stmtparse parse --subject "PMS Statement Request" \
    --body "Send me portfolio statement as on 15-Mar-2024 for PAN ABCDE1234F"`,
		RunE: runParse,
	}
	cmd.Flags().String("subject", "", "email subject")
	cmd.Flags().String("body", "", "email body")
	return cmd
}

func runParse(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	subject, _ := cmd.Flags().GetString("subject")
	body, _ := cmd.Flags().GetString("body")

	result, err := eng.Parse(cmd.Context(), subject, body)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(r *model.ParseResult) {
	fmt.Println(titleStyle.Render("Parse Result"))
	fmt.Println()

	row("Categories", strings.Join(r.Selection.Categories(), ", "))
	row("Types", strings.Join(r.Selection.AllTypes(), ", "))
	row("PAN", strings.Join(r.Identifiers[model.KindPAN], ", "))
	row("DI code", strings.Join(r.Identifiers[model.KindDICode], ", "))
	row("Account code", strings.Join(r.Identifiers[model.KindAccountCode], ", "))
	row("AIF folio", strings.Join(r.Identifiers[model.KindAIFFolio], ", "))
	row("From", r.DateRange.From.Format("2006-01-02"))
	row("To", r.DateRange.To.Format("2006-01-02"))
	row("Date source", fmt.Sprintf("%s (%s)", r.Metadata.DateSource, r.DateRange.Provenance))
	row("Method", string(r.Method))
	row("State", r.Metadata.DecisionState)
	if r.Metadata.MLSkipped {
		row("ML", warnStyle.Render("skipped: "+r.Metadata.MLSkipReason))
	}

	confStyle := badStyle
	switch {
	case r.Confidence >= 80:
		confStyle = goodStyle
	case r.Confidence >= 60:
		confStyle = warnStyle
	}
	row("Confidence", confStyle.Render(fmt.Sprintf("%.2f%%", r.Confidence)))
	row("Duration", r.Metadata.Duration.String())
}

func row(label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label+":")), valueStyle.Render(value))
}
