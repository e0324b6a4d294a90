package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	auditUseCase "github.com/kbalijepalli/dreas/internal/audit/usecase"
)

// auditReportResult is the JSON output shape of the report command.
type auditReportResult struct {
	TotalEntries  uint64            `json:"total_entries"`
	FirstSequence uint64            `json:"first_sequence,omitempty"`
	LastSequence  uint64            `json:"last_sequence,omitempty"`
	ByOperation   map[string]uint64 `json:"by_operation,omitempty"`
	ByOutcome     map[string]uint64 `json:"by_outcome,omitempty"`
	ByPrincipal   map[string]uint64 `json:"by_principal,omitempty"`
}

// RunAuditReport summarizes ledger activity over a time window.
// Empty date strings leave the corresponding bound open.
func RunAuditReport(
	ctx context.Context,
	ledger auditUseCase.LedgerUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	filter := &auditDomain.Filter{}

	if startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		filter.From = &start
	}

	if endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		filter.To = &end
	}

	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("generating audit report")

	report, err := ledger.Report(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to generate audit report: %w", err)
	}

	if format == "json" {
		result := auditReportResult{
			TotalEntries:  report.TotalEntries,
			FirstSequence: report.FirstSequence,
			LastSequence:  report.LastSequence,
			ByOperation:   stringKeyed(report.ByOperation),
			ByOutcome:     outcomeKeyed(report.ByOutcome),
			ByPrincipal:   report.ByPrincipal,
		}
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		if encodeErr := encoder.Encode(result); encodeErr != nil {
			return fmt.Errorf("failed to output JSON: %w", encodeErr)
		}
	} else {
		outputReportText(writer, report)
	}

	logger.Info("audit report completed",
		slog.Uint64("total_entries", report.TotalEntries),
	)

	return nil
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" to time.Time.
func parseDate(dateStr string) (time.Time, error) {
	// Try full datetime format first
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	// Try date-only format (defaults to start of day)
	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// outputReportText outputs the report in human-readable text format.
func outputReportText(writer io.Writer, report *auditDomain.Report) {
	_, _ = fmt.Fprintf(writer, "Audit Ledger Report\n")
	_, _ = fmt.Fprintf(writer, "===================\n\n")
	_, _ = fmt.Fprintf(writer, "Total Entries:  %d\n", report.TotalEntries)
	if report.TotalEntries > 0 {
		_, _ = fmt.Fprintf(writer, "First Sequence: %d\n", report.FirstSequence)
		_, _ = fmt.Fprintf(writer, "Last Sequence:  %d\n", report.LastSequence)
	}

	if len(report.ByOperation) > 0 {
		_, _ = fmt.Fprintf(writer, "\nBy Operation:\n")
		for _, operation := range sortedKeys(report.ByOperation) {
			_, _ = fmt.Fprintf(writer, "  %-18s %d\n", operation, report.ByOperation[auditDomain.Operation(operation)])
		}
	}

	if len(report.ByOutcome) > 0 {
		_, _ = fmt.Fprintf(writer, "\nBy Outcome:\n")
		outcomes := make([]string, 0, len(report.ByOutcome))
		for outcome := range report.ByOutcome {
			outcomes = append(outcomes, string(outcome))
		}
		sort.Strings(outcomes)
		for _, outcome := range outcomes {
			_, _ = fmt.Fprintf(writer, "  %-18s %d\n", outcome, report.ByOutcome[auditDomain.Outcome(outcome)])
		}
	}

	if len(report.ByPrincipal) > 0 {
		_, _ = fmt.Fprintf(writer, "\nBy Principal:\n")
		principals := make([]string, 0, len(report.ByPrincipal))
		for principal := range report.ByPrincipal {
			principals = append(principals, principal)
		}
		sort.Strings(principals)
		for _, principal := range principals {
			_, _ = fmt.Fprintf(writer, "  %-18s %d\n", principal, report.ByPrincipal[principal])
		}
	}
}

// stringKeyed converts an operation-keyed map to a string-keyed one.
func stringKeyed(m map[auditDomain.Operation]uint64) map[string]uint64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]uint64, len(m))
	for key, count := range m {
		out[string(key)] = count
	}
	return out
}

// outcomeKeyed converts an outcome-keyed map to a string-keyed one.
func outcomeKeyed(m map[auditDomain.Outcome]uint64) map[string]uint64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]uint64, len(m))
	for key, count := range m {
		out[string(key)] = count
	}
	return out
}

// sortedKeys returns map keys as sorted strings for stable output.
func sortedKeys(m map[auditDomain.Operation]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)
	return keys
}
