// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/charmbracelet/lipgloss"
)

const uiDivider = "──────────────────────────────────────────────────────"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var healthStyles = map[models.HealthStatus]lipgloss.Style{
	models.HealthHealthy:   okStyle,
	models.HealthSlow:      warnStyle,
	models.HealthDegraded:  warnStyle,
	models.HealthUnhealthy: errorStyle,
	models.HealthUnknown:   faintStyle,
}

func renderPage(title, data string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n  ")
	b.WriteString(uiDivider)
	b.WriteString("\n")

	if strings.TrimSpace(data) == "" {
		b.WriteString("  -\n")
		return b.String()
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// renderTable aligns label/value rows into two columns.
func renderTable(rows [][2]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%-*s │ %s\n", width, row[0], row[1]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHealth(s models.HealthSnapshot, recommendations []string) string {
	style, ok := healthStyles[s.Status]
	if !ok {
		style = faintStyle
	}

	rows := [][2]string{
		{"Status", style.Render(string(s.Status))},
		{"Successful", fmt.Sprintf("%d", s.SuccessfulSyncs)},
		{"Failed", fmt.Sprintf("%d", s.FailedSyncs)},
		{"Consecutive failures", fmt.Sprintf("%d", s.ConsecutiveFailures)},
		{"Average duration", fmt.Sprintf("%.0f ms", s.AverageSyncTimeMs)},
		{"Error rate", fmt.Sprintf("%.1f%%", s.ErrorRate*100)},
		{"Last sync", formatTime(s.LastSyncTime)},
	}

	var b strings.Builder
	b.WriteString(boxStyle.Render(renderTable(rows)))

	if len(s.Issues) > 0 {
		b.WriteString("\n\nIssues:\n")
		for _, issue := range s.Issues {
			b.WriteString("  - " + warnStyle.Render(issue) + "\n")
		}
	}
	if len(recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range recommendations {
			b.WriteString("  - " + rec + "\n")
		}
	}

	return renderPage("SYNC HEALTH", strings.TrimRight(b.String(), "\n"))
}

func renderStatus(st models.SyncStatus) string {
	rows := [][2]string{
		{"Session", yesNo(st.Initialized)},
		{"Online", yesNo(st.Online)},
		{"Subscribed", yesNo(st.Subscribed)},
		{"Queued operations", fmt.Sprintf("%d", st.QueuedOperations)},
		{"Last sync", formatTime(st.LastSyncTime)},
	}
	return renderPage("SYNC STATUS", renderTable(rows))
}

func renderBuildInfo(info models.AppBuildInfo) string {
	rows := [][2]string{
		{"Application", ClientName},
		{"Version", info.BuildVersion()},
		{"Date", info.BuildDate()},
		{"Commit", info.BuildCommit()},
	}
	return renderPage("ABOUT", renderTable(rows))
}

// renderOutcome describes the result of a save-like command. A queued save
// is reported as pending, not as a failure.
func renderOutcome(command string, outcome service.SaveOutcome, err error) string {
	title := strings.ToUpper(command)

	var opErr *syncerr.OpError
	switch {
	case err != nil && errors.As(err, &opErr) && outcome.Queued:
		return renderPage(title, warnStyle.Render("store unreachable, queued as "+outcome.OperationID))
	case err != nil && errors.As(err, &opErr):
		return renderPage(title, errorStyle.Render(fmt.Sprintf("%s failed (%s): %v", command, opErr.Class, opErr.Err)))
	case err != nil:
		return renderPage(title, errorStyle.Render(fmt.Sprintf("%s failed: %v", command, err)))
	case outcome.Queued:
		return renderPage(title, warnStyle.Render("offline, queued as "+outcome.OperationID))
	case outcome.Saved:
		return renderPage(title, okStyle.Render("saved to cloud"))
	default:
		return renderPage(title, faintStyle.Render("nothing to do"))
	}
}

func renderReset(err error) string {
	if err != nil {
		return renderOutcome("reset", service.SaveOutcome{}, err)
	}
	return renderPage("RESET", okStyle.Render("cloud copy deleted"))
}

func renderEvent(ev models.SyncEvent) string {
	at := ev.At.Format(time.TimeOnly)
	switch ev.Type {
	case models.EventSyncError:
		return fmt.Sprintf("%s %s %s: %v", at, errorStyle.Render(string(ev.Type)), ev.Operation, ev.Err)
	case models.EventOffline:
		return fmt.Sprintf("%s %s", at, warnStyle.Render(string(ev.Type)))
	case models.EventSyncSuccess:
		return fmt.Sprintf("%s %s %s (%d bytes)", at, okStyle.Render(string(ev.Type)), ev.Operation, len(ev.Data))
	default:
		return fmt.Sprintf("%s %s", at, okStyle.Render(string(ev.Type)))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func usage() string {
	rows := [][2]string{
		{"push [file|-]", "store the dataset locally and save it to the cloud"},
		{"pull [file|-]", "load the cloud copy into the local dataset"},
		{"sync", "flush queued saves and push the local dataset"},
		{"watch", "apply remote changes and keep syncing until interrupted"},
		{"health", "check the store and show sync health"},
		{"reset --yes", "delete the cloud copy, keep the local dataset"},
		{"status", "show session status"},
		{"version", "show build information"},
	}
	return renderPage("USAGE: budget-sync [flags] <command>", renderTable(rows))
}
