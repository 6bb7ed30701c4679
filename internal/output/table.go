// Package output renders terminal output: game and search tables, stats
// summaries, and operation reports. ASCII layout with ANSI color, color
// gated on TTY detection and NO_COLOR.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/depotcache"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/engine"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steamweb"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderGameTable renders the installed games list.
func RenderGameTable(games []steam.Game) string {
	if len(games) == 0 {
		return "No games installed.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-40s %-15s %-15s\n",
		"AppID", "Name", "Added", "Updated"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	for _, g := range games {
		sb.WriteString(fmt.Sprintf("%-10s %-40s %-15s %-15s\n",
			g.AppID,
			truncate(g.Name, 40),
			formatRelativeTime(g.DateAdded),
			formatRelativeTime(g.LastUpdated)))
	}
	sb.WriteString(fmt.Sprintf("\n%d game(s) installed\n", len(games)))
	return sb.String()
}

// RenderSearchTable renders catalog search hits.
func RenderSearchTable(results []steamweb.Result) string {
	if len(results) == 0 {
		return "No results.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-50s %s\n", "AppID", "Name", "Type"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%-10s %-50s %s\n", r.AppID, truncate(r.Name, 50), r.Type))
	}
	return sb.String()
}

// RenderStats renders the ledger counters plus the optional depotcache and
// AppList summaries. Nil sections are omitted.
func RenderStats(st store.Stats, cache *depotcache.Info, applist *greenluma.DirStats) string {
	var sb strings.Builder

	sb.WriteString("Ledger\n")
	sb.WriteString(fmt.Sprintf("  Apps tracked:      %d\n", st.TotalApps))
	sb.WriteString(fmt.Sprintf("  Apps installed:    %d\n", st.InstalledApps))
	sb.WriteString(fmt.Sprintf("  Depots:            %d\n", st.TotalDepots))
	sb.WriteString(fmt.Sprintf("  Depots with key:   %d\n", st.DepotsWithKey))
	sb.WriteString(fmt.Sprintf("  Tracked manifests: %d\n", st.Manifests))

	if cache != nil {
		sb.WriteString("\nDepot cache\n")
		if !cache.Exists {
			sb.WriteString("  (missing)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Manifest files:    %d\n", cache.Manifests))
			sb.WriteString(fmt.Sprintf("  Total size:        %s\n", formatSize(cache.TotalSize)))
		}
	}

	if applist != nil {
		sb.WriteString("\nGreenLuma AppList\n")
		sb.WriteString(fmt.Sprintf("  Marker files:      %d\n", applist.TotalFiles))
		sb.WriteString(fmt.Sprintf("  App markers:       %d\n", applist.AppIDs))
		sb.WriteString(fmt.Sprintf("  Depot markers:     %d\n", applist.Depots))
		if applist.Other > 0 {
			sb.WriteString(fmt.Sprintf("  Untracked:         %d\n", applist.Other))
		}
	}
	return sb.String()
}

// RenderInstallResult renders the report of one install or update.
func RenderInstallResult(res *engine.InstallResult) string {
	var sb strings.Builder

	verb := "Installed"
	if res.Updated {
		verb = "Updated"
	}
	sb.WriteString(fmt.Sprintf("%s %s (AppID %s)\n",
		colorize(colorGreen, verb), res.GameName, res.AppID))
	sb.WriteString(fmt.Sprintf("  Depots:      %d\n", res.DepotsProcessed))
	sb.WriteString(fmt.Sprintf("  Manifests:   %d copied\n", res.ManifestsCopied))
	sb.WriteString(fmt.Sprintf("  GreenLuma:   %s\n", yesNo(res.GreenLumaUpdated)))
	sb.WriteString(fmt.Sprintf("  config.vdf:  %s\n", yesNo(res.ConfigVDFUpdated)))
	sb.WriteString(fmt.Sprintf("  appmanifest: %s\n", yesNo(res.ACFGenerated)))
	sb.WriteString(renderWarnings(res.Warnings))
	return sb.String()
}

// RenderUninstallResult renders the report of one uninstall.
func RenderUninstallResult(res *engine.UninstallResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s AppID %s\n", colorize(colorGreen, "Uninstalled"), res.AppID))
	sb.WriteString(fmt.Sprintf("  Depots:      %d\n", res.DepotsRemoved))
	sb.WriteString(fmt.Sprintf("  Keys:        %d removed\n", res.KeysRemoved))
	sb.WriteString(fmt.Sprintf("  Manifests:   %d removed\n", res.ManifestsRemoved))
	sb.WriteString(fmt.Sprintf("  Markers:     %d removed\n", res.MarkersRemoved))
	sb.WriteString(fmt.Sprintf("  appmanifest: %s\n", yesNoRemoved(res.ACFRemoved)))
	sb.WriteString(renderWarnings(res.Warnings))
	return sb.String()
}

// RenderClearResult renders the report of a full wipe.
func RenderClearResult(res *engine.ClearResult) string {
	var sb strings.Builder
	sb.WriteString(colorize(colorGreen, "All data cleared") + "\n")
	sb.WriteString(fmt.Sprintf("  Apps:        %d\n", res.AppsCleared))
	sb.WriteString(fmt.Sprintf("  Keys:        %d removed\n", res.KeysRemoved))
	sb.WriteString(fmt.Sprintf("  Manifests:   %d removed\n", res.ManifestsRemoved))
	sb.WriteString(fmt.Sprintf("  appmanifest: %d removed\n", res.ACFRemoved))
	sb.WriteString(fmt.Sprintf("  Markers:     %d removed\n", res.MarkersRemoved))
	sb.WriteString(fmt.Sprintf("  Database:    %s\n", yesNoRemoved(res.DatabaseDeleted)))
	sb.WriteString(renderWarnings(res.Warnings))
	return sb.String()
}

func renderWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(colorize(colorYellow, fmt.Sprintf("\n%d warning(s):\n", len(warnings))))
	for _, w := range warnings {
		sb.WriteString("  ⚠ " + w + "\n")
	}
	return sb.String()
}

func yesNo(ok bool) string {
	if ok {
		return "updated"
	}
	return "skipped"
}

func yesNoRemoved(ok bool) string {
	if ok {
		return "removed"
	}
	return "not present"
}

// formatSize renders a byte count in human units.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatRelativeTime renders a timestamp as a human relative phrase.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 30*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
