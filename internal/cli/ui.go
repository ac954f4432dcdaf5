package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/importaudit/pkg/audit"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Audit Result
// =============================================================================

// statusLabel is the one-word state shown in the summary table.
func statusLabel(rec audit.PackageRecord) string {
	switch {
	case rec.IsStdlib:
		return "stdlib"
	case rec.InstallStatus == audit.StatusSucceeded:
		return "installed"
	case rec.InstallStatus == audit.StatusFailed:
		return "failed"
	case rec.Present:
		return "present"
	case rec.IsAvailable:
		return "missing"
	default:
		return "not found"
	}
}

func statusStyle(label string) lipgloss.Style {
	switch label {
	case "installed", "present":
		return StyleSuccess
	case "failed", "not found":
		return StyleError
	case "missing":
		return StyleWarning
	default:
		return StyleDim
	}
}

// renderRecords renders the third-party records as a table sorted by
// import name. Stdlib records are left out.
func renderRecords(records map[string]audit.PackageRecord) string {
	var names []string
	for _, name := range slices.Sorted(maps.Keys(records)) {
		if !records[name].IsStdlib {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}

	rows := make([][]string, len(names))
	for i, name := range names {
		rec := records[name]
		install := rec.InstallName
		if install == name {
			install = ""
		}
		rows[i] = []string{name, install, statusLabel(rec), strconv.Itoa(len(rec.Files))}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Import", "Package", "Status", "Files").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 2 {
				return statusStyle(rows[row][2])
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// printResult prints the record table, the outcome groups and the
// manifest location.
func (c *CLI) printResult(res *audit.Result, installed bool) {
	if out := renderRecords(res.Records); out != "" {
		fmt.Println(out)
	}

	for _, fe := range res.FileErrors {
		printWarning("Skipped %s", fe.Path)
	}

	sum := res.Summary
	if installed {
		if len(sum.Succeeded) > 0 {
			printSuccess("Installed: %s", strings.Join(sum.Succeeded, ", "))
		}
		if len(sum.Failed) > 0 {
			printError("Failed to install: %s", strings.Join(sum.Failed, ", "))
			for _, name := range sum.Failed {
				printDetail("%s: %s", name, reason(res.Records[name].ErrorMessage))
			}
		}
		if len(sum.Succeeded) == 0 && len(sum.Failed) == 0 {
			printInfo("Nothing to install")
		}
	}
	std, missing := splitSkipped(res.Records, sum.Skipped)
	if len(std) > 0 && (installed || c.Logger.GetLevel() <= LogDebug) {
		printInfo("Skipped (stdlib): %s", strings.Join(std, ", "))
	}
	if len(missing) > 0 {
		printInfo("Not found on the index: %s", strings.Join(missing, ", "))
	}

	switch {
	case res.Manifest.NoOp:
		printInfo("No third-party requirements")
	case res.Manifest.Path != "":
		printSuccess("Wrote %d requirements", len(res.Manifest.Names))
		printFile(res.Manifest.Path)
		if res.Manifest.Changed() {
			printDetail("+%d -%d since last run", len(res.Manifest.Added), len(res.Manifest.Removed))
		}
	}
}

// splitSkipped separates skipped names into stdlib modules and third-party
// names no index knows about. Order is preserved.
func splitSkipped(records map[string]audit.PackageRecord, names []string) (std, missing []string) {
	for _, n := range names {
		if records[n].IsStdlib {
			std = append(std, n)
		} else {
			missing = append(missing, n)
		}
	}
	return std, missing
}

// reason returns the last line of a multi-line pip error,
// which is where pip puts the actual reason.
func reason(msg string) string {
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
