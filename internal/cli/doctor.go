package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/config"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
)

// requiredTools are invoked by setup steps and the default extraction.
var requiredTools = []string{"sh", "tar", "unzip"}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, catalog, host and required tools",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	var checks []healthCheck

	cfgPath := resolvedConfigPath()
	cfg, cfgErr := config.Load(cfgPath)
	checks = append(checks, checkConfig(cfg, cfgErr))
	if cfgErr != nil {
		return writeDoctorResult(cmd, cfgPath, checks)
	}

	catalogPath, err := paths.ExpandTilde(cfg.Catalog)
	if err != nil {
		catalogPath = cfg.Catalog
	}
	cat, catErr := catalog.Load(catalogPath)
	checks = append(checks, checkCatalog(cat, catErr))

	checks = append(checks, checkHost(commandContext(cmd), host.Detector{}))
	checks = append(checks, checkTools(exec.LookPath))
	checks = append(checks, checkStaging(cfg.StagingDir))

	return writeDoctorResult(cmd, cfgPath, checks)
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errors int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	summary := fmt.Sprintf("dry_run=%t, log_level=%s", cfg.DryRunValue(), cfg.LogLevel)
	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkCatalog(cat catalog.Catalog, err error) healthCheck {
	if err != nil {
		return healthCheck{Name: "Catalog", Status: "error", Summary: err.Error()}
	}
	n := len(cat.Software)
	if n == 0 {
		return healthCheck{Name: "Catalog", Status: "warning", Summary: "no software defined"}
	}
	return healthCheck{
		Name:    "Catalog",
		Status:  "ok",
		Summary: fmt.Sprintf("%d items, %d enabled by default", n, len(cat.Defaults())),
	}
}

func checkHost(ctx context.Context, d host.Detector) healthCheck {
	h, err := d.Detect(ctx)
	if err != nil {
		return healthCheck{Name: "Host", Status: "error", Summary: err.Error()}
	}
	if h.Manager == nil || h.Manager.Kind() == host.Unknown {
		return healthCheck{Name: "Host", Status: "warning", Summary: h.String() + "; package steps will be skipped"}
	}
	return healthCheck{Name: "Host", Status: "ok", Summary: h.String()}
}

func checkTools(lookPath func(string) (string, error)) healthCheck {
	var missing []string
	for _, name := range requiredTools {
		if _, err := lookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return healthCheck{Name: "Tools", Status: "warning", Summary: "missing " + joinComma(missing)}
	}
	return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(requiredTools)}
}

func checkStaging(override string) healthCheck {
	dir, err := paths.StagingDir(override)
	if err != nil {
		return healthCheck{Name: "Staging", Status: "error", Summary: err.Error()}
	}
	exists, err := paths.DirExists(dir)
	if err != nil {
		return healthCheck{Name: "Staging", Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: "Staging", Status: "ok", Summary: dir + " (created on first download)"}
	}
	return healthCheck{Name: "Staging", Status: "ok", Summary: dir}
}

func writeDoctorResult(cmd *cobra.Command, cfgPath string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("REBASE HEALTH:")+" "+cfgPath)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-10s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}
	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
