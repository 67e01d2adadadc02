// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"csvpilot/internal/config"
	"csvpilot/internal/store"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	scriptsShowRaw bool

	scriptsCmd = &cobra.Command{
		Use:   "scripts",
		Short: "Manage scripts",
		Long: `Manage the Python and shell scripts in the managed scripts directory.

Examples:
  csvpilot scripts list
  csvpilot scripts show reboot.py
  csvpilot scripts rm old-reboot.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	scriptsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List managed scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			scripts, err := app.Index.All()
			if err != nil {
				return wrapForExit(cmd, err)
			}
			if len(scripts) == 0 {
				fmt.Println(SubtitleStyle.Render("No scripts in ") + FileStyle.Render(app.Store.ScriptDir()))
				return nil
			}
			fmt.Println(TitleStyle.Render("Scripts") + SubtitleStyle.Render(" in "+app.Store.ScriptDir()))
			for _, s := range scripts {
				line := "  " + FileStyle.Render(s.Name)
				if s.Description != "" {
					line += "  " + SubtitleStyle.Render(firstLine(s.Description))
				}
				if s.Err != nil {
					line += "  " + WarningStyle.Render("(metadata error)")
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	scriptsShowCmd = &cobra.Command{
		Use:   "show <name>",
		Short: "Show a script's description and source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			s, err := app.Index.Get(store.FileName(args[0]))
			if err != nil {
				return wrapForExit(cmd, err)
			}
			src, err := app.Store.ReadScriptFile(store.FileName(args[0]))
			if err != nil {
				return wrapForExit(cmd, err)
			}

			if scriptsShowRaw {
				os.Stdout.Write(src)
				return nil
			}

			var md strings.Builder
			fmt.Fprintf(&md, "# %s\n\n", s.Name)
			if s.Description != "" {
				md.WriteString(s.Description)
				md.WriteString("\n\n")
			}
			if len(s.Meta.Required) > 0 {
				fmt.Fprintf(&md, "**Required columns:** %s\n\n", strings.Join(s.Meta.Required, ", "))
			}
			if len(s.Meta.Optional) > 0 {
				fmt.Fprintf(&md, "**Optional columns:** %s\n\n", strings.Join(s.Meta.Optional, ", "))
			}
			if s.Err != nil {
				fmt.Fprintf(&md, "**Metadata error:** %s\n\n", s.Err)
			}
			fmt.Fprintf(&md, "```%s\n%s\n```\n", fenceLanguage(s.Name), strings.TrimRight(string(src), "\n"))

			rendered, err := renderMarkdown(md.String(), app.Config.UI.ColorScheme)
			if err != nil {
				// Fall back to plain output if the terminal renderer fails.
				fmt.Println(md.String())
				return nil
			}
			fmt.Print(rendered)
			return nil
		},
	}

	scriptsRmCmd = &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			if err := app.Store.DeleteScriptFile(store.FileName(args[0])); err != nil {
				return wrapForExit(cmd, err)
			}
			app.Index.Invalidate()
			fmt.Println(SuccessStyle.Render("Deleted ") + FileStyle.Render(args[0]))
			return nil
		},
	}
)

func init() {
	scriptsShowCmd.Flags().BoolVar(&scriptsShowRaw, "raw", false, "print the raw source without rendering")

	scriptsCmd.AddCommand(scriptsListCmd)
	scriptsCmd.AddCommand(scriptsShowCmd)
	scriptsCmd.AddCommand(scriptsRmCmd)
}

// renderMarkdown renders markdown for the terminal using glamour.
func renderMarkdown(content string, scheme config.ColorScheme) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		opts = append(opts, glamour.WithStandardStyle(string(scheme)))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}

// fenceLanguage maps a script file name to a markdown code fence language.
func fenceLanguage(name string) string {
	if strings.HasSuffix(name, ".py") {
		return "python"
	}
	return "bash"
}

// firstLine returns the first line of a multi-line description.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
