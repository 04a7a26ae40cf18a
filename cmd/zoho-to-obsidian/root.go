package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sleroq/zoho-to-obsidian/internal/app/exporter"
	"github.com/sleroq/zoho-to-obsidian/internal/config"
	"github.com/sleroq/zoho-to-obsidian/internal/logger"
)

var (
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	detailStyle  = lipgloss.NewStyle().Faint(true)
)

func rootCmd() *cobra.Command {
	var (
		inputDir      string
		outputDir     string
		attachmentDir string
		configPath    string
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "zoho-to-obsidian",
		Short: "Convert a Zoho Notebook export into an Obsidian vault",
		Long: `zoho-to-obsidian reads a Zoho Notebook export (a directory or .zip
of .znote archives) and writes Markdown notes with YAML frontmatter,
copying referenced images and attachments alongside them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if inputDir != "" {
				cfg.InputDir = inputDir
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if attachmentDir != "" {
				cfg.AttachmentDir = attachmentDir
			}
			if verbose {
				cfg.Verbose = true
			}
			if cfg.InputDir == "" {
				return fmt.Errorf("no input: pass --input or set input_dir in %s", config.DefaultPath())
			}
			if cfg.OutputDir == "" {
				return fmt.Errorf("no output: pass --output or set output_dir in %s", config.DefaultPath())
			}

			level := log.InfoLevel
			if cfg.Verbose {
				level = log.DebugLevel
			}
			logg := logger.NewWithLevel(os.Stderr, level)

			exp := exporter.Exporter{
				InputDir:      cfg.InputDir,
				OutputDir:     cfg.OutputDir,
				AttachmentDir: cfg.AttachmentDir,
				Log:           logg,
			}
			stats, err := exp.Run()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(fmt.Sprintf("exported %d notes to %s", stats.Notes, cfg.OutputDir)))
			fmt.Fprintln(cmd.OutOrStdout(), detailStyle.Render(fmt.Sprintf("%d files copied, %d skipped", stats.Files, stats.Skipped)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "export directory or .zip file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "vault directory to write")
	cmd.Flags().StringVar(&attachmentDir, "attachment-dir", "", "folder name for copied resources (default \"attachments\")")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}
