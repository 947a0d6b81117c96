package cmd

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacnlabs/docport/internal/config"
	"github.com/jacnlabs/docport/internal/document"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/ui"
)

func newFilesCmd() *cobra.Command {
	var opts scopeOptions

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the documents in a scope",
		Long: `List the PDF documents in one scope's directory.

OCR artifacts (*_ocr.pdf) are derived files and are not listed.

Examples:
  docport files
  docport files --tenant acme --user alice`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFiles(cmd, opts)
		},
	}

	addScopeFlags(cmd, &opts)

	return cmd
}

func runFiles(cmd *cobra.Command, opts scopeOptions) error {
	sc, err := opts.resolve()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dir := sc.Dir(scope.Layout{
		DocsDir:    cfg.Paths.DocsDir,
		UploadsDir: cfg.Paths.UploadsDir,
	})

	render := ui.NewRenderer(cmd.OutOrStdout())
	names, err := listPDFs(dir)
	if err != nil {
		return err
	}
	render.Files(dir, names)
	return nil
}

// listPDFs returns the uploaded PDFs in dir, sorted. A missing directory
// is an empty corpus, not an error.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") || document.IsArtifact(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
