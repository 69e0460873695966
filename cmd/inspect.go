package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/docentai/extbuild/internal/build"
	"github.com/docentai/extbuild/pkg/table"
	"github.com/docentai/extbuild/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type inspectReport struct {
	Archive        string          `json:"archive"`
	Version        string          `json:"version"`
	Mode           build.Mode      `json:"mode"`
	CaptureEnabled bool            `json:"capture_enabled"`
	Files          int             `json:"files"`
	Bytes          uint64          `json:"bytes"`
	Digest         string          `json:"digest"`
	Entries        []util.ZipEntry `json:"entries"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.zip>",
	Short: "Show the contents of a built extension archive",
	Long: `List the files of an archive produced by 'extbuild build', the manifest
version, and whether the screen-capture capability is declared (dev) or not
(prod).`,
	Example: `  extbuild inspect build/docentai-ui-prod-v1.0.0.zip
  extbuild inspect build/docentai-ui-dev-v1.0.0.zip -o json
  extbuild inspect build/docentai-ui-dev-v1.0.0.zip --extract /tmp/unpacked`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringP("output", "o", "", "Output format (json)")
	inspectCmd.Flags().String("extract", "", "Also extract the archive into this directory")
}

func runInspect(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	extractDir, _ := cmd.Flags().GetString("extract")
	if output != "" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	report, err := inspectArchive(args[0])
	if err != nil {
		return err
	}

	if extractDir != "" {
		if err := util.Unzip(report.Archive, extractDir); err != nil {
			return fmt.Errorf("failed to extract archive: %w", err)
		}
		if output != "json" {
			pterm.Success.Printf("Extracted to %s\n", extractDir)
		}
	}

	if output == "json" {
		return util.PrintPrettyJSON(report)
	}

	printInspectReport(report)
	return nil
}

func inspectArchive(path string) (*inspectReport, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}

	entries, err := util.ListZip(abs)
	if err != nil {
		return nil, err
	}

	manifest, err := util.ReadZipFile(abs, build.ManifestOutputPath)
	if err != nil {
		return nil, fmt.Errorf("not an extension archive: %w", err)
	}

	digest, err := util.FileDigest(abs)
	if err != nil {
		return nil, err
	}

	report := &inspectReport{
		Archive:        abs,
		Version:        build.ManifestVersion(string(manifest)),
		CaptureEnabled: build.DeclaresCapture(string(manifest)),
		Files:          len(entries),
		Digest:         digest,
		Entries:        entries,
	}
	report.Mode = build.ModeProd
	if report.CaptureEnabled {
		report.Mode = build.ModeDev
	}
	for _, e := range entries {
		report.Bytes += e.Size
	}
	return report, nil
}

func printInspectReport(r *inspectReport) {
	rows := pterm.TableData{{"Entry", "Size", "Compressed"}}
	for _, e := range r.Entries {
		rows = append(rows, []string{
			e.Name,
			util.FormatBytes(int64(e.Size)),
			util.FormatBytes(int64(e.CompressedSize)),
		})
	}
	table.PrintTableNoPad(rows, true)

	pterm.Println()
	pterm.Printf("  Archive:  %s\n", r.Archive)
	pterm.Printf("  Version:  %s\n", util.OrDash(r.Version))
	pterm.Printf("  Files:    %s (%s)\n", strconv.Itoa(r.Files), util.FormatBytes(int64(r.Bytes)))
	pterm.Printf("  Digest:   %s\n", r.Digest)
	pterm.Println()

	if r.CaptureEnabled {
		pterm.Warning.Println("Screen capture declared in manifest (DEV build, not for the Chrome Web Store)")
	} else {
		pterm.Success.Println("No screen capture capability declared (PROD build)")
	}
}
