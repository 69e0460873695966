package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/docentai/extbuild/internal/build"
	"github.com/docentai/extbuild/internal/layout"
	"github.com/docentai/extbuild/pkg/table"
	"github.com/docentai/extbuild/pkg/util"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// APIURLEnv overrides the API URL injected into lib/config.js.
const APIURLEnv = "EXTBUILD_API_URL"

var buildMode = build.DefaultMode

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the extension directory and zip archive",
	Long: `Build the extension into <build>/extension and write
<build>/<name>-<mode>-v<version>.zip.

The build directory is wiped on every run. Templates are rendered first
(lib/config.js, manifest.json), the service worker is merged with the capture
script in dev mode, then static assets are copied and the tree is archived.

The API URL is taken from --api-url, then $EXTBUILD_API_URL (a .env file in
the working directory is loaded), then the layout file, then the built-in
default.`,
	Example: `  # Chrome Web Store build
  extbuild build

  # Developer build with screen capture against a local API
  extbuild build --mode dev --api-url http://localhost:8080

  # Use a custom layout file and open the result
  extbuild build --layout ci/extbuild.yaml --open`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().VarP(&buildMode, "mode", "m", "Build mode: dev (includes screen capture) or prod")
	buildCmd.Flags().String("api-url", "", "API base URL injected into lib/config.js")
	buildCmd.Flags().String("source", "", "Extension source directory (default from layout: extension)")
	buildCmd.Flags().String("out", "", "Build root for the output tree and archive (default from layout: build)")
	buildCmd.Flags().String("pkg-version", "", "Archive version (default: manifest version, else 1.0.0)")
	buildCmd.Flags().String("layout", layout.DefaultFilename, "Layout file; ignored when absent unless set explicitly")
	buildCmd.Flags().Bool("open", false, "Open the output directory when the build finishes")

	_ = buildCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(build.ModeDev), string(build.ModeProd)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runBuild(cmd *cobra.Command, args []string) error {
	apiURL, _ := cmd.Flags().GetString("api-url")
	source, _ := cmd.Flags().GetString("source")
	out, _ := cmd.Flags().GetString("out")
	version, _ := cmd.Flags().GetString("pkg-version")
	layoutPath, _ := cmd.Flags().GetString("layout")
	open, _ := cmd.Flags().GetBool("open")

	if err := loadDotEnv(); err != nil {
		return err
	}
	if apiURL == "" {
		apiURL = strings.TrimSpace(os.Getenv(APIURLEnv))
	}

	l, err := resolveLayout(layoutPath, cmd.Flags().Changed("layout"))
	if err != nil {
		return err
	}
	if source != "" {
		l.SourceDir = source
	}
	if out != "" {
		l.BuildDir = out
	}

	res, err := build.Run(build.Options{
		Mode:    buildMode,
		Layout:  l,
		APIURL:  apiURL,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	displayBuildSummary(res)

	if open {
		if err := browser.OpenFile(res.OutputDir); err != nil {
			pterm.Warning.Printf("Could not open %s: %v\n", res.OutputDir, err)
		}
	}
	return nil
}

// loadDotEnv loads .env from the working directory when it exists. Variables
// already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// resolveLayout loads the layout file. A missing file falls back to the
// built-in layout unless the path was given explicitly.
func resolveLayout(path string, explicit bool) (layout.Layout, error) {
	l, err := layout.Load(path)
	switch {
	case err == nil:
		pterm.Info.Printf("Using layout %s\n", path)
		return l, nil
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return layout.Default(), nil
	default:
		return layout.Layout{}, err
	}
}

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

func displayBuildSummary(res *build.Result) {
	pterm.Println()
	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"Mode", res.Mode.String()})
	rows = append(rows, []string{"Version", res.Version})
	rows = append(rows, []string{"API URL", res.APIURL})
	rows = append(rows, []string{"Output directory", res.OutputDir})
	rows = append(rows, []string{"Archive", res.ArchivePath})
	rows = append(rows, []string{"Files", fmt.Sprintf("%d (%s)", res.Archive.FilesIncluded, util.FormatBytes(res.Archive.BytesIncluded))})
	rows = append(rows, []string{"Digest (xxh64)", res.Digest})
	rows = append(rows, []string{"Skipped", util.JoinOrDash(res.Skipped...)})
	rows = append(rows, []string{"extbuild", util.OrDash(metadata.Version)})
	table.PrintTableNoPad(rows, true)
	pterm.Println()

	fmt.Println(bannerStyle.Render("Build completed: " + res.ArchivePath))

	if res.Mode.IncludesCapture() {
		pterm.Info.Println("This ZIP is for manual installation (DEV MODE)")
	} else {
		pterm.Info.Println("This ZIP can be uploaded to the Chrome Web Store")
	}
	pterm.Info.Printf("Load %s via chrome://extensions (Developer mode > Load unpacked)\n", res.OutputDir)
}
