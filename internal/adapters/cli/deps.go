package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDepsCmd creates the deps subcommand
func NewDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage external tools (yt-dlp, ffmpeg, tesseract)",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency status",
		RunE:  runDepsStatus,
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update yt-dlp to latest version",
		RunE:  runDepsUpdate,
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install yt-dlp and ffmpeg",
		RunE:  runDepsInstall,
	}

	cmd.AddCommand(statusCmd, updateCmd, installCmd)
	return cmd
}

func runDepsStatus(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Dependency Status:")
	fmt.Println()

	printTool("yt-dlp", app.Source.IsAvailable(), app.Source.GetBinaryPath(), "needed for URLs")
	printTool("ffmpeg", app.Decoder.IsAvailable(), app.Decoder.GetBinaryPath(), "required")
	printTool("tesseract", app.Recognizer.IsAvailable(), app.Recognizer.GetBinaryPath(), "needed for --text and text comparison")
	fmt.Println()

	return nil
}

func printTool(name string, available bool, path, purpose string) {
	if available {
		fmt.Printf("  %-10s installed (%s)\n", name+":", path)
		return
	}
	fmt.Printf("  %-10s not found, %s\n", name+":", purpose)
}

func runDepsUpdate(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return err
	}

	if !app.Source.IsAvailable() {
		return fmt.Errorf("yt-dlp is not installed. Run 'vid2slides deps install' first")
	}

	fmt.Println("Updating yt-dlp...")

	if err := app.Source.Update(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("yt-dlp updated")
	return nil
}

func runDepsInstall(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if app.Source.IsAvailable() {
		fmt.Println("yt-dlp is already installed")
	} else {
		fmt.Println("Installing yt-dlp...")
		if err := app.Source.Install(ctx, printProgress); err != nil {
			return err
		}
		fmt.Println("\nyt-dlp installed")
	}

	if app.Decoder.IsAvailable() {
		fmt.Println("ffmpeg is already installed")
	} else {
		fmt.Println("Installing ffmpeg...")
		if err := app.Decoder.Install(ctx, printProgress); err != nil {
			return fmt.Errorf("%w\n%s", err, app.Decoder.Instructions())
		}
		fmt.Println("\nffmpeg installed")
	}

	if !app.Recognizer.IsAvailable() {
		fmt.Println("tesseract is not installed (optional):")
		fmt.Println("  " + app.Recognizer.Instructions())
	}

	return nil
}
