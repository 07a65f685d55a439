package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"

	"github.com/docling-go/docling/internal/config"
)

// PrintBanner displays the startup banner and logs the same information
// through arbor for anyone tailing the log file instead of a terminal.
func PrintBanner(cfg *config.Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()
	serviceURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("DOCLING")
	b.PrintCenteredText("Document Conversion and Media Analysis Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", cfg.Environment, 15)
	b.PrintKeyValue("Service URL", serviceURL, 15)
	b.PrintKeyValue("Layout mode", cfg.Layout.DefaultMode, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", cfg.Environment).
		Str("service_url", serviceURL).
		Msg("application started")

	printCapabilities(cfg, logger)
	fmt.Printf("\n")
}

func printCapabilities(cfg *config.Config, logger arbor.ILogger) {
	fmt.Printf("Pipeline configuration:\n")
	fmt.Printf("   - Layout predictor mode: %s\n", cfg.Layout.DefaultMode)
	fmt.Printf("   - Table structure tensor size: %dx%d\n", cfg.TableStructure.TensorSize, cfg.TableStructure.TensorSize)
	fmt.Printf("   - Media output directory: %s\n", cfg.Media.OutputDir)
	gpu := cfg.Media.GPUConcurrency
	if gpu == 0 {
		gpu = 1
	}
	fmt.Printf("   - Media DAG concurrency: cpu=auto gpu=%d\n", gpu)

	logger.Info().
		Str("layout_mode", cfg.Layout.DefaultMode).
		Int("table_tensor_size", cfg.TableStructure.TensorSize).
		Str("media_output_dir", cfg.Media.OutputDir).
		Int("gpu_concurrency", gpu).
		Msg("pipeline configuration")
}

// PrintShutdownBanner displays the shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("DOCLING")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("application shutting down")
}

func printColorized(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints and logs a success message.
func PrintSuccess(message string) {
	logger := GetLogger()
	printColorized(banner.ColorGreen, fmt.Sprintf("[ok] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints and logs an error message.
func PrintError(message string) {
	logger := GetLogger()
	printColorized(banner.ColorRed, fmt.Sprintf("[error] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints and logs a warning message.
func PrintWarning(message string) {
	logger := GetLogger()
	printColorized(banner.ColorYellow, fmt.Sprintf("[warn] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints and logs an informational message.
func PrintInfo(message string) {
	logger := GetLogger()
	printColorized(banner.ColorCyan, fmt.Sprintf("[info] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
