package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/eml"
	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/di"
	"github.com/mikey/phishing-link-analyzer/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run reads one message from the configured source, analyzes it, and exits
// non-zero when the verdict is not safe.
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	parser *eml.Parser,
	emailFilter ports.EmailFilter,
) error {
	defer logger.Sync()

	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	email, err := parser.Parse(bufio.NewReader(emailReader))
	if err != nil {
		return fmt.Errorf("failed to parse email: %w", err)
	}

	analysis, err := emailFilter.ProcessEmail(context.Background(), &analyzer.Request{
		Email:          email,
		ReportedAsSpam: flags.ReportedAsSpam,
	})
	if err != nil {
		return err
	}

	if analysis.Overall.Level != core.RiskSafe {
		os.Exit(2)
	}
	return nil
}
