// Package cli wires configuration, logging and the rank card renderer into
// the rankcard commands.
//
// Running the binary without a subcommand starts the HTTP server, so the
// default behaviour matches `rankcard serve`.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/youruser/rankcard/internal/config"
	imagepkg "github.com/youruser/rankcard/internal/image"
)

var verbose bool

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rankcard",
		Short:         "Render rank card PNGs over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, 0)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(), newRenderCmd(), newRanksCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger writes timestamped logs to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setup loads config and builds the logger and compositor shared by serve and render.
func setup() (config.Config, *log.Logger, *imagepkg.Compositor, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("config: %w", err)
	}

	// Validate has already rejected unknown levels.
	level, _ := log.ParseLevel(cfg.LogLevel)
	if verbose {
		level = log.DebugLevel
	}
	logger := newLogger(os.Stderr, level)

	dirs := cfg.FontDirs
	if len(dirs) == 0 {
		dirs = imagepkg.DefaultFontDirs()
	}
	fonts, err := imagepkg.LoadFonts(cfg.FontPath, dirs)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if missing := fonts.MissingLabelRunes(); len(missing) > 0 {
		logger.Error("no font can draw the rank labels, they will render blank",
			"missing", string(missing),
			"fonts", fonts.Names(),
			"hint", "set RANKCARD_FONT_PATH or RANKCARD_FONT_DIRS to a Japanese font",
		)
	}

	c := imagepkg.NewCompositor(
		imagepkg.DirAssets{Dir: cfg.AssetsDir},
		imagepkg.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes),
		fonts,
	)
	logger.Debug("compositor ready",
		"assets", cfg.AssetsDir,
		"fonts", fonts.Names(),
		"fetch_timeout", cfg.FetchTimeout,
		"fetch_max_bytes", cfg.FetchMaxBytes,
	)
	return cfg, logger, c, nil
}
