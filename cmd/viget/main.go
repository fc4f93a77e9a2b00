package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/flaneur2020/vi-get/viget"
	"github.com/flaneur2020/vi-get/viget/logger"
	"github.com/flaneur2020/vi-get/viget/storage"
)

var (
	logLevel       string
	verbose        bool
	compressedTags []string

	output     string
	extractAll bool
	raw        bool
	noProgress bool
	jobs       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viget",
		Short: "A CLI tool for inspecting VI files and extracting their chunks",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			if verbose && level < logger.LogLevelInfo {
				level = logger.LogLevelInfo
			}
			logger.SetLogLevel(level)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level: silent, error, warn, info, debug")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level=info")
	rootCmd.PersistentFlags().StringSliceVar(&compressedTags, "compressed", viget.DefaultCompressedTags, "Chunk tags stored as compressed blobs")

	// chunks command
	chunksCmd := &cobra.Command{
		Use:   "chunks <FILE>",
		Short: "List the chunk directory of a VI file",
		Args:  cobra.ExactArgs(1),
		RunE:  runChunks,
	}

	// get command
	getCmd := &cobra.Command{
		Use:   "get <FILE> [TAG]",
		Short: "Extract a chunk (FPSE by default) from a VI file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
	getCmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <FILE>.<TAG>, '-' for stdout)")
	getCmd.Flags().BoolVar(&extractAll, "all", false, "Extract every chunk carrying TAG, not only the first")
	getCmd.Flags().BoolVar(&raw, "raw", false, "Write the stored payload without decompressing it")

	// batch command
	batchCmd := &cobra.Command{
		Use:   "batch <TAG> <FILE>...",
		Short: "Extract TAG from many VI files in parallel",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of files processed concurrently")
	batchCmd.Flags().BoolVar(&extractAll, "all", false, "Extract every chunk carrying TAG, not only the first")
	batchCmd.Flags().BoolVar(&raw, "raw", false, "Write stored payloads without decompressing them")
	batchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar (progress is enabled by default)")

	rootCmd.AddCommand(chunksCmd, getCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newExtractor() viget.Extractor {
	return viget.NewExtractor(storage.NewLocalStorage(""), viget.WithCompressedTags(compressedTags...))
}

func runChunks(cmd *cobra.Command, args []string) error {
	path := args[0]

	infos, err := newExtractor().ListChunks(context.Background(), path)
	if err != nil {
		return err
	}

	fmt.Printf("Chunks in %s:\n", path)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tTAG\tOFFSET\tLENGTH\tCOMPRESSED\tDIGEST")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%t\t%s\n", info.Index, info.Tag, info.Offset, info.Length, info.Compressed, info.Digest)
	}
	return w.Flush()
}

func runGet(cmd *cobra.Command, args []string) error {
	path := args[0]
	tag := viget.DefaultCompressedTags[0]
	if len(args) > 1 {
		tag = args[1]
	}

	ctx := context.Background()
	ex := newExtractor()

	exts, err := ex.Extract(ctx, path, viget.ExtractOptions{Tag: tag, All: extractAll, Raw: raw})
	if err != nil {
		return err
	}

	for _, ext := range exts {
		if output == "-" {
			if _, err := os.Stdout.Write(ext.Data); err != nil {
				return err
			}
			continue
		}

		target := viget.OutputPath(output, ext, len(exts) > 1)
		if err := ex.Save(ctx, ext, target); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Extracted %s#%d to %s (%d bytes, %s)\n",
			ext.Tag, ext.Index, target, len(ext.Data), ext.Digest)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	tag := args[0]
	files := args[1:]

	var batch []*viget.ExtractJob
	for _, file := range files {
		batch = append(batch, &viget.ExtractJob{
			Path:    file,
			Options: viget.ExtractOptions{Tag: tag, All: extractAll, Raw: raw},
		})
	}

	showProgress := !noProgress

	var progressCallback viget.ProgressCallback
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(batch)), fmt.Sprintf("Extracting %s", tag))
		progressCallback = func(done, total int64) {
			bar.Set64(done)
		}
	}

	stats, err := newExtractor().ExtractBatch(context.Background(), batch, jobs, progressCallback)
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Successfully extracted %d chunks from %d/%d files (%d bytes total)\n",
		stats.ExtractedChunks, stats.ExtractedFiles, stats.TotalFiles, stats.ExtractedBytes)
	return nil
}
