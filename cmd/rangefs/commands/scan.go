package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justapithecus/rangefs/internal/scan"
	"github.com/justapithecus/rangefs/rangefs"
)

func newScanCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "scan [container...]",
		Short: "Read objects end to end and print their xxhash64 digests",
		Long: `Read every object sequentially with range requests of --buffer-size bytes
and report bytes read, request count and digest. Objects come from an
enumeration of the store, or from a handle list written by "export" when
--input is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			handles, err := a.scanHandles(cmd, input, args)
			if err != nil {
				return err
			}
			t, err := a.connect(ctx)
			if err != nil {
				return err
			}

			scanner, err := scan.New(t,
				scan.WithBufferSize(a.cfg.Scan.BufferSize),
				scan.WithDecompression(a.cfg.Scan.Decompress),
				scan.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			report, err := scanner.ScanAll(ctx, handles, a.cfg.Scan.Concurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range report.Results {
				if res.Err != nil {
					if _, err := fmt.Fprintf(out, "FAILED            %s: %v\n", res.Handle, res.Err); err != nil {
						return err
					}
					continue
				}
				if _, err := fmt.Fprintf(out, "%016x  %12d  %6d  %s\n", res.Digest, res.Bytes, res.Reads, res.Handle); err != nil {
					return err
				}
			}

			if failed := len(report.Failed()); failed > 0 {
				return fmt.Errorf("scan %s: %d of %d objects failed", report.RunID, failed, len(report.Results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "handle list written by export (.jsonl or .parquet, optionally .gz/.zst)")
	flags.Int("concurrency", 0, "objects scanned in parallel")
	flags.Int("buffer-size", 0, "bytes per range request")
	flags.Bool("decompress", false, "inflate .gz and .zst objects before hashing")
	cobra.CheckErr(bindFlags(a.v, flags, map[string]string{
		"scan.concurrency": "concurrency",
		"scan.buffer_size": "buffer-size",
		"scan.decompress":  "decompress",
	}))
	return cmd
}

// scanHandles loads handles from input, or enumerates the store.
func (a *app) scanHandles(cmd *cobra.Command, input string, containers []string) ([]rangefs.Handle, error) {
	if input == "" {
		catalog, err := a.enumerate(cmd.Context(), containers)
		if err != nil {
			return nil, err
		}
		return catalog.Handles(), nil
	}

	if len(containers) > 0 {
		return nil, fmt.Errorf("scan: container arguments cannot be combined with --input")
	}
	codec, comp, err := formatsForPath(input)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	defer func() { _ = f.Close() }()

	handles, err := rangefs.ReadHandles(f, codec, comp)
	if err != nil {
		return nil, fmt.Errorf("scan: %s: %w", input, err)
	}
	a.log.Debug().Str("input", input).Int("handles", len(handles)).Msg("handle list loaded")
	return handles, nil
}
