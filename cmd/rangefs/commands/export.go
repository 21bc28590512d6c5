package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justapithecus/rangefs/rangefs"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output   string
		format   string
		compress string
	)

	cmd := &cobra.Command{
		Use:   "export [container...]",
		Short: "Enumerate the store and write every handle to a file",
		Long: `Write one handle per object as JSON Lines or Parquet, optionally compressed.
When --output names a file and --format/--compress are not given, they are
inferred from its extension (e.g. handles.parquet.zst).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, comp, err := exportFormats(cmd, output, format, compress)
			if err != nil {
				return err
			}

			catalog, err := a.enumerate(cmd.Context(), args)
			if err != nil {
				return err
			}
			handles := catalog.Handles()

			if output == "-" {
				err = rangefs.WriteHandles(cmd.OutOrStdout(), handles, codec, comp)
			} else {
				err = writeHandlesFile(output, handles, codec, comp)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			a.log.Info().
				Int("handles", len(handles)).
				Str("codec", codec.Name()).
				Str("compressor", comp.Name()).
				Str("output", output).
				Msg("export complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", "jsonl", "handle encoding: jsonl or parquet")
	cmd.Flags().StringVar(&compress, "compress", "none", "compression: none, gzip or zstd")
	return cmd
}

// exportFormats resolves explicit flags, falling back to the output file name.
func exportFormats(cmd *cobra.Command, output, format, compress string) (rangefs.Codec, rangefs.Compressor, error) {
	inferCodec, inferComp := rangefs.Codec(nil), rangefs.Compressor(nil)
	if output != "-" {
		var err error
		if inferCodec, inferComp, err = formatsForPath(output); err != nil {
			return nil, nil, err
		}
	}

	codec := inferCodec
	if codec == nil || cmd.Flags().Changed("format") {
		c, err := rangefs.CodecFor(format)
		if err != nil {
			return nil, nil, err
		}
		codec = c
	}

	comp := inferComp
	if comp == nil || cmd.Flags().Changed("compress") {
		c, err := rangefs.CompressorFor(compress)
		if err != nil {
			return nil, nil, err
		}
		comp = c
	}
	return codec, comp, nil
}

func writeHandlesFile(path string, handles []rangefs.Handle, codec rangefs.Codec, comp rangefs.Compressor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rangefs.WriteHandles(f, handles, codec, comp); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
