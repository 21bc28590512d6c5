package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/justapithecus/rangefs/rangefs"
)

func newCatCmd(a *app) *cobra.Command {
	var (
		offset     int64
		length     int64
		bufferSize int
	)

	cmd := &cobra.Command{
		Use:   "cat <container> <key>",
		Short: "Write an object, or a byte range of it, to stdout",
		Long: `Read an object with range requests of at most --buffer-size bytes each.
A negative --offset counts back from the end of the object.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bufferSize < 1 {
				return fmt.Errorf("--buffer-size must be positive, got %d", bufferSize)
			}

			ctx := cmd.Context()
			h, t, err := a.stat(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			// The object was just stat'ed; skip the second HEAD.
			f, err := h.Open(ctx, t, rangefs.WithoutVerify(), rangefs.WithFileLogger(a.log))
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			whence := io.SeekStart
			if offset < 0 {
				whence = io.SeekEnd
			}
			if _, err := f.Seek(offset, whence); err != nil {
				return err
			}

			var r io.Reader = f
			if length >= 0 {
				r = io.LimitReader(f, length)
			}

			// Plain wrappers keep CopyBuffer from bypassing buf via ReaderFrom.
			n, err := io.CopyBuffer(struct{ io.Writer }{cmd.OutOrStdout()}, struct{ io.Reader }{r}, make([]byte, bufferSize))
			if err != nil {
				return fmt.Errorf("cat %s: %w", h, err)
			}
			a.log.Debug().Str("object", h.String()).Int64("bytes", n).Msg("cat complete")
			return nil
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "first byte to read; negative counts from the end")
	cmd.Flags().Int64Var(&length, "length", -1, "number of bytes to read; -1 reads to the end")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 64*1024, "bytes per range request")
	return cmd
}
