package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/domain"
)

func newTestCmd(a *app) *cobra.Command {
	var opts domain.TestOptions

	cmd := &cobra.Command{
		Use:   "test <object>",
		Short: "Test that pixel data can be read",
		Long: `Open the pixel data of every image under an object and print one status
line per image:

  <status>: Pixels:<id> Image:<id> <seconds> <error>

where status is ok, miss, fill, cancel or fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseObjectRef(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc in.RenderService) error {
				return runTest(ctx, svc, ref, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Force creation of pixel data file in binary repository if missing")
	cmd.Flags().BoolVar(&opts.Thumb, "thumb", false, "If underlying pixel data available test thumbnail retrieval")

	return cmd
}

func runTest(ctx context.Context, svc in.RenderService, ref domain.ObjectRef, opts domain.TestOptions) error {
	return svc.Test(ctx, ref, opts)
}
