package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/domain"
)

func newCopyCmd(a *app) *cobra.Command {
	var opts domain.CopyOptions

	cmd := &cobra.Command{
		Use:   "copy <source> <target>...",
		Short: "Copy rendering settings to other images",
		Long: `Copy the rendering settings of every image under the source to every image
under the targets. Targets are updated in batches; the source image itself is
skipped.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := domain.ParseObjectRef(args[0])
			if err != nil {
				return err
			}
			targets, err := domain.ParseObjectRefs(args[1:])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("batch") {
				opts.BatchSize = a.cfg.Client.BatchSize
			}
			return a.withService(cmd, func(ctx context.Context, svc in.RenderService) error {
				return runCopy(ctx, svc, source, targets, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.SkipThumbs, "skipthumbs", false, "Do not regenerate thumbnails immediately")
	cmd.Flags().IntVar(&opts.BatchSize, "batch", domain.DefaultBatchSize, "Number of target images updated per request")

	return cmd
}

func runCopy(ctx context.Context, svc in.RenderService, source domain.ObjectRef, targets []domain.ObjectRef, opts domain.CopyOptions) error {
	return svc.Copy(ctx, source, targets, opts)
}
