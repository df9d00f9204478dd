package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/domain"
)

const setLong = `Apply a rendering settings document to every image under the targets.

The document is a local YAML or JSON file, or OriginalFile:<id> for a file
stored on the server. Channels are keyed by their 1-based index:

  version: 2
  channels:
    1:
      label: DAPI
      color: 0000FF
      start: 10
      end: 2000
    2:
      active: false
  greyscale: false
  z: 1
  t: 1

Version 1 documents use min/max as the window.`

type setFlags struct {
	opts domain.SetOptions
}

func (f *setFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.opts.Disable, "disable", false, "Disable channels not listed in the document")
	cmd.Flags().BoolVar(&f.opts.IgnoreErrors, "ignore-errors", false, "Skip settings that do not fit an image")
	cmd.Flags().BoolVar(&f.opts.SkipThumbs, "skipthumbs", false, "Do not regenerate thumbnails immediately")
}

func newSetCmd(a *app) *cobra.Command {
	var flags setFlags

	cmd := &cobra.Command{
		Use:   "set <target>... <document>",
		Short: "Apply rendering settings from a document",
		Long:  setLong,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := domain.ParseObjectRefs(args[:len(args)-1])
			if err != nil {
				return err
			}
			source := args[len(args)-1]
			return a.withService(cmd, func(ctx context.Context, svc in.RenderService) error {
				return runSet(ctx, svc, targets, source, flags.opts)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func runSet(ctx context.Context, svc in.RenderService, targets []domain.ObjectRef, source string, opts domain.SetOptions) error {
	return svc.Set(ctx, targets, source, opts)
}

// newEditCmd keeps the old command name around to point users at "set".
func newEditCmd() *cobra.Command {
	var flags setFlags

	cmd := &cobra.Command{
		Use:   "edit <target>... <document>",
		Short: `Renamed to "set"`,
		Args:  cobra.ArbitraryArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			return domain.NewExitError(domain.ExitRenamedCommand, domain.ErrCommandRenamed, "%s", domain.ErrCommandRenamed.Error())
		},
	}

	flags.register(cmd)

	return cmd
}
