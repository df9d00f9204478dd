package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/domain"
)

func newInfoCmd(a *app) *cobra.Command {
	return newShowCmd(a, "info", domain.StylePlain,
		"Show rendering settings",
		`Print the rendering settings of every image under an object.

The plain and table styles list each channel; json and yaml print a
document that "set" accepts. The json style only supports a single image.`)
}

func newGetCmd(a *app) *cobra.Command {
	return newShowCmd(a, "get", domain.StyleJSON,
		"Get rendering settings as a document",
		`Same as "info" with the json style by default, for saving settings that
can be applied elsewhere with "set".`)
}

func newShowCmd(a *app, use, defaultStyle, short, long string) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   use + " <object>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(domain.Styles, style) {
				return fmt.Errorf("%w: %s (expected one of %s)", domain.ErrUnsupportedStyle, style, strings.Join(domain.Styles, ", "))
			}
			ref, err := domain.ParseObjectRef(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc in.RenderService) error {
				return runInfo(ctx, svc, ref, style)
			})
		},
	}

	cmd.Flags().StringVar(&style, "style", defaultStyle, "Output format ("+strings.Join(domain.Styles, ", ")+")")

	return cmd
}

func runInfo(ctx context.Context, svc in.RenderService, ref domain.ObjectRef, style string) error {
	return svc.Info(ctx, ref, domain.InfoOptions{Style: style})
}
