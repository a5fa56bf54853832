package commands

import (
	"fmt"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/spf13/cobra"
)

func NewRegionsCmd(p Provider, streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "regions [region]",
		Short: "List regions, or the sub-regions of one region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := p.Directory()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for _, reg := range dir.Regions() {
					fmt.Fprintf(streams.Out, "%s\t%s\t%d\n", reg.Code, reg.Name, len(reg.SubRegions))
				}
				return nil
			}

			reg, ok := dir.Region(args[0])
			if !ok {
				return &domain.UnknownRegionError{Name: args[0]}
			}
			for _, sub := range reg.SubRegions {
				fmt.Fprintf(streams.Out, "%s\t%s\n", sub.Code, sub.Name)
			}
			return nil
		},
	}
}
