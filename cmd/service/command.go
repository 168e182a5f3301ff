package service

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/pkg/utils"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "space authorization service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	utils.SetupIDWorker(1)
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	serve(app)

	return nil
}
