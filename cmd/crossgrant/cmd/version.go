package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/credentials"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(cmd *cobra.Command, args []string) {
		output.Header(constants.ProjectName)
		output.KeyValue("CLI version", *constants.GetVersion())
		output.KeyValue("Credential kinds", joinKinds())
	},
}

func joinKinds() string {
	kinds := credentials.Kinds()
	joined := ""
	for i, kind := range kinds {
		if i > 0 {
			joined += ", "
		}
		joined += kind
	}
	return joined
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
