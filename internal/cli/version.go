package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/internal/client"
	"github.com/kubefoundry/kubefoundry/internal/version"
)

type VersionOutput struct {
	KfctlVersion         string `json:"kfctl_version"`
	GitCommit            string `json:"git_commit"`
	BuildDate            string `json:"build_date"`
	ServerVersion        string `json:"server_version,omitempty"`
	ServerGitCommit      string `json:"server_git_commit,omitempty"`
	ServerBuildDate      string `json:"server_build_date,omitempty"`
	UpdateRecommendation string `json:"update_recommendation,omitempty"`
}

var (
	jsonOutput    bool
	versionServer string
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Displays the version of kfctl, and of a running kubefoundry server when --server is given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		output := VersionOutput{
			KfctlVersion: version.Version,
			GitCommit:    version.GitCommit,
			BuildDate:    version.BuildDate,
		}

		var serverErr error
		if versionServer != "" {
			var server *v0.VersionBody
			server, serverErr = client.NewClient(versionServer).GetVersion()
			if serverErr == nil {
				output.ServerVersion = server.Version
				output.ServerGitCommit = server.GitCommit
				output.ServerBuildDate = server.BuildTime
				output.UpdateRecommendation = updateRecommendation(version.Version, server.Version)
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(w, output)
		}

		fmt.Fprintf(w, "kfctl version %s\n", output.KfctlVersion)
		fmt.Fprintf(w, "Git commit: %s\n", output.GitCommit)
		fmt.Fprintf(w, "Build date: %s\n", output.BuildDate)

		if output.ServerVersion != "" {
			fmt.Fprintf(w, "Server version: %s\n", output.ServerVersion)
			fmt.Fprintf(w, "Server git commit: %s\n", output.ServerGitCommit)
			fmt.Fprintf(w, "Server build date: %s\n", output.ServerBuildDate)

			if output.UpdateRecommendation != "" {
				fmt.Fprintln(w, "\n-------------------------------")
				fmt.Fprintln(w, output.UpdateRecommendation)
			}
		} else if serverErr != nil {
			fmt.Fprintf(w, "Error getting server version: %v\n", serverErr)
		}
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")
	VersionCmd.Flags().StringVar(&versionServer, "server", "", "Base URL of a kubefoundry server to compare against")
}

func updateRecommendation(cli, server string) string {
	c, s := version.EnsureVPrefix(cli), version.EnsureVPrefix(server)
	if !semver.IsValid(c) || !semver.IsValid(s) {
		return ""
	}
	switch semver.Compare(c, s) {
	case 1:
		return "CLI version is newer than server version. Consider updating the server."
	case -1:
		return "Server version is newer than CLI version. Consider updating the CLI."
	}
	return ""
}
