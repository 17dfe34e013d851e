package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit/fetch"
)

var (
	installVerify   bool
	installLockfile string
)

// installCmd pulls a capability artifact into the capability directory.
var installCmd = &cobra.Command{
	Use:   "install <reference>",
	Short: "Install a capability from an OCI registry",
	Long: `Pull a capability artifact from an OCI registry into the capability
directory and pin it in the lockfile.

The reference version may be an exact tag or a semver constraint, which
resolves to the highest matching tag:

  agentkit install ghcr.io/acme/capabilities/websearch:1.2.0
  agentkit install "ghcr.io/acme/capabilities/websearch:^1.0"`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&installVerify, "verify", false,
		"require a valid keyless signature before installing")
	installCmd.Flags().StringVar(&installLockfile, "lockfile", "",
		"lockfile path (default: agentkit.lock.yaml next to the capability directory)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	opts := []fetch.InstallOption{}
	if installVerify {
		opts = append(opts, fetch.WithVerifier(fetch.NewCosignVerifier()))
	}
	if installLockfile != "" {
		opts = append(opts, fetch.WithLockfilePath(installLockfile))
	}

	service := fetch.NewInstallService(
		fetch.NewOCIRegistry(fetch.NewEnvAuthProvider()),
		capabilityDir,
		opts...,
	)

	installed, err := service.Install(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "installed %s (%s)\n",
		installed.Reference, installed.Digest)
	return nil
}
