package cmd

import (
	"fmt"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const buildImage = "gophertribe/gobuild:1.25-bookworm"

type target struct {
	os, arch string
	// native builds run go build directly, others are delegated to docker
	native bool
}

// resolveTarget picks the build platform; cross settings only apply to native builds
// running inside the build container.
func resolveTarget(goos, goarch, crossOS, crossArch string) target {
	if goos != runtime.GOOS || goarch != runtime.GOARCH {
		return target{os: goos, arch: goarch}
	}
	if crossOS != "" && crossArch != "" {
		return target{os: crossOS, arch: crossArch, native: true}
	}
	return target{os: goos, arch: goarch, native: true}
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the imu cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			flag := func(name string) string { return cmd.Flag(name).Value.String() }
			version := flag("version")
			t := resolveTarget(flag("os"), flag("arch"), flag("cross-os"), flag("cross-arch"))
			if t.native {
				return build.GoBuild("dist/imu", "./cmd/imu", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/imu/pkg/config",
					// karalabe/hid links against hidapi
					EnableCgo: true,
					Arch:      t.arch,
					OS:        t.os,
				})
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			// the container runs this tool again as a native build for the requested platform
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch),
				[]string{"build", "--version", version, "--cross-os", t.os, "--cross-arch", t.arch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   buildImage,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building in docker")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
