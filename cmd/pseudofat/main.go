// Command pseudofat runs a REPL shell over a single pseudo-FAT disk image, the
// process entry point described in SPEC_FULL.md section 10.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zapfs/pseudofat/fat"
	"github.com/zapfs/pseudofat/internal/repl"
)

func main() {
	app := &cli.App{
		Name:      "pseudofat",
		Usage:     "REPL shell over a pseudo-FAT disk image file",
		ArgsUsage: "IMAGE_PATH",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing required argument: IMAGE_PATH", 1)
	}

	v, err := fat.Open(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer v.Close()

	return repl.Run(v, os.Stdin, os.Stdout, os.Stderr)
}
