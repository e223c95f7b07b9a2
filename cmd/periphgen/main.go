// Command periphgen generates and validates embedded peripheral driver
// headers from metadata descriptors and imported hardware descriptions.
package main

import (
	"github.com/alecthomas/kong"

	"periphgen/internal/cmd"
)

func main() {
	var cli cmd.CLI

	ctx := kong.Parse(&cli,
		kong.Name("periphgen"),
		kong.Description("Metadata-driven peripheral driver generator"),
		kong.UsageOnError(),
	)

	logger := cli.Log.SetupLogger()
	ctx.Bind(logger)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
