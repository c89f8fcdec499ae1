// Command selkiesmock is the reference/test implementation of the socket-
// facing half of the external controlling process: it stands up the
// per-slot Unix sockets that cmd/libselkiesinput dials into, performs the
// configuration handshake, and optionally drives a synthetic input
// pattern. It exists for development and end-to-end testing, not as a
// production streaming server.
package main

import (
	"os"
	"reflect"
	"strings"

	"github.com/selkies-project/selkies-gamepad-interpose/cmd/selkiesmock/configcmd"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/configpaths"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func init() {
	configcmd.RegisterTarget(reflect.TypeOf(ServeCommand{}))
}

// CLI is the top-level command tree: a shared Log block plus one
// subcommand struct per verb, Kong-dispatched by name.
type CLI struct {
	Log struct {
		Level string `help:"Log level (trace,debug,info,warn,error)" default:"info" enum:"trace,debug,info,warn,error"`
		File  string `help:"Write logs to this file instead of stdout/stderr"`
	} `embed:"" prefix:"log."`

	Serve  ServeCommand      `cmd:"" help:"Serve emulated gamepad sockets for the preloaded libraries to connect to"`
	Config configcmd.Command `cmd:"" help:"Generate a configuration template"`
}

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("selkiesmock"),
		kong.Description("Reference socket server for the selkies gamepad interposer libraries"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var rawLogger log.RawLogger
	if cli.Log.Level == "trace" {
		rawLogger = log.NewRaw(os.Stdout)
	} else {
		rawLogger = log.NewRaw(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("SELKIESMOCK_CONFIG"); v != "" {
		return v
	}
	return ""
}
