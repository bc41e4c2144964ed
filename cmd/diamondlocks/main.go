package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags every command shares
type Globals struct {
	Config   string `short:"c" default:"diamondlocks.hcl" env:"DIAMONDLOCKS_CONFIG" help:"Path to HCL configuration file"`
	Store    string `env:"DIAMONDLOCKS_STORE" help:"Store driver (memory|file|sqlite|postgres), overrides config"`
	Path     string `env:"DIAMONDLOCKS_STORE_PATH" help:"Store path for the file and sqlite drivers, overrides config"`
	DSN      string `name:"dsn" env:"DIAMONDLOCKS_DSN" help:"Postgres DSN, overrides config"`
	LogLevel string `short:"l" env:"DIAMONDLOCKS_LOG_LEVEL" help:"Log level (debug|info|warn|error), overrides config"`
	Debug    bool   `help:"Enable debug logging"`
}

type CLI struct {
	Globals

	VersionFlag kong.VersionFlag `name:"version" short:"v" help:"Show version"`
	Serve       ServeCmd         `cmd:"" help:"Run the casino server"`
	Play        PlayCmd          `cmd:"" help:"Play blackjack in the terminal"`
	Balance     BalanceCmd       `cmd:"" help:"Show a player's balance"`
	Faucet      FaucetCmd        `cmd:"" help:"Credit a player one DiamondLock"`
	Version     VersionCmd       `cmd:"" help:"Print the version"`
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("diamondlocks"),
		kong.Description("DiamondLocks casino: blackjack and coin flip"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
