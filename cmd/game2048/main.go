package main

import (
	"os"

	"github.com/qianfeiqianlan/2048-clash/internal/cli"
	"github.com/qianfeiqianlan/2048-clash/internal/config"
)

func main() {
	config.LoadDotEnv()
	os.Exit(cli.Execute())
}
