package main

import (
	"log"

	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/qianfeiqianlan/2048-clash/internal/server"
)

func main() {
	if config.LoadDotEnv() {
		log.Println("[Config] loaded .env")
	}
	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
