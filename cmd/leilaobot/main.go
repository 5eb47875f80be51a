package main

import (
	"log"

	corecmd "github.com/danielambrosim/sistema-bot-leil-o/core/cmd"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("leilaobot: %v", err)
	}
}
