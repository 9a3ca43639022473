package main

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/eon-protocol/darlin"
)

func main() {
	if err := toml.NewEncoder(os.Stdout).Encode(darlin.NewDefaultConfig()); err != nil {
		log.Fatalln(err)
	}
}
