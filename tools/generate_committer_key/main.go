package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/eon-protocol/darlin"
)

func main() {
	configFile := flag.String("config", "", "config file (TOML); defaults are used when empty")
	flag.Parse()

	cfg := darlin.NewDefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = darlin.ReadConfigFile(*configFile); err != nil {
			log.Fatalln(err)
		}
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		log.Fatalln(err)
	}
	ckG1, ckG2, err := darlin.LoadCommitterKeys(cfg.CommitterKey)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("G1 %s %x\n", darlin.CommitterKeyPath(cfg.CommitterKey.Dir, "G1", ckG1.Size()), ckG1.Hash)
	fmt.Printf("G2 %s %x\n", darlin.CommitterKeyPath(cfg.CommitterKey.Dir, "G2", ckG2.Size()), ckG2.Hash)
}
