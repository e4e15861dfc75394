package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ecolage/apps/shared"
	"github.com/trezcool/ecolage/core"
	logsvc "github.com/trezcool/ecolage/services/logger"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up storage & services
	stores, err := shared.OpenStores(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	email, sms := shared.NewSenders(conf, std)
	svcs, err := shared.NewServices(conf, logger, stores, email, sms)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		conf:   conf,
		stores: stores,
		svcs:   svcs,
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := stores.Close(); cErr != nil {
		logger.Error(fmt.Sprintf("closing storage: %v", cErr), cErr)
	}
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
