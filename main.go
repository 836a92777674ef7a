package main

import (
	"flag"
	"log"

	"github.com/faultline/faultline/cmd"
)

func main() {
	shouldRunMigrations := flag.Bool("migrations", false, "Run database migrations")
	shouldRunPoller := flag.Bool("poller", false, "Run the triage poller")
	shouldRunOnce := flag.Bool("once", false, "With -poller, run a single cycle and exit")
	shouldRunServer := flag.Bool("server", false, "Run the ops API server")
	flag.Parse()

	if *shouldRunMigrations {
		if err := cmd.RunMigrations(); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunPoller {
		if err := cmd.RunPoller(*shouldRunOnce); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunServer {
		if err := cmd.RunServer(); err != nil {
			log.Fatal(err)
		}
	}
}
