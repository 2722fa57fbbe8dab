package main

import (
	"log"
	"os"
)

func init() {
	// Set up logging format
	log.SetFlags(log.Ldate | log.Ltime)
	log.SetPrefix("[harvester] ")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
