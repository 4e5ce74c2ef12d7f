package main

import (
	"log"
	"os"

	"github.com/cvescan/cvescan/cli"
)

func main() {
	code, err := cli.Execute()
	if err != nil {
		log.Printf("%v", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}
