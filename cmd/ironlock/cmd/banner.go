package cmd

import (
	"fmt"
)

const banner = `
  _____                _                _    
 |_   _|              | |              | |   
   | |  _ __ ___  _ __| |     ___   ___| | __
   | | | '__/ _ \| '_ \ |    / _ \ / __| |/ /
  _| |_| | | (_) | | | | |___| (_) | (__|   < 
 |_____|_|  \___/|_| |_|______\___/ \___|_|\_\
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Inactivity Lock Monitor - Version %s\x1b[0m\n\n", Version)
}
