package main

import "github.com/bilalelmas/invoscan/process/sanitize"

func main() {
	sanitize.Run()
}
