package main

import "github.com/i-m-alive/Visitor-Log-Book/cmd"

func main() {
	cmd.Execute()
}
