package main

import "github.com/jsphweid/degreec/cmd"

func main() {
	cmd.Execute()
}
