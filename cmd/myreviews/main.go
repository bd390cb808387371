package main

import "myreviews/cmd/myreviews/cmd"

func main() {
	cmd.Execute()
}
