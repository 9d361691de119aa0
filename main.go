package main

import "github.com/msallam/hotel-management/cmd"

func main() {
	cmd.Execute()
}
