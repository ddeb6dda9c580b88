package main

import "ap-task/cmd"

func main() {
	cmd.Execute()
}
