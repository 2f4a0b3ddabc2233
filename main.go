/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/stargatehub/events-gin/cmd"

func main() {
	cmd.Execute()
}
