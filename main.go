/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "hookbridge/cmd"

func main() {
	cmd.Execute()
}
