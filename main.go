/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ktsuji/chatctx/cmd"

func main() {
	cmd.Execute()
}
