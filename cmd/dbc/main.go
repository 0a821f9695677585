/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/dbcdb/cmd/dbc/cmd"

func main() {
	cmd.Execute()
}
