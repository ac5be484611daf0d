// Package main implements the crossgrant CLI tool.
// It provisions cross-project GCP access and verifies it end to end.
package main

import "github.com/andrew-woosnam/crossgrant/cmd/crossgrant/cmd"

func main() {
	cmd.Execute()
}
