package main

import "github.com/ritmaurya91-a11y/docker-image-security-auditor/cmd"

func main() {
	cmd.Execute()
}
