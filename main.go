package main

import "github.com/jobsitesnap/rescue-engine/cmd"

func main() {
	cmd.Execute()
}
