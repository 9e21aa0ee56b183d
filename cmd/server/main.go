package main

import "github.com/nguyentranbao-ct/hds-chat/cmd"

func main() {
	cmd.Execute()
}
