package main

import "github.com/denismitr/imagebin/cmd/imgtool/cmd"

func main() {
	cmd.Execute()
}
