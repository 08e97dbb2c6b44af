package main

import (
	"wcprobe/cmd/wcprobe/commands"
	"wcprobe/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
