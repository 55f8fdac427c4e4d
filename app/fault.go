package app

import (
	"strings"

	"ironveil/nexis/console"
	"ironveil/nexis/kernel"
)

// paintFault replaces the screen with a fault report. The kernel is
// already stopped; only the console is touched.
func (a *App) paintFault(f *kernel.FaultInfo) {
	a.log.Errorf("kernel fault: %s", f.Reason)

	cons := a.k.Console()
	cons.SetAttr(console.MakeAttr(console.White, console.Red))
	cons.Clear()
	cons.WriteString("\n  KERNEL FAULT\n\n")
	for _, line := range strings.Split(f.String(), "\n") {
		cons.WriteString("  " + line + "\n")
	}
	cons.WriteString("\n  the machine is stopped\n")
	if err := cons.Flush(); err != nil {
		a.log.Warnf("present fault screen: %v", err)
	}
}
