// Command tracesh is a raw-mode console that drains the kernel's
// trace event log to the terminal and quits on any keypress. It is
// meant to sit beside a host-simulated kernel.Start during
// development: open a tty, put it in raw mode, read one key at a time.
package main

import (
	"fmt"
	"os"
	"time"

	tty "github.com/mattn/go-tty"

	"rtkernel/src/kernel"
)

func main() {
	t, err := tty.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracesh: %v\n", err)
		os.Exit(1)
	}
	defer t.Close()

	log := newEventLog(2048)
	kernel.SetHooks(newTraceHooks(log))

	fmt.Println("tracesh: watching kernel trace events, press any key to quit")

	quit := make(chan struct{})
	go func() {
		t.ReadRune()
		close(quit)
	}()

	for {
		select {
		case <-quit:
			return
		case <-time.After(100 * time.Millisecond):
			log.Drain(func(e TraceEvent) {
				fmt.Printf("%s %-28s task=%-16s %s\n",
					e.When.Format("15:04:05.000"), e.Hook, e.Task, e.Detail)
			})
		}
	}
}
