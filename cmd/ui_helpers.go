package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startAreaSpinner shows rotating frames followed by text in a pterm area
// until the returned function is called. The cursor is hidden meanwhile.
// When stdout is not a terminal nothing is drawn.
func startAreaSpinner(text string, interval time.Duration) func() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func() {}
	}

	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				area.Update(fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text))
				i++
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			_ = area.Stop()
			cursor.Show()
		})
	}
}

// withSpinner runs fn while a spinner is displayed.
func withSpinner(text string, fn func() error) error {
	stop := startAreaSpinner(text, 120*time.Millisecond)
	defer stop()
	return fn()
}
