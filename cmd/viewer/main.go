package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"examguard/viewer/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("url", "", "Read stored reports from this API server instead of files")
	quizID := flag.String("quiz", "", "Only show reports of this quiz (with -url)")
	limit := flag.Int("limit", 20, "Maximum number of stored reports to load (with -url)")
	flag.Parse()

	var loader tui.Loader
	if *apiURL != "" {
		loader = tui.APILoader{Client: tui.NewReportsClient(*apiURL), QuizID: *quizID, Limit: *limit}
	} else {
		paths := flag.Args()
		if len(paths) == 0 {
			paths = []string{"."}
		}
		loader = tui.FileLoader{Paths: paths}
	}

	program := tea.NewProgram(tui.NewModel(loader))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
