package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/studyhall-app/studyhall/internal/api"
	"github.com/studyhall-app/studyhall/internal/config"
	"github.com/studyhall-app/studyhall/internal/ui"
)

const version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("StudyHall v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	cfg := config.Load()

	// Stdout belongs to the TUI; leveled logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", cfg.LogFile, err)
		os.Exit(1)
	}
	defer logFile.Close()
	jww.SetLogOutput(logFile)
	jww.SetLogThreshold(jww.LevelInfo)
	jww.SetStdoutThreshold(jww.LevelFatal)

	client := api.NewClient(cfg.APIBaseURL, cfg.Token)
	app := ui.NewApp(cfg, client)

	p := tea.NewProgram(app, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if a, ok := finalModel.(ui.App); ok {
		a.Teardown()
	}
}

func printHelp() {
	help := `StudyHall - Terminal Messaging Client

Usage:
  studyhall            Start the messaging client
  studyhall version    Show version information
  studyhall help       Show this help message

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Select/Open item
  ESC               Go back
  q                 Quit from the home screen
  ctrl+c            Force quit

Home:
  💬 Messages         Contacts and conversations (shows the unread badge)
  🤖 Course Assistant Ask questions about the course you opened the app from

Contacts:
  enter             Open a conversation
  a                 Switch to the course assistant
  /                 Search contacts
  r                 Refresh the contact list

Conversation:
  ↑/↓ or j/k        Scroll (reaching the top loads older messages)
  n or c            Compose a message
  ctrl+s            Send (while composing)

Configuration (environment or .env):
  STUDYHALL_API_URL   Platform REST API base URL
  STUDYHALL_WS_URL    Push channel websocket URL
  STUDYHALL_TOKEN     Bearer token of the logged-in user
  STUDYHALL_LOCATION  Web-app page the client was opened from
                      (course pages give the assistant its context)
  STUDYHALL_LOG_FILE  Log file path (default studyhall.log)
`
	fmt.Print(help)
}
