package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli"

	"todo-tags/app/board"
	"todo-tags/app/client"
)

func main() {
	app := cli.NewApp()
	app.Name = "todo-tags-board"
	app.Usage = "filter tasks by tag in the terminal"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "server, s",
			Value:  "http://localhost:8080",
			Usage:  "base URL of the todo-tags API",
			EnvVar: "TODO_TAGS_SERVER",
		},
	}
	app.Action = func(c *cli.Context) error {
		p := tea.NewProgram(board.New(client.New(c.String("server"), nil)), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error running board: %v\n", err)
		os.Exit(1)
	}
}
