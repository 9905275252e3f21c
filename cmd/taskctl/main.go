// Command taskctl drives the task service from a terminal using a persisted session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"task-service/internal/model"
	"task-service/pkg/client"

	"github.com/google/uuid"
)

const usage = `usage: taskctl [-url URL] [-session FILE] <command> [args]

commands:
  login <email> <password>
  logout
  whoami
  tasks
  users
  status <task-id> <status>
  dashboard
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "taskctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("taskctl", flag.ContinueOnError)
	baseURL := fs.String("url", envOr("TASKCTL_URL", "http://localhost:8001"), "task service base URL")
	sessionPath := fs.String("session", envOr("TASKCTL_SESSION", defaultSessionPath()), "session file")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	c, err := client.New(*baseURL, client.WithStore(client.NewFileStore(*sessionPath)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		if len(rest) != 2 {
			return errors.New("login needs <email> <password>")
		}
		session, err := c.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s (%s)\n", session.User.Name, session.User.Role)
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
	case "whoami":
		session := c.Session()
		if session == nil {
			return client.ErrNoSession
		}
		fmt.Fprintf(out, "%s <%s> role=%s id=%s\n", session.User.Name, session.User.Email, session.User.Role, session.User.ID)
	case "tasks":
		tasks, err := c.Tasks(ctx)
		if err != nil {
			return err
		}
		printTasks(out, tasks)
	case "users":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		printUsers(out, users)
	case "status":
		if len(rest) != 2 {
			return errors.New("status needs <task-id> <status>")
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", rest[0])
		}
		task, err := c.UpdateTaskStatus(ctx, id, rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is now %s\n", task.Title, task.Status)
	case "dashboard":
		summary, err := c.Dashboard(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tasks: %d\nusers: %d\n", summary.TotalTasks, summary.TotalUsers)
		for _, status := range model.Statuses {
			fmt.Fprintf(out, "  %-12s %d\n", status, summary.TasksByStatus[status])
		}
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printTasks(out io.Writer, tasks []model.TaskDetails) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDEADLINE\tOWNER")
	for _, t := range tasks {
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, deadline, t.UserName)
	}
	tw.Flush()
}

func printUsers(out io.Writer, users []model.PublicUser) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	tw.Flush()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".taskctl-session.json"
	}
	return filepath.Join(dir, "taskctl", "session.json")
}
