package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"tasklist/internal/config"
	"tasklist/internal/instance"
	"tasklist/pkg/task"
)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tasklist: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags, args := splitFlags(args)
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.Load(flags["config"])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if args[0] == "lists" {
		printLists(out, cfg)
		return nil
	}

	name := flags["list"]
	if name == "" {
		name = cfg.Instances[0].Name
	}
	in, err := cfg.Instance(name)
	if err != nil {
		return err
	}

	ctx := context.Background()
	opened, err := instance.Open(ctx, *in)
	if err != nil {
		return err
	}
	defer opened.Close()
	coll := task.NewCollection(opened.Store)

	switch args[0] {
	case "list":
		tasks, err := coll.All(ctx)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		if flags["format"] == "short" {
			printShortTasks(out, tasks)
			return nil
		}
		return printJSON(out, opened.Layout.Records(tasks))

	case "add":
		title := strings.Join(args[1:], " ")
		d := task.Draft{Title: title, Description: flags["description"]}
		d.Completed = flags["completed"] == "true"
		t, err := coll.Create(ctx, d)
		if errors.Is(err, task.ErrTitleRequired) {
			return errors.New("Usage: tasklist add <title> [--description=...] [--completed=true]")
		}
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return printJSON(out, opened.Layout.Record(*t))

	case "rm":
		if len(args) < 2 {
			return errors.New("Usage: tasklist rm <id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		t, err := coll.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return printJSON(out, opened.Layout.Record(*t))

	case "init":
		tasks, err := coll.All(ctx)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Fprintf(out, "%s: %d tasks (%s backend)\n", in.Name, len(tasks), in.Backend)
		return nil
	}
	return errUsage
}

// splitFlags separates --key=value arguments from positional ones.
func splitFlags(args []string) (map[string]string, []string) {
	flags := make(map[string]string)
	var rest []string
	for _, a := range args {
		if strings.HasPrefix(a, "--") {
			kv := strings.SplitN(a[2:], "=", 2)
			if len(kv) == 2 {
				flags[kv[0]] = kv[1]
			} else {
				flags[kv[0]] = "true"
			}
			continue
		}
		rest = append(rest, a)
	}
	return flags, rest
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func printShortTasks(out io.Writer, tasks []task.Task) {
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "%4d [%s] %s  %s\n", t.ID, mark, t.CreatedAt.Format("2006-01-02 15:04"), truncStr(t.Title, 60))
	}
}

func printLists(out io.Writer, cfg *config.Config) {
	for _, i := range cfg.Instances {
		fmt.Fprintf(out, "%-10s %-5s %-9s %-8s %s\n", i.Name, i.Layout, i.Backend, i.Addr, i.Base)
	}
}

// truncStr shortens s to at most n runes.
func truncStr(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: tasklist [--config=file.toml] [--list=name] <command>

Commands:
  list     Print every task (--format=short for one line each)
  add      Create a task: add <title> [--description=...] [--completed=true]
  rm       Delete a task by id: rm <id>
  init     Create the list's backing store if missing
  lists    Show configured lists`)
}
