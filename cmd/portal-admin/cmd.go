package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/noah-isme/attendance-portal/internal/calendar"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/service"
)

var errHelp = errors.New("help provided")

type checkInSource interface {
	CheckInsForDate(ctx context.Context, date string) ([]models.AttendanceRecord, error)
}

type exportRenderer interface {
	Render(records []models.AttendanceRecord, today string, format service.ExportFormat) (*service.ExportFile, error)
}

type commandLine struct {
	out      io.Writer
	now      func() time.Time
	calendar *calendar.Calendar
	checkIns checkInSource
	exports  exportRenderer
	migrate  func(ctx context.Context) ([]string, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  sessions [-remaining]                           - list the class sessions of the term")
	fmt.Fprintln(cli.out, "  export [-date YYYY-MM-DD] [-format csv|pdf] [-o FILE] - write the check-ins of a day")
	fmt.Fprintln(cli.out, "  migrate                                         - apply pending database migrations")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sessionsCmd := flag.NewFlagSet("sessions", flag.ContinueOnError)
	sessionsCmd.SetOutput(cli.out)
	sessionsRemaining := sessionsCmd.Bool("remaining", false, "Only list sessions from today onwards.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportCmd.SetOutput(cli.out)
	exportDate := exportCmd.String("date", "", "Class date to export. Defaults to today.")
	exportFormat := exportCmd.String("format", "csv", "Output format: csv or pdf.")
	exportOut := exportCmd.String("o", "", "Write to FILE instead of stdout.")

	switch args[1] {
	case "sessions":
		if err := sessionsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.listSessions(*sessionsRemaining)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		format, err := service.ParseFormat(*exportFormat)
		if err != nil {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportDate, format, *exportOut)
	case "migrate":
		return cli.runMigrations(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) listSessions(remaining bool) error {
	now := cli.now()
	sessions := cli.calendar.TermSessions(now)
	if remaining {
		sessions = cli.calendar.Sessions(now)
	}
	today := cli.calendar.Today(now)
	for _, s := range sessions {
		marker := ""
		if s == today {
			marker = " (today)"
		}
		fmt.Fprintf(cli.out, "%s %s%s\n", s, weekdayOf(s), marker)
	}
	return nil
}

func (cli *commandLine) export(ctx context.Context, date string, format service.ExportFormat, path string) error {
	if date == "" {
		date = cli.calendar.Today(cli.now())
	}
	records, err := cli.checkIns.CheckInsForDate(ctx, date)
	if err != nil {
		return err
	}
	file, err := cli.exports.Render(records, date, format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = cli.out.Write(file.Payload)
		return err
	}
	if err := os.WriteFile(path, file.Payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cli.out, "wrote %d check-ins to %s\n", len(records), path)
	return nil
}

func (cli *commandLine) runMigrations(ctx context.Context) error {
	applied, err := cli.migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cli.out, "no pending migrations")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cli.out, "applied %s\n", name)
	}
	return nil
}

func weekdayOf(date string) string {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return ""
	}
	return d.Weekday().String()[:3]
}
