// Command attend is the terminal host for the attendance client: login,
// today's punch status, a live watch view, punch actions, the month
// calendar, and report export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/staffsync/attendance-go/internal/client"
	"github.com/staffsync/attendance-go/internal/config"
	"github.com/staffsync/attendance-go/internal/domain/attendance"
	"github.com/staffsync/attendance-go/internal/domain/session"
	"github.com/staffsync/attendance-go/internal/pkg/sessionstore"
	"github.com/staffsync/attendance-go/internal/repository/sqlite"
	engine "github.com/staffsync/attendance-go/internal/service/attendance"
	"github.com/staffsync/attendance-go/internal/service/export"
	"github.com/staffsync/attendance-go/internal/service/punch"
	"github.com/staffsync/attendance-go/internal/service/watch"
	"github.com/staffsync/attendance-go/internal/service/wifi"
)

const usage = `Usage: attend <command> [flags]

Commands:
  login     authenticate and store the session
  logout    clear the stored session
  status    show today's punch state
  watch     live view: clock, duration, calendar (Ctrl-C to quit)
  punch     punch in or out (attend punch in|out [-photo file])
  calendar  print the month's attendance calendar
  export    write reports (attend export csv|pdf|server-attendance|server-leaves)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With(
		slog.String("app", "attend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	app := &app{cfg: cfg, logger: logger}
	if app.store, err = openSessionStore(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		return app.login(ctx, rest)
	case "logout":
		return app.store.Clear()
	case "status":
		return app.status(ctx)
	case "watch":
		return app.watch(ctx)
	case "punch":
		return app.punch(ctx, rest)
	case "calendar":
		return app.calendar(ctx, rest)
	case "export":
		return app.export(ctx, rest)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *sessionstore.FileStore
}

func openSessionStore(cfg *config.Config) (*sessionstore.FileStore, error) {
	path := cfg.App.SessionPath
	if path == "" {
		var err error
		if path, err = sessionstore.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return sessionstore.NewFileStore(path), nil
}

// authedClient loads a valid session and builds the backend client. An
// unauthorized response anywhere clears the stored session, mirroring the
// web client's redirect to login.
func (a *app) authedClient() (*client.Client, session.Session, error) {
	sess, err := a.store.LoadValid(time.Now())
	if err != nil {
		return nil, session.Session{}, err
	}
	c := client.New(a.cfg.API.BaseURL, sess,
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}),
		client.WithLogger(a.logger),
		client.WithOnUnauthorized(func() {
			if err := a.store.Clear(); err != nil {
				a.logger.Warn("failed to clear session", "error", err)
			}
		}),
	)
	return c, sess, nil
}

func (a *app) buildEngine() (*engine.Engine, error) {
	policy, err := engine.NewWindowPolicy(
		a.cfg.Punch.PolicyMode,
		engine.Cutoff{Hour: a.cfg.Punch.InCutoffHour, Minute: a.cfg.Punch.InCutoffMinute},
		engine.Cutoff{Hour: a.cfg.Punch.OutCutoffHour, Minute: a.cfg.Punch.OutCutoffMinute},
		a.cfg.Punch.PhotoRequired,
	)
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(policy, loc), nil
}

func (a *app) openCache() (*sqlite.HistoryRepository, error) {
	path := a.cfg.App.CachePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".attend", "cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return sqlite.NewHistoryRepository(path)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	employeeID := fs.String("employee-id", "", "employee id")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *employeeID == "" || *password == "" {
		return errors.New("both -employee-id and -password are required")
	}

	c := client.New(a.cfg.API.BaseURL, session.Session{},
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}),
		client.WithLogger(a.logger))
	sess, err := c.Login(ctx, *employeeID, *password)
	if err != nil {
		return err
	}
	if err := a.store.Save(sess); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", sess.User.Name, sess.User.EmployeeID)
	return nil
}

func (a *app) status(ctx context.Context) error {
	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	eng, err := a.buildEngine()
	if err != nil {
		return err
	}

	status, err := c.Status(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	switch attendance.StateOf(status) {
	case attendance.WorkNotStarted:
		fmt.Println("Not yet punched in today")
	case attendance.WorkInProgress:
		fmt.Printf("Punched in at %s, working for %s\n",
			status.PunchIn.In(eng.Location()).Format("15:04"),
			engine.DurationLabel(status, now))
	case attendance.WorkCompleted:
		fmt.Printf("Punched in at %s, out at %s, total %s\n",
			status.PunchIn.In(eng.Location()).Format("15:04"),
			status.PunchOut.In(eng.Location()).Format("15:04"),
			engine.DurationLabel(status, now))
	}
	fmt.Printf("Punch in allowed: %t   Punch out allowed: %t\n",
		eng.CanPunchIn(now), eng.CanPunchOut(now))
	return nil
}

func (a *app) watch(ctx context.Context) error {
	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	eng, err := a.buildEngine()
	if err != nil {
		return err
	}

	opts := []watch.Option{
		watch.WithPollInterval(a.cfg.Poll.StatusInterval),
		watch.WithTickInterval(a.cfg.Poll.TickInterval),
		watch.WithWifiVerifier(wifi.NewVerifier(c)),
		watch.WithLogger(a.logger),
	}
	if cache, err := a.openCache(); err == nil {
		defer cache.Close()
		opts = append(opts, watch.WithHistoryCache(cache))
	} else {
		a.logger.Warn("history cache unavailable", "error", err)
	}

	sessn := watch.NewSession(eng, c, opts...)

	go func() {
		for snap := range sessn.Snapshots() {
			line := snap.String()
			if snap.Notice != "" {
				line += "  [" + snap.Notice + "]"
			}
			fmt.Printf("\r\033[K%s", line)
		}
	}()

	err = sessn.Run(ctx)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("session expired, login again: %w", err)
	}
	return err
}

func (a *app) punch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("punch", flag.ContinueOnError)
	photoPath := fs.String("photo", "", "proof photo file")

	var direction string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		direction, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if direction != "in" && direction != "out" {
		return errors.New("usage: attend punch in|out [-photo file]")
	}

	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	eng, err := a.buildEngine()
	if err != nil {
		return err
	}

	req := attendance.PunchRequest{}
	if *photoPath != "" {
		f, err := os.Open(*photoPath)
		if err != nil {
			return fmt.Errorf("failed to open photo: %w", err)
		}
		defer f.Close()
		req.Photo = f
		req.PhotoFilename = filepath.Base(*photoPath)
	}

	svc := punch.NewService(eng, c, wifi.NewVerifier(c),
		punch.WithMinWorkDuration(a.cfg.Punch.MinWorkDuration),
		punch.WithLogger(a.logger),
	)

	var resp attendance.PunchResponse
	if direction == "in" {
		resp, err = svc.PunchIn(ctx, req)
	} else {
		resp, err = svc.PunchOut(ctx, req)
	}
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func (a *app) calendar(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month to show (YYYY-MM, default current)")
	offline := fs.Bool("offline", false, "use the local cache instead of the backend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := a.buildEngine()
	if err != nil {
		return err
	}
	cal, err := a.projectMonth(ctx, eng, *monthFlag, *offline)
	if err != nil {
		return err
	}

	printCalendar(cal)
	sum := export.Summarize(cal)
	fmt.Printf("\nPresent: %d   Absent: %d   Remaining: %d\n", sum.Present, sum.Absent, sum.Future)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: attend export csv|pdf|server-attendance|server-leaves [flags]")
	}
	kind, args := args[0], args[1:]

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month to export (YYYY-MM, default current)")
	outPath := fs.String("out", "", "output file (default derived from kind)")
	offline := fs.Bool("offline", false, "use the local cache instead of the backend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch kind {
	case "server-attendance", "server-leaves":
		c, _, err := a.authedClient()
		if err != nil {
			return err
		}
		name := "attendance.csv"
		download := c.DownloadAttendanceCSV
		if kind == "server-leaves" {
			name = "leaves.csv"
			download = c.DownloadLeavesCSV
		}
		return writeTo(orDefault(*outPath, name), func(f *os.File) error {
			return download(ctx, f)
		})

	case "csv", "pdf":
		eng, err := a.buildEngine()
		if err != nil {
			return err
		}
		cal, err := a.projectMonth(ctx, eng, *monthFlag, *offline)
		if err != nil {
			return err
		}
		if kind == "csv" {
			return writeTo(orDefault(*outPath, "attendance-month.csv"), func(f *os.File) error {
				return export.WriteMonthCSV(f, cal)
			})
		}
		// The employee name is decoration on the report; a missing
		// session just leaves it blank.
		var name string
		if sess, err := a.store.Load(); err == nil {
			name = sess.User.Name
		}
		return writeTo(orDefault(*outPath, "attendance-month.pdf"), func(f *os.File) error {
			return export.WriteMonthPDF(f, cal, name)
		})

	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}
}

// projectMonth builds the presence map from the backend (refreshing the
// cache) or from the cache alone, then projects the requested month.
func (a *app) projectMonth(ctx context.Context, eng *engine.Engine, monthFlag string, offline bool) (attendance.MonthCalendar, error) {
	now := time.Now().In(eng.Location())
	year, month := now.Year(), now.Month()
	if monthFlag != "" {
		parsed, err := time.ParseInLocation("2006-01", monthFlag, eng.Location())
		if err != nil {
			return attendance.MonthCalendar{}, fmt.Errorf("invalid -month %q, want YYYY-MM: %w", monthFlag, err)
		}
		year, month = parsed.Year(), parsed.Month()
	}

	var byDate map[string]bool
	if offline {
		cache, err := a.openCache()
		if err != nil {
			return attendance.MonthCalendar{}, err
		}
		defer cache.Close()
		from := fmt.Sprintf("%04d-%02d-01", year, month)
		to := fmt.Sprintf("%04d-%02d-31", year, month)
		if byDate, err = cache.ListRange(ctx, from, to); err != nil {
			return attendance.MonthCalendar{}, err
		}
	} else {
		c, _, err := a.authedClient()
		if err != nil {
			return attendance.MonthCalendar{}, err
		}
		entries, err := c.History(ctx)
		if err != nil {
			return attendance.MonthCalendar{}, err
		}
		byDate = engine.BuildPresenceMap(entries, eng.Location(), a.logger)
		if cache, err := a.openCache(); err == nil {
			if err := cache.UpsertDays(ctx, byDate, time.Now()); err != nil {
				a.logger.Warn("failed to refresh history cache", "error", err)
			}
			cache.Close()
		}
	}

	return engine.ProjectMonth(year, month, now, byDate, eng.Location()), nil
}

func printCalendar(cal attendance.MonthCalendar) {
	fmt.Printf("Attendance Calendar - %s %d\n", cal.Month, cal.Year)
	fmt.Println("Sun  Mon  Tue  Wed  Thu  Fri  Sat")

	col := 0
	for i := 0; i < cal.StartWeekday; i++ {
		fmt.Print("     ")
		col++
	}
	for _, d := range cal.Days {
		mark := " "
		switch d.Classification {
		case attendance.DayPresent:
			mark = "+"
		case attendance.DayAbsent:
			mark = "."
		}
		fmt.Printf("%2d%s  ", d.Date.Day(), mark)
		col++
		if col == 7 {
			fmt.Println()
			col = 0
		}
	}
	if col != 0 {
		fmt.Println()
	}
}

func writeTo(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	fmt.Println("Wrote", path)
	return nil
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
