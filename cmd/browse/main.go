// Command browse is a terminal client for the candidate listing. It drives
// the location dropdowns against the API, keeps the listing fresh while it is
// shown, and opens candidate pages with optimistic voting and comments.
//
// Commands:
//
//	regions | region ID | city ID | district ID | barangay ID
//	detect LAT LON | reset | list | hide | show
//	open POST_ID | vote [anon] | comment TEXT | reply ID TEXT | like ID
//	quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/votehubph/backend/internal/client"
	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/database"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/models"
	"github.com/votehubph/backend/internal/reconcile"
	"github.com/votehubph/backend/internal/refresh"
	"github.com/votehubph/backend/internal/selection"
)

type app struct {
	out     io.Writer
	api     *client.Client
	ctrl    *selection.Controller
	thread  *reconcile.Thread
	refresh *refresh.Refresher
}

func main() {
	token := flag.String("token", os.Getenv("VOTEHUB_TOKEN"), "bearer token from /api/login")
	userID := flag.Int("user", 0, "id of the signed-in user")
	name := flag.String("name", "", "display name of the signed-in user")
	flag.Parse()

	l := logger.Setup()
	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}

	api := client.New(cfg.APIBaseURL)
	thread := reconcile.NewThread(api, reconcile.WithNotifier(func(action string, err error) {
		fmt.Fprintf(os.Stdout, "! %s failed and was undone: %v\n", action, err)
	}))
	if *token != "" && *userID > 0 {
		api.SetAuth(*token, *userID)
		thread.SetSession(&reconcile.Session{UserID: *userID, Name: *name})
	}

	var store selection.Store = selection.NewFileStore(cfg.SelectionFile)
	if rdb := database.OpenRedis(cfg); rdb != nil && *userID > 0 {
		defer rdb.Close()
		store = selection.NewRedisStore(rdb, strconv.Itoa(*userID))
	}

	a := newApp(os.Stdout, api, store, thread, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.ctrl.Init(ctx); err != nil {
		l.Error("regions_load_error", "err", err)
		os.Exit(1)
	}
	if ok, err := a.ctrl.Restore(ctx); err != nil {
		l.Warn("selection_restore_error", "err", err)
	} else if ok {
		fmt.Fprintf(a.out, "restored: %s\n", describe(a.ctrl.Selection()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.refresh.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer stop()
		return a.repl(gctx, os.Stdin)
	})
	if err := g.Wait(); err != nil {
		l.Error("browse_error", "err", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer, api *client.Client, store selection.Store, thread *reconcile.Thread, cfg *config.Config) *app {
	a := &app{
		out:    out,
		api:    api,
		ctrl:   selection.New(api, store, selection.WithResolver(location.NewResolver(api))),
		thread: thread,
	}
	a.refresh = refresh.New(a.list, cfg.RefreshInterval, cfg.RefreshMinGap, cfg.ResumeGap)
	a.ctrl.Subscribe(func(e selection.Event) {
		if e.Kind == selection.Complete || e.Auto {
			return
		}
		fmt.Fprintf(a.out, "selection: %s\n", describe(e.Selection))
	})
	return a
}

// readLines streams lines from in until it is exhausted or ctx ends. The
// channel is closed either way.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (a *app) repl(ctx context.Context, in io.Reader) error {
	lines := readLines(ctx, in)
	for {
		fmt.Fprint(a.out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if fields[0] == "quit" || fields[0] == "exit" {
				return nil
			}
			if err := a.run(ctx, fields[0], fields[1:]); err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
			}
		}
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "regions":
		for _, r := range a.ctrl.State().Region.Options {
			fmt.Fprintf(a.out, "%4d  %s\n", r.ID, r.Name)
		}
		return nil
	case "region", "city", "district", "barangay":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return a.choose(ctx, cmd, id)
	case "detect":
		if len(args) != 2 {
			return fmt.Errorf("usage: detect LAT LON")
		}
		lat, err1 := strconv.ParseFloat(args[0], 64)
		lon, err2 := strconv.ParseFloat(args[1], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("latitude and longitude must be numbers")
		}
		hints, err := a.api.Detect(ctx, lat, lon)
		if err != nil {
			return fmt.Errorf("could not detect your location, please select manually: %w", err)
		}
		sel, err := a.ctrl.AutoDetect(ctx, hints)
		fmt.Fprintf(a.out, "detected %q / %q / %q -> %s\n", hints.Region, hints.City, hints.Barangay, describe(sel))
		if err != nil {
			return err
		}
		return a.list(ctx)
	case "reset":
		if err := a.ctrl.Reset(ctx); err != nil {
			return err
		}
		return a.list(ctx)
	case "list":
		return a.list(ctx)
	case "hide":
		a.refresh.SetVisible(false)
		return nil
	case "show":
		return a.resume(ctx)
	case "open":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		detail, err := a.api.GetPost(ctx, id)
		if err != nil {
			return err
		}
		a.thread.Load(detail)
		a.show()
		return nil
	case "vote":
		err := a.thread.ToggleVote(ctx, len(args) > 0 && args[0] == "anon")
		a.show()
		return err
	case "comment":
		_, err := a.thread.PostComment(ctx, strings.Join(args, " "), false)
		a.show()
		return err
	case "reply":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		_, err = a.thread.Reply(ctx, id, strings.Join(args[1:], " "), false)
		a.show()
		return err
	case "like":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		err = a.thread.ToggleLike(ctx, id)
		a.show()
		return err
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) choose(ctx context.Context, level string, id int) error {
	var err error
	switch level {
	case "region":
		err = a.ctrl.SelectRegion(ctx, id)
	case "city":
		err = a.ctrl.SelectCity(ctx, id)
	case "district":
		err = a.ctrl.SelectDistrict(ctx, id)
	case "barangay":
		err = a.ctrl.SelectBarangay(ctx, id)
	}
	if err != nil {
		return err
	}

	st := a.ctrl.State()
	switch {
	case level == "region":
		printOptions(a.out, st.City.Options, func(c models.City) (int, string) { return c.ID, c.Name })
	case level == "city" && st.DistrictRequired():
		printOptions(a.out, st.District.Options, func(d models.District) (int, string) { return d.ID, d.Name })
	case level == "city" || level == "district":
		printOptions(a.out, st.Barangay.Options, func(b models.Barangay) (int, string) { return b.ID, b.Name })
	}
	return a.list(ctx)
}

// resume picks up a selection saved elsewhere while the listing was hidden,
// then lets the refresher catch up.
func (a *app) resume(ctx context.Context) error {
	defer a.refresh.SetVisible(true)
	before := a.ctrl.Selection()
	if _, err := a.ctrl.Restore(ctx); err != nil {
		return err
	}
	if a.ctrl.Selection() == before {
		return nil
	}
	return a.list(ctx)
}

// list fetches approved posts for the current selection.
func (a *app) list(ctx context.Context) error {
	sel := a.ctrl.Selection()
	posts, err := a.api.ListPosts(ctx, models.PostFilter{
		RegionID:   sel.RegionID,
		CityID:     sel.CityID,
		DistrictID: sel.DistrictID,
		BarangayID: sel.BarangayID,
		Status:     models.StatusApproved,
	})
	a.refresh.Touch()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d candidates in %s\n", len(posts), describe(sel))
	for _, p := range posts {
		fmt.Fprintf(a.out, "%5d  %-28s %-20s votes=%d comments=%d\n", p.ID, p.Name, p.Position, p.VotesCount, p.CommentsCount)
	}
	return nil
}

func (a *app) show() {
	s := a.thread.Snapshot()
	voted := ""
	if s.Vote.HasVoted {
		voted = " (you voted)"
	}
	fmt.Fprintf(a.out, "post %d: %d votes%s, %d comments\n", s.PostID, s.Vote.VotesCount, voted, s.CommentsCount)
	printComments(a.out, s.Comments, 1)
}

func printComments(w io.Writer, cs []models.CommentView, depth int) {
	for _, c := range cs {
		liked := ""
		if c.UserHasLiked {
			liked = " *"
		}
		fmt.Fprintf(w, "%s[%d] %s: %s (%d likes%s)\n", strings.Repeat("  ", depth), c.ID, c.UserName, c.Content, c.LikesCount, liked)
		printComments(w, c.Replies, depth+1)
	}
}

func printOptions[T any](w io.Writer, opts []T, show func(T) (int, string)) {
	for _, o := range opts {
		id, name := show(o)
		fmt.Fprintf(w, "%6d  %s\n", id, name)
	}
}

func describe(sel models.LocationSelection) string {
	if sel.IsZero() {
		return "all locations"
	}
	return fmt.Sprintf("region=%d city=%d district=%d barangay=%d (%s)",
		sel.RegionID, sel.CityID, sel.DistrictID, sel.BarangayID, sel.Depth())
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing id")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return n, nil
}
