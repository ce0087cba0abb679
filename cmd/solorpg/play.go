package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/config"
	"github.com/daemonforge/solorpg/internal/daemon"
	"github.com/daemonforge/solorpg/internal/dice"
	"github.com/daemonforge/solorpg/internal/game"
	"github.com/daemonforge/solorpg/internal/persist"
	"github.com/daemonforge/solorpg/internal/rules"
	"github.com/daemonforge/solorpg/internal/scripting"
)

func runPlay(cfg *config.Config, log *zap.Logger, path, name string, seed int64) error {
	pkg, err := newLoader(cfg, log).LoadFile(path)
	if err != nil {
		return fmt.Errorf("load package: %w", err)
	}

	if seed == 0 {
		if seed, err = dice.NewSeed(); err != nil {
			return err
		}
	}
	roller := dice.NewSeeded(seed)

	player := game.NewCharacter(name, game.RollAttributes(roller), nil)
	st, err := game.NewState(pkg, player, log)
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	log.Info("session started",
		zap.String("session", st.ID.String()),
		zap.String("package", pkg.Definition.ID),
		zap.Int64("seed", seed))

	opts := []game.Option{game.WithLogger(log)}

	if cfg.Scripting.DamageScript != "" {
		eng, err := scripting.NewEngine(cfg.Scripting.DamageScript, log)
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		defer eng.Close()
		opts = append(opts, game.WithDamageFormula(eng))
	}

	if cfg.Journal.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Journal, log)
		if err != nil {
			return fmt.Errorf("journal database: %w", err)
		}
		defer db.Close()
		if _, err := db.MigrateJournal(ctx); err != nil {
			return err
		}

		repo := persist.NewJournalRepo(db)
		if err := repo.RegisterSession(ctx, persist.SessionInfo{
			ID:            st.ID,
			PackageID:     pkg.Definition.ID,
			PackageDigest: pkg.Digest,
			PlayerName:    name,
			Seed:          seed,
		}); err != nil {
			return err
		}

		journal := persist.NewJournal(repo, cfg.Journal.BatchSize, log)
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := journal.Flush(flushCtx); err != nil {
				log.Error("final journal flush", zap.Error(err), zap.Int("lost", journal.Pending()))
			}
		}()
		opts = append(opts, game.WithRecorder(journal))
	}

	s := game.NewSession(st, roller, opts...)
	fmt.Printf("%s (seed %d)\n\n", pkg.Definition.Name, seed)
	err = playLoop(s, os.Stdin, os.Stdout)
	logDaemons(log, st)
	return err
}

// logDaemons writes every actor's final drives at debug level.
func logDaemons(log *zap.Logger, st *game.State) {
	for _, id := range st.Daemons.Actors() {
		d, _ := st.Daemons.Lookup(id)
		log.Debug("daemon at session end",
			zap.String("session", st.ID.String()),
			zap.String("actor", id),
			zap.String("drives", drives(d)))
	}
}

// drives lists the non-zero drives of a daemon by name.
func drives(d *daemon.State) string {
	var parts []string
	for _, n := range d.Names() {
		if v := d.Drive(n); v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", n, v))
		}
	}
	return strings.Join(parts, ", ")
}

func playLoop(s *game.Session, in io.Reader, out io.Writer) error {
	describe(s, out)
	if node := s.State.CurrentNode(); node != nil {
		showNode(s, out)
	}
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		if quit := execute(s, sc.Text(), out); quit {
			return nil
		}
		if !s.State.Player.Alive() {
			fmt.Fprintln(out, "You have fallen.")
			return nil
		}
	}
	return sc.Err()
}

// execute runs one command line and reports whether the player quit.
func execute(s *game.Session, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch verb {
	case "quit", "exit":
		return true
	case "look", "l":
		describe(s, out)
	case "status":
		status(s, out)
	case "go":
		if !s.Move(arg(0)) {
			fmt.Fprintln(out, "You can't go that way.")
			return false
		}
		describe(s, out)
	case "take":
		if !s.Take(arg(0)) {
			fmt.Fprintln(out, "That isn't here.")
			return false
		}
		fmt.Fprintf(out, "Taken: %s.\n", itemName(s, arg(0)))
	case "talk":
		if _, err := s.Talk(arg(0)); err != nil {
			fmt.Fprintln(out, "Nobody answers.")
			return false
		}
		showNode(s, out)
	case "choose":
		n, err := strconv.Atoi(arg(0))
		if err != nil {
			fmt.Fprintln(out, "Choose a number.")
			return false
		}
		res, err := s.Choose(n - 1)
		switch {
		case errors.Is(err, game.ErrNoStory):
			fmt.Fprintln(out, "Nothing to choose right now.")
			return false
		case err != nil:
			fmt.Fprintln(out, "No such choice.")
			return false
		}
		if res.Check != nil || res.Opposed != nil {
			if res.Passed {
				fmt.Fprintln(out, "Success.")
			} else {
				fmt.Fprintln(out, "Failure.")
			}
		}
		if res.Ended {
			fmt.Fprintln(out, "The conversation ends.")
		} else if res.Passed {
			showNode(s, out)
		}
	case "attack":
		dt := rules.Medium
		if a := arg(1); a != "" {
			t, err := rules.ParseDamageType(a)
			if err != nil {
				fmt.Fprintln(out, err)
				return false
			}
			dt = t
		}
		res, err := s.Attack(arg(0), dt)
		if err != nil {
			fmt.Fprintln(out, "There is no one to attack.")
			return false
		}
		if res.Damage != nil {
			fmt.Fprintf(out, "You hit for %d.\n", res.Damage.Damage)
		} else {
			fmt.Fprintln(out, "You miss.")
		}
		if res.Defeated {
			fmt.Fprintf(out, "%s falls.\n", npcName(s, arg(0)))
		}
		if res.Counter != nil {
			if res.CounterDamage != nil {
				fmt.Fprintf(out, "%s strikes back for %d.\n", npcName(s, arg(0)), res.CounterDamage.Damage)
			} else {
				fmt.Fprintf(out, "%s strikes back and misses.\n", npcName(s, arg(0)))
			}
		}
	case "event":
		if !s.TriggerEvent(arg(0)) {
			fmt.Fprintln(out, "Nothing happens.")
		}
	default:
		fmt.Fprintf(out, "Unknown command %q. Try: look, status, go, take, talk, choose, attack, event, quit.\n", verb)
	}
	return false
}

func describe(s *game.Session, out io.Writer) {
	loc := s.State.Location
	fmt.Fprintf(out, "%s\n%s\n", loc.Name, loc.Description)
	for _, id := range loc.NpcIDs {
		fmt.Fprintf(out, "  %s is here.\n", npcName(s, id))
	}
	for _, id := range loc.ItemIDs {
		fmt.Fprintf(out, "  You see %s.\n", itemName(s, id))
	}
	if len(loc.Connections) > 0 {
		dirs := make([]string, 0, len(loc.Connections))
		for d := range loc.Connections {
			dirs = append(dirs, d)
		}
		sort.Strings(dirs)
		fmt.Fprintf(out, "Exits: %s\n", strings.Join(dirs, ", "))
	}
}

func showNode(s *game.Session, out io.Writer) {
	node := s.State.CurrentNode()
	if node == nil {
		return
	}
	if node.Title != "" {
		fmt.Fprintf(out, "[%s]\n", node.Title)
	}
	fmt.Fprintln(out, node.Text)
	for i, c := range node.Choices {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c.Label)
	}
}

func status(s *game.Session, out io.Writer) {
	st := s.State
	p := st.Player
	fmt.Fprintf(out, "%s  HP %d/%d  Defense %d  Turn %d\n", p.Name, p.HP, p.MaxHP, p.Defense(), st.Turn)
	for _, a := range rules.Attributes {
		fmt.Fprintf(out, "  %-8s %d\n", a, p.Attributes[a])
	}
	if len(st.Inventory) > 0 {
		fmt.Fprintf(out, "Carrying: %s\n", strings.Join(st.Inventory, ", "))
	}
	if d, ok := st.Daemons.Lookup(game.PlayerID); ok {
		if line := drives(d); line != "" {
			fmt.Fprintf(out, "Drives: %s\n", line)
		}
	}
}

func npcName(s *game.Session, id string) string {
	if n, ok := s.State.World.NPCs[id]; ok && n.Name != "" {
		return n.Name
	}
	return id
}

func itemName(s *game.Session, id string) string {
	if it, ok := s.State.World.Items[id]; ok && it.Name != "" {
		return it.Name
	}
	return id
}
