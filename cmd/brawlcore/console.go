package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/udisondev/brawlcore/internal/cache"
	"github.com/udisondev/brawlcore/internal/game/combat"
	"github.com/udisondev/brawlcore/internal/game/economy"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/inventory"
	"github.com/udisondev/brawlcore/internal/game/stats"
	"github.com/udisondev/brawlcore/internal/model"
)

const consoleHelp = `commands:
  fight <attacker> <target> [item] [extra targets...]
  heal <healer> <target> <item>
  use <user> <item> [target]
  status <source> <target> <type> <value> <duration> [interval]
  give <player> <item> <qty>
  equip <player> <passive> | unequip <player>
  coins <player> <amount> | daily <player> | steal <thief> <target> <item>
  show <player>
  help`

// console is a line-oriented driver for manual play against a running
// engine. It stands in for the chat host.
type console struct {
	engine  *combat.Engine
	economy *economy.Service
	stats   *stats.Store
	ledger  *effects.Ledger
	equip   *cache.EquipCache
	inv     inventory.Store
}

func (c *console) run(ctx context.Context, in io.Reader, out io.Writer) error {
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

	fmt.Fprintln(out, consoleHelp)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.exec(ctx, out, strings.Fields(line)); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func (c *console) exec(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "fight":
		if len(args) < 2 {
			return errUsage
		}
		req := combat.FightRequest{AttackerID: args[0], TargetID: args[1]}
		if len(args) > 2 {
			req.ItemID = args[2]
			req.ExtraTargets = args[3:]
		}
		res, err := c.engine.RunFight(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s hits %s for %d (crit=%t dodged=%t ko=%t) hp=%d shield=%d\n",
			res.AttackerID, res.TargetID, res.Primary.Final, res.Primary.Crit, res.Primary.Dodged,
			res.Primary.KO, res.Primary.FinalHP, res.Primary.FinalShield)
		for _, hit := range res.Secondary {
			fmt.Fprintf(out, "  chain → %s for %d\n", hit.TargetID, hit.Final)
		}
		printMessages(out, res.Messages)

	case "heal":
		if len(args) < 3 {
			return errUsage
		}
		res, err := c.engine.RunHeal(ctx, combat.HealRequest{HealerID: args[0], TargetID: args[1], ItemID: args[2]})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s heals %s for %d (shield +%d)\n", res.HealerID, res.TargetID, res.Healed, res.ShieldGained)
		printMessages(out, res.Messages)

	case "use":
		if len(args) < 2 {
			return errUsage
		}
		req := combat.UseRequest{UserID: args[0], ItemID: args[1]}
		if len(args) > 2 {
			req.TargetID = args[2]
		}
		res, err := c.engine.RunUseItem(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s used %s (%s) on %s consumed=%t\n", res.UserID, res.ItemID, res.Kind, res.TargetID, res.ItemConsumed)
		if res.Status != nil {
			printOutcome(out, *res.Status)
		}

	case "status":
		if len(args) < 5 {
			return errUsage
		}
		value, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		dur, err := time.ParseDuration(args[4])
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		var interval time.Duration
		if len(args) > 5 {
			if interval, err = time.ParseDuration(args[5]); err != nil {
				return fmt.Errorf("interval: %w", err)
			}
		}
		res, err := c.engine.ApplyStatus(ctx, combat.StatusRequest{
			SourceID: args[0], TargetID: args[1], Type: model.EffectType(args[2]),
			Value: value, Duration: dur, Interval: interval,
		})
		if err != nil {
			return err
		}
		printOutcome(out, res)

	case "give":
		if len(args) < 3 {
			return errUsage
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("qty: %w", err)
		}
		if c.engine.Item(args[1]) == nil {
			return fmt.Errorf("%w: %q", combat.ErrUnknownItem, args[1])
		}
		return c.inv.Grant(ctx, args[0], args[1], qty)

	case "equip":
		if len(args) < 2 {
			return errUsage
		}
		return c.equip.Equip(ctx, args[0], args[1])

	case "unequip":
		if len(args) < 1 {
			return errUsage
		}
		return c.equip.Unequip(ctx, args[0])

	case "coins":
		if len(args) < 2 {
			return errUsage
		}
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		got, err := c.economy.GainCoins(ctx, args[0], amount, "console")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s +%d coins\n", args[0], got)

	case "daily":
		if len(args) < 1 {
			return errUsage
		}
		got, err := c.economy.ClaimDaily(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s claimed %d coins\n", args[0], got)

	case "steal":
		if len(args) < 3 {
			return errUsage
		}
		res, err := c.economy.TryTheft(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if !res.Stolen {
			fmt.Fprintf(out, "theft blocked by %s: %s\n", res.BlockedBy, res.Message)
			return nil
		}
		fmt.Fprintf(out, "%s stole %s from %s\n", res.ThiefID, res.ItemID, res.TargetID)

	case "show":
		if len(args) < 1 {
			return errUsage
		}
		return c.show(ctx, out, args[0])

	case "help":
		fmt.Fprintln(out, consoleHelp)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

var errUsage = errors.New("not enough arguments (try help)")

func (c *console) show(ctx context.Context, out io.Writer, playerID string) error {
	row, err := c.stats.Get(ctx, playerID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s hp=%d/%d shield=%d/%d dead=%t kills=%d deaths=%d\n",
		row.PlayerID, row.HP, row.MaxHP, row.Shield, row.MaxShield, row.IsDead, row.Kills, row.Deaths)

	recs, err := c.ledger.List(ctx, playerID)
	if err != nil {
		return err
	}
	now := c.ledger.Now()
	for _, rec := range recs {
		fmt.Fprintf(out, "  %s %.1f %s left\n", rec.Type, rec.Value, rec.Remaining(now).Round(time.Second))
	}
	return nil
}

func printOutcome(out io.Writer, o effects.Outcome) {
	switch {
	case o.Blocked:
		fmt.Fprintf(out, "blocked by %s\n", o.BlockedBy)
	case o.Applied && o.Record != nil:
		fmt.Fprintf(out, "%s applied to %s until %s\n", o.Record.Type, o.Record.PlayerID, o.Record.ExpiresAt.Format(time.RFC3339))
	}
	if o.Message != "" {
		fmt.Fprintln(out, o.Message)
	}
}

func printMessages(out io.Writer, msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(out, "  "+m)
	}
}
