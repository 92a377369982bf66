package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Strob0t/MediaScout/internal/config"
	"github.com/Strob0t/MediaScout/internal/port/cache"
	"github.com/Strob0t/MediaScout/internal/port/profilestore"
)

// runAdmin dispatches admin subcommands (cache-stats, cache-cleanup,
// cache-clear, profile-show).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "cache-stats":
		return runAdminCacheStats(args[1:])
	case "cache-cleanup":
		return runAdminCacheCleanup(args[1:])
	case "cache-clear":
		return runAdminCacheClear(args[1:])
	case "profile-show":
		return runAdminProfileShow(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: mediascout admin <command> [options]

Commands:
  cache-stats      Show entry count and size of the API cache
  cache-cleanup    Remove cache entries older than a TTL
  cache-clear      Drop every cache entry
  profile-show     Show a user's stored profile
  help             Show this help message

Examples:
  mediascout admin cache-stats
  mediascout admin cache-cleanup --ttl 24h
  mediascout admin cache-clear
  mediascout admin profile-show alice
`)
}

// loadAdminCache opens the configured cache backend's maintenance surface.
func loadAdminCache(ctx context.Context) (cache.Maintainer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	caches, err := buildCaches(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if caches.maint == nil {
		caches.close()
		return nil, nil, fmt.Errorf("cache backend %q has no maintenance surface", cfg.Cache.Backend)
	}
	return caches.maint, caches.close, nil
}

func runAdminCacheStats(args []string) error {
	fs := flag.NewFlagSet("cache-stats", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	maint, cleanup, err := loadAdminCache(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := maint.Stats(ctx)
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tENTRIES\tSIZE\tPATH")
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", stats.Backend, stats.Entries, formatBytes(stats.SizeBytes), stats.Path)
	return w.Flush()
}

func runAdminCacheCleanup(args []string) error {
	fs := flag.NewFlagSet("cache-cleanup", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "drop entries older than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	maint, cleanup, err := loadAdminCache(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := maint.CleanupExpired(ctx, *ttl)
	if err != nil {
		return fmt.Errorf("cache cleanup: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Removed %d entries older than %s\n", removed, *ttl)
	return nil
}

func runAdminCacheClear(args []string) error {
	fs := flag.NewFlagSet("cache-clear", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	maint, cleanup, err := loadAdminCache(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := maint.Clear(ctx); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Cache cleared")
	return nil
}

func runAdminProfileShow(args []string) error {
	fs := flag.NewFlagSet("profile-show", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: mediascout admin profile-show <user>")
	}
	userID := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	store, cleanup, err := buildProfileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return printProfile(ctx, store, userID)
}

func printProfile(ctx context.Context, store profilestore.Store, userID string) error {
	p, err := store.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "User\t%s\n", p.UserID)
	fmt.Fprintf(w, "Updated\t%s\n", p.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Favorite genres\t%s\n", strings.Join(p.Preferences.FavoriteGenres, ", "))
	fmt.Fprintf(w, "Liked\t%s\n", strings.Join(p.Preferences.LikedTitles, ", "))
	fmt.Fprintf(w, "Disliked\t%s\n", strings.Join(p.Preferences.DislikedTitles, ", "))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(p.History) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	hw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(hw, "AT\tMEDIA\tREQUEST\tTITLES")
	for _, e := range p.History {
		fmt.Fprintf(hw, "%s\t%s\t%s\t%s\n",
			e.At.Format("2006-01-02 15:04"), e.MediaType, e.Request, strings.Join(e.Titles, ", "))
	}
	return hw.Flush()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
