package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the enrichment response cache",
		Long: `Enrichment responses are cached on disk, keyed by operation, model and
input. Entries expire after cache.ttl. The Redis tier, when configured, is
not touched by these commands.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the cache directory and its size",
			Args:  cobra.NoArgs,
			RunE:  c.withFileCache(cacheInfo),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached response",
			Args:  cobra.NoArgs,
			RunE:  c.withFileCache(cacheClear),
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				dir, err := c.cacheDir()
				if err != nil {
					return err
				}
				fmt.Println(dir)
				return nil
			},
		},
	)
	return cmd
}

// cacheDir is cache.dir from the config, or the per-user default.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return dir, nil
}

func (c *CLI) withFileCache(fn func(*cache.FileCache) error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		dir, err := c.cacheDir()
		if err != nil {
			return err
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return err
		}
		defer fc.Close()
		return fn(fc)
	}
}

func cacheInfo(fc *cache.FileCache) error {
	n, size, err := fc.Stats()
	if err != nil {
		return err
	}
	printKeyValue("Directory", fc.Dir())
	printKeyValue("Entries", fmt.Sprint(n))
	printKeyValue("Size", humanBytes(size))
	return nil
}

func cacheClear(fc *cache.FileCache) error {
	n, err := fc.Clear()
	if err != nil {
		return err
	}
	if n == 0 {
		printInfo("Cache is empty")
		return nil
	}
	printSuccess("Cleared %d cached entries", n)
	printDetail("Directory: %s", fc.Dir())
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
