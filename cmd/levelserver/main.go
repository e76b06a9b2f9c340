// levelserver stores slingshot levels and serves them over HTTP.
//
// Usage:
//
//	levelserver [--config levelserver.toml] [--addr :3000] [--driver file|sqlite] [--dir levels] [--dsn levels.db]
//
// Routes:
//
//	GET    /level/{id}  - read a level document
//	POST   /level/{id}  - create or replace a level document
//	DELETE /level/{id}  - delete a level
//	GET    /levels      - list level ids
//	GET    /events      - websocket feed of level changes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagAddr   string
	flagDriver string
	flagDir    string
	flagDSN    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "levelserver",
	Short: "Serve slingshot level documents over HTTP",
	Long: `levelserver persists level documents in a directory of JSON files or in
a SQLite database and exposes them to the game and the editor.

Flags override values read from --config.

Examples:
  levelserver
  levelserver --addr :8080 --dir ./levels
  levelserver --driver sqlite --dsn ./data/levels.db
  levelserver --config configs/levelserver.toml`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a TOML config file")
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP bind address (host:port)")
	rootCmd.Flags().StringVar(&flagDriver, "driver", "", "Storage driver: file or sqlite")
	rootCmd.Flags().StringVar(&flagDir, "dir", "", "Level directory for the file driver")
	rootCmd.Flags().StringVar(&flagDSN, "dsn", "", "Database path for the sqlite driver")
}
