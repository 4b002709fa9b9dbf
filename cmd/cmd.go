// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

func quietFlag() cli.Flag {
	return &cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide progress output"}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
		After:  r.closeLibrary,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml with default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write (defaults to --config)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// spotifyCommand handles Spotify account operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.SpotifyAuth,
			},
			{
				Name:   "status",
				Usage:  "Show the state of the token cache",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SpotifyStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Refresh the cached access token now",
				Action: r.SpotifyRefresh,
			},
			{
				Name:  "artist",
				Usage: "Show an artist and its follower rank",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.SpotifyArtist,
			},
			{
				Name:   "stats",
				Usage:  "Summarize listening: top tracks, artists and genres",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag(), quietFlag()},
				Action: r.SpotifyStats,
			},
			{
				Name:   "releases",
				Usage:  "List recent releases from followed artists",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag(), quietFlag()},
				Action: r.SpotifyReleases,
			},
		},
	}
}

// catalogCommand handles anime/manga catalog lookups
func catalogCommand(r *Runner) *cli.Command {
	kindFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Catalog kind (anime or manga)", Value: "anime"}
	}
	limitFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of results", Value: 10}
	}

	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"mal"},
		Usage:   "Search the anime and manga catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search titles",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  []cli.Flag{kindFlag(), limitFlag(), jsonFlag(), prettyFlag()},
				Action: r.CatalogSearch,
			},
			{
				Name:  "details",
				Usage: "Show one title by catalog id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{kindFlag(), jsonFlag(), prettyFlag()},
				Action: r.CatalogDetails,
			},
			{
				Name:   "trending",
				Usage:  "Show what is airing or popular now",
				Flags:  []cli.Flag{kindFlag(), limitFlag(), jsonFlag(), prettyFlag()},
				Action: r.CatalogTrending,
			},
		},
	}
}

// libraryCommand handles the local record store
func libraryCommand(r *Runner) *cli.Command {
	kindFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Library kind (anime, manga, games, music); empty for all"}
	}

	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect and maintain the local library",
		After:   r.closeLibrary,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracked entries",
				Flags: []cli.Flag{
					kindFlag(),
					&cli.StringFlag{Name: "status", Usage: "Only entries with this status"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries per kind", Value: 100},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.LibraryList,
			},
			{
				Name:  "export",
				Usage: "Export the library as CSV, Markdown, text or JSON",
				Flags: []cli.Flag{
					kindFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: library.{ext})",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title for Markdown exports",
						Value: "My Library",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:   "stats",
				Usage:  "Show library totals",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.LibraryStats,
			},
			{
				Name:  "enrich",
				Usage: "Fill missing synopsis, images and totals from the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "anime or manga",
						Value:   "anime",
					},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent lookups (max 10)", Value: 3},
					&cli.FloatFlag{Name: "rate", Usage: "Catalog requests per second", Value: 2},
					&cli.BoolFlag{Name: "dry-run", Usage: "Report changes without saving them"},
					quietFlag(),
				},
				Action: r.LibraryEnrich,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the library.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the library in an interactive terminal UI",
		Action:  r.TUI,
		After:   r.closeLibrary,
	}
}
