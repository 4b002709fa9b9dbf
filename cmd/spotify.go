package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyArtist shows a single artist with its follower rank.
func (r *Runner) SpotifyArtist(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	artist, err := r.spotify.GetArtist(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(artist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(artist.Name)
	r.writePlain("Followers: %d (rank %d/5)\n", artist.Followers, artist.Rank)
	r.writePlain("Popularity: %d\n", artist.Popularity)
	if len(artist.Genres) > 0 {
		r.writePlain("Genres: %s\n", strings.Join(artist.Genres, ", "))
	}
	return nil
}

// SpotifyStats prints the user's listening summary.
func (r *Runner) SpotifyStats(ctx context.Context, cmd *cli.Command) error {
	progress, stop := r.printProgress(cmd.Bool("quiet") || cmd.Bool("json"))
	stats, err := r.aggregator().UserStats(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Your Listening")
	r.writePlain("Saved tracks: %d · Playlists: %d · Followed artists: %d\n",
		stats.TotalSavedTracks, stats.TotalPlaylists, stats.TotalFollowedArtist)

	printTracks := func(title string, tracks []models.TrackSummary) {
		r.writePlainln("%s", title)
		for i, t := range tracks {
			r.writePlain("%2d. %s - %s\n", i+1, t.Artist, t.Name)
		}
	}
	printArtists := func(title string, artists []models.ArtistSummary) {
		r.writePlainln("%s", title)
		for i, a := range artists {
			r.writePlain("%2d. %s\n", i+1, a.Name)
		}
	}

	printTracks("Top tracks (last 4 weeks)", stats.TopTracksMonth)
	printTracks("Top tracks (all time)", stats.TopTracksAllTime)
	printArtists("Top artists (last 4 weeks)", stats.TopArtistsMonth)
	printArtists("Top artists (all time)", stats.TopArtistsAllTime)

	if len(stats.TopGenres) > 0 {
		r.writePlainln("Top genres")
		for _, g := range stats.TopGenres {
			r.writePlain("  %-24s %d\n", g.Genre, g.Count)
		}
	}
	return nil
}

// SpotifyReleases lists recent albums and singles from followed artists.
//
// Artists whose lookup failed are reported after the list; they never fail the command.
func (r *Runner) SpotifyReleases(ctx context.Context, cmd *cli.Command) error {
	progress, stop := r.printProgress(cmd.Bool("quiet") || cmd.Bool("json"))
	result, err := r.aggregator().NewReleases(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("New Releases (%d)", len(result.Items)))
	for i, album := range result.Items {
		kind := ""
		if album.AlbumType != nil {
			kind = " [" + *album.AlbumType + "]"
		}
		r.writePlain("%2d. %s  %s - %s%s\n", i+1, album.ReleaseDate, album.Artist, album.Name, kind)
	}

	if result.Degraded() {
		r.writePlainln("⚠ Skipped %d artists:", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  - %s: %s\n", f.Source, f.Error)
		}
	}
	return nil
}
