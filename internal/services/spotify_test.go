package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/mtrack/internal/auth"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	tu "github.com/desertthunder/mtrack/internal/testing"
)

const artistJSON = `{
	"id": "4Z8W4fKeB5YxbusRsdQVPb",
	"name": "Radiohead",
	"genres": ["alternative rock", "art rock"],
	"images": [{"url": "https://i.scdn.co/large", "height": 640, "width": 640}, {"url": "https://i.scdn.co/small", "height": 160, "width": 160}],
	"followers": {"total": 12500000},
	"popularity": 79
}`

const playlistTracksJSON = `{
	"items": [
		{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t1", "name": "Airbag", "artists": [{"name": "Radiohead"}], "album": {"id": "a1", "name": "OK Computer"}, "duration_ms": 284000, "popularity": 70, "track_number": 1}},
		{"added_at": "2024-01-02T00:00:00Z", "track": null},
		{"added_at": "2024-01-03T00:00:00Z", "track": {"id": "t3", "name": "", "artists": [], "album": null, "duration_ms": 1000, "popularity": 0, "track_number": 3}}
	],
	"total": 42
}`

func newTestSpotify(u *tu.Upstream, tokens TokenSource) *SpotifyService {
	return NewSpotifyService(tokens, WithBaseURL(u.URL))
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if got := NewSpotifyService(tu.StaticTokens("x")).Name(); got != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", got)
		}
	})

	t.Run("Authentication", func(t *testing.T) {
		t.Run("token failure skips the network", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/artists/x": artistJSON})
			srv := newTestSpotify(u, tu.FailingTokens{Err: shared.ErrNotAuthenticated})

			_, err := srv.GetArtist(ctx, "x")
			if !errors.Is(err, shared.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected the auth cause to be preserved, got %v", err)
			}
			if len(u.Requests()) != 0 {
				t.Errorf("expected no upstream requests, got %d", len(u.Requests()))
			}
		})

		t.Run("sends bearer header", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/artists/x": artistJSON})
			if _, err := newTestSpotify(u, tu.StaticTokens("abc")).GetArtist(ctx, "x"); err != nil {
				t.Fatalf("GetArtist() error = %v", err)
			}
			if got := u.Requests()[0].Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("unexpected Authorization header %q", got)
			}
		})

		t.Run("rejected bearer token", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			u.Set("/me/playlists", http.StatusUnauthorized, `{"error":{"status":401,"message":"Invalid access token"}}`)
			srv := newTestSpotify(u, tu.StaticTokens("unused")).WithTokens(auth.Bearer("expired"))

			_, err := srv.GetPlaylists(ctx, 50, 0)
			if !errors.Is(err, shared.ErrInvalidBearerToken) || !errors.Is(err, shared.ErrUnauthenticated) {
				t.Errorf("expected invalid bearer token, got %v", err)
			}
			if got := u.Requests()[0].Header.Get("Authorization"); got != "Bearer expired" {
				t.Errorf("expected caller token to be used, got %q", got)
			}
		})

		t.Run("blank bearer token", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			_, err := newTestSpotify(u, auth.Bearer("")).GetTopArtists(ctx, models.MediumTerm, 20)
			if !errors.Is(err, shared.ErrInvalidBearerToken) {
				t.Errorf("expected ErrInvalidBearerToken, got %v", err)
			}
		})
	})

	t.Run("GetArtist", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/artists/4Z8W4fKeB5YxbusRsdQVPb": artistJSON})
		artist, err := newTestSpotify(u, tu.StaticTokens("t")).GetArtist(ctx, "4Z8W4fKeB5YxbusRsdQVPb")
		if err != nil {
			t.Fatalf("GetArtist() error = %v", err)
		}
		if artist.Followers != 12500000 || artist.Rank != 50 {
			t.Errorf("unexpected followers/rank %d/%d", artist.Followers, artist.Rank)
		}
		if artist.ImageURL == nil || *artist.ImageURL != "https://i.scdn.co/large" {
			t.Errorf("unexpected image %v", artist.ImageURL)
		}
		if len(artist.Genres) != 2 || artist.Genres[0] != "alternative rock" {
			t.Errorf("genre order should be preserved, got %v", artist.Genres)
		}
	})

	t.Run("GetArtist not found", func(t *testing.T) {
		u := tu.NewUpstream(t, nil)
		_, err := newTestSpotify(u, tu.StaticTokens("t")).GetArtist(ctx, "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetPlaylists", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/me/playlists": `{
			"items": [{"id": "p1", "name": "Mix", "description": "", "owner": {"display_name": "me"}, "public": true, "collaborative": false, "tracks": {"total": 12}, "images": []}],
			"total": 7
		}`})
		page, err := newTestSpotify(u, tu.StaticTokens("t")).GetPlaylists(ctx, 1, 3)
		if err != nil {
			t.Fatalf("GetPlaylists() error = %v", err)
		}
		if page.Total != 7 || page.Items[0].TracksCount != 12 || page.Items[0].Owner != "me" {
			t.Errorf("unexpected page %+v", page)
		}
		if page.Items[0].ImageURL != nil {
			t.Error("playlist without images should have no image")
		}

		q := u.Requests()[0].URL.Query()
		if q.Get("limit") != "1" || q.Get("offset") != "3" {
			t.Errorf("pagination should pass through verbatim, got %s", u.Requests()[0].URL.RawQuery)
		}
	})

	t.Run("GetPlaylistTracks", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/playlists/p1/tracks": playlistTracksJSON})
		page, err := newTestSpotify(u, tu.StaticTokens("t")).GetPlaylistTracks(ctx, "p1", 50, 0)
		if err != nil {
			t.Fatalf("GetPlaylistTracks() error = %v", err)
		}

		if len(page.Items) != 2 {
			t.Fatalf("expected removed track to be filtered, got %d items", len(page.Items))
		}
		if page.Total != 42 {
			t.Errorf("total should be the upstream total, got %d", page.Total)
		}

		first := page.Items[0]
		if first.Album.Name != "OK Computer" || first.Album.ID == nil || *first.Album.ID != "a1" {
			t.Errorf("unexpected album %+v", first.Album)
		}
		if first.AddedAt == nil || *first.AddedAt != "2024-01-01T00:00:00Z" {
			t.Errorf("unexpected added_at %v", first.AddedAt)
		}

		sparse := page.Items[1]
		if sparse.Name != UnknownTrack || sparse.Artists[0] != UnknownArtist || sparse.Album.Name != UnknownAlbum {
			t.Errorf("expected placeholders, got %+v", sparse)
		}
		if sparse.Album.ID != nil {
			t.Errorf("missing album should have no id")
		}
	})

	t.Run("GetAlbumTracks", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{
			"/albums/a1/tracks": `{"items": [{"id": "t1", "name": "Airbag", "artists": [{"name": "Radiohead"}], "duration_ms": 284000, "track_number": 1, "disc_number": 1, "explicit": false}], "total": 12}`,
			"/albums/a1":        `{"id": "a1", "name": "OK Computer", "artists": [{"name": "Radiohead"}], "release_date": "1997-05-21", "total_tracks": 12, "popularity": 81, "images": [{"url": "https://i/ok"}]}`,
		})
		res, err := newTestSpotify(u, tu.StaticTokens("t")).GetAlbumTracks(ctx, "a1", 50, 0)
		if err != nil {
			t.Fatalf("GetAlbumTracks() error = %v", err)
		}
		if res.Total != 12 || len(res.Tracks) != 1 {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.Tracks[0].Popularity != 81 || res.Tracks[0].Album.ReleaseDate != "1997-05-21" {
			t.Errorf("tracks should inherit album details, got %+v", res.Tracks[0])
		}
		if res.AlbumInfo.ImageURL == nil || res.AlbumInfo.Artists[0] != "Radiohead" {
			t.Errorf("unexpected album info %+v", res.AlbumInfo)
		}
	})

	t.Run("GetAlbumTracks fails when album lookup fails", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/albums/a1/tracks": `{"items": [], "total": 0}`})
		if _, err := newTestSpotify(u, tu.StaticTokens("t")).GetAlbumTracks(ctx, "a1", 50, 0); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetLikedAlbums", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/me/albums": `{"items": [{"album": {"id": "a1", "name": "Kid A", "artists": [{"name": "Radiohead"}, {"name": "Guest"}], "total_tracks": 10, "release_date": "2000-10-02", "images": []}}], "total": 31}`})
		page, err := newTestSpotify(u, tu.StaticTokens("t")).GetLikedAlbums(ctx, 50)
		if err != nil {
			t.Fatalf("GetLikedAlbums() error = %v", err)
		}
		if page.Total != 31 || page.Items[0].Artist != "Radiohead, Guest" {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("GetFollowedArtists", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/me/following": `{"artists": {"items": [` + artistJSON + `], "total": 64}}`})
		srv := newTestSpotify(u, tu.StaticTokens("t"))

		page, err := srv.GetFollowedArtists(ctx, 50)
		if err != nil {
			t.Fatalf("GetFollowedArtists() error = %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].Rank != 50 {
			t.Errorf("unexpected artists %+v", page.Items)
		}
		if u.Requests()[0].URL.Query().Get("type") != "artist" {
			t.Error("expected type=artist")
		}

		total, err := srv.FollowedArtistsTotal(ctx)
		if err != nil || total != 64 {
			t.Errorf("FollowedArtistsTotal() = %d, %v", total, err)
		}
	})

	t.Run("GetTopTracks", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/me/top/tracks": `{"items": [{"id": "t1", "name": "Idioteque", "artists": [{"name": "Radiohead"}, {"name": "Paul Lansky"}], "album": {"name": "Kid A", "images": [{"url": "https://i/kida"}]}, "popularity": 66}]}`})
		tracks, err := newTestSpotify(u, tu.StaticTokens("t")).GetTopTracks(ctx, models.ShortTerm, 10)
		if err != nil {
			t.Fatalf("GetTopTracks() error = %v", err)
		}
		if tracks[0].Artist != "Radiohead, Paul Lansky" || tracks[0].Album != "Kid A" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
		if got := u.Requests()[0].URL.Query().Get("time_range"); got != "short_term" {
			t.Errorf("expected time_range=short_term, got %s", got)
		}
	})

	t.Run("Totals", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{
			"/me/tracks":    `{"items": [{}], "total": 1234}`,
			"/me/playlists": `{"items": [{}], "total": 56}`,
		})
		srv := newTestSpotify(u, tu.StaticTokens("t"))
		if n, err := srv.SavedTracksTotal(ctx); err != nil || n != 1234 {
			t.Errorf("SavedTracksTotal() = %d, %v", n, err)
		}
		if n, err := srv.PlaylistsTotal(ctx); err != nil || n != 56 {
			t.Errorf("PlaylistsTotal() = %d, %v", n, err)
		}
	})

	t.Run("ArtistAlbums", func(t *testing.T) {
		u := tu.NewUpstream(t, map[string]string{"/artists/r1/albums": `{"items": [{"id": "a9", "name": "A Moon Shaped Pool", "album_type": "album", "artists": [{"name": "Radiohead"}], "release_date": "2016-05-08", "total_tracks": 11, "images": []}]}`})
		albums, err := newTestSpotify(u, tu.StaticTokens("t")).ArtistAlbums(ctx, "r1", 3)
		if err != nil {
			t.Fatalf("ArtistAlbums() error = %v", err)
		}
		if albums[0].ArtistID != "r1" || albums[0].AlbumType == nil || *albums[0].AlbumType != "album" {
			t.Errorf("unexpected album %+v", albums[0])
		}
		q := u.Requests()[0].URL.Query()
		if q.Get("include_groups") != "album,single" || q.Get("limit") != "3" {
			t.Errorf("unexpected query %s", u.Requests()[0].URL.RawQuery)
		}
	})
}
