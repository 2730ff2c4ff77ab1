package bot

import "math/rand/v2"

type demoTrack struct {
	Title string
	URL   string
}

var demoTracks = []demoTrack{
	{
		Title: "Rick Astley - Never Gonna Give You Up",
		URL:   "https://open.spotify.com/track/4PTG3Z6ehGkBFwjybzWkR8",
	},
	{
		Title: "Queen - Bohemian Rhapsody",
		URL:   "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv",
	},
	{
		Title: "Daft Punk - Get Lucky",
		URL:   "https://open.spotify.com/track/69kOkLUCkxIZYexIgSG8rq",
	},
	{
		Title: "Toto - Africa",
		URL:   "https://open.spotify.com/track/2374M0fQpWi3dLnB54qaLX",
	},
}

func pickDemoTrack() demoTrack {
	return demoTracks[rand.IntN(len(demoTracks))] //nolint:gosec
}
