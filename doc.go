// Package yteva looks up YouTube videos and resolves their download links.
//
// Search accepts free text or a video URL and always returns a result value;
// failures are recorded on it instead of being returned:
//
//	c := yteva.New(os.Getenv("YTEVA_API_KEY"))
//	s := c.Search(ctx, "lofi hip hop", 5)
//	if v, ok := s.FirstResult(); ok {
//		fmt.Println(v.Title, v.Link)
//	}
//
// Link operations query the download API. PlayAudio and PlayVideo return
// either a live stream URL or the path of the file fetched through the
// configured Relay, the bot account that can read the API's upload channel.
package yteva
