// Package youcom provides a client for the You.com web search API.
//
// Research nodes send their query through [Client.Search]; the hits are
// flattened to text with [SearchResult.Text] before they reach the canvas.
//
//	c := youcom.NewClient(backend, os.Getenv("YOU_COM_API_KEY"), time.Hour)
//	res, err := c.Search(ctx, "lighthouse keepers", false)
//	if err != nil {
//	    res = youcom.Mock("lighthouse keepers")
//	}
//	text := res.Text(3)
package youcom
