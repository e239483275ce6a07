// Package sdk provides an HTTP client for a remote polyseek server.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("key-1"))
//	resp, err := client.Search(ctx, &sdk.SearchRequest{Query: "golang context"})
//	if err != nil {
//	    // *sdk.APIError carries the server's code and message
//	}
//	for _, r := range resp.Results {
//	    fmt.Println(r.Title, r.URL)
//	}
//
// For in-process use without a server, see the root polyseek package.
package sdk
