// Package rest provides a small asynchronous REST client.
//
// A Client is bound to one protocol, host and port, and optionally to basic
// authentication credentials. Every request method returns a *Future at once
// and performs the round trip on a background worker pool:
//   - Options are either query parameters (Param) or headers (Header)
//   - Request bodies are pulled lazily from a Body, chunk by chunk
//   - Responses hold the status code and body text, with JSON helpers
//
// Basic Usage:
//
//	client := rest.NewClient(rest.HTTP, "example.com", -1)
//
//	resp, err := client.Get("users",
//	    rest.Param("limit", "10"),
//	    rest.Header("Accept", "application/json"),
//	).Wait()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	users, err := rest.DecodeJSONArray[User](resp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for u := range users {
//	    fmt.Println(u.Name)
//	}
//
// Streaming Upload Example:
//
//	lines := func(yield func(string) bool) {
//	    for _, l := range records {
//	        if !yield(l + "\n") {
//	            return
//	        }
//	    }
//	}
//	f := client.PostWithBody("import", rest.Seq(lines),
//	    rest.Header("Content-Type", "application/x-ndjson"),
//	)
//	resp, err := f.Await(ctx)
//
// Response bodies are read line by line and joined without line separators,
// so multi-line payloads come back on a single line.
//
// Thread Safety:
//
// Client and Future are safe for concurrent use. Requests dispatched from the
// same Client may complete in any order.
package rest
