// Package careerdex embeds the careerdex retrieval engine in a Go program.
//
// The client opens a document store directly (bolt file, Valkey/Redis or
// Postgres with pgvector) and exposes the four retrieval tools plus data
// loading, without running the HTTP server.
//
//	client, _ := careerdex.New(ctx,
//	    careerdex.WithBolt("careerdex.db"),
//	    careerdex.WithDataDir("data/experience"),
//	)
//	defer client.Close()
//
//	_, _ = client.Init(ctx, false)
//	resp := client.SearchExperience(ctx, careerdex.SearchInput{Query: "payments platform"})
//	for _, r := range resp.Results {
//	    fmt.Println(r.ID, r.Similarity)
//	}
package careerdex
