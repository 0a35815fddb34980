// Package scraper runs document ingest pipelines. Each pipeline fetches a
// listing page, enumerates document links, turns each link into a record,
// and inserts the new records into its raw table. The Registry and Engine
// select and run pipelines; Drive holds the shared fetch-extract-persist flow.
package scraper
