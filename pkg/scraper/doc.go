// Package scraper drives a metadata generation run.
//
// The Scraper walks the identifier range one entity at a time, coordinating
// between the catalog client, the metadata generator, storage and the rate
// limiter.
//
// Per entity:
//   - Wait on the limiter
//   - Fetch the record
//   - Generate and encode every copy
//   - Write copy c of entity id as file number id*copies+c
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.NewFromConfig(cfg, logger.GetLogger())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := s.Run(ctx)
//
// Failures:
//
// Fetch failures (transport errors, non-200 statuses, undecodable bodies) and
// records missing a required field are logged and skipped; no file is written
// for a skipped entity. A storage failure stops the run and Run returns it.
// Files already written are left in place.
package scraper
