// Package pokeapi provides a client for the PokeAPI catalog.
//
// The client issues one GET per numeric identifier against a base endpoint
// and decodes the fields metadata generation needs into EntityRecord.
// Failures are returned as *errors.Error values so callers can tell a 404
// from a transport error or an undecodable body:
//
//	client := pokeapi.NewClient(pokeapi.DefaultBaseURL, 30*time.Second, log)
//	record, err := client.FetchEntity(ctx, 25)
//	if err != nil {
//	    if errors.TypeOf(err) == errors.ErrorTypeNotFound {
//	        // no entity with this id
//	    }
//	}
//
// Nested fields that may be absent are exposed through fallible accessors
// such as EntityRecord.ArtworkURL.
package pokeapi
