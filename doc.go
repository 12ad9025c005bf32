/*
Package regions is a small state container for browsing the countries of a
world region.

The state lives in a single immutable record (domain.RegionState). Every change
is an Action run through a pure reducer; the only side effect, fetching the
country list of a region, is performed by an effect layer that reports back by
dispatching exactly one follow-up action.

# Flow

Selecting a region records it and requests its countries. While the request
is in flight the state is loading; when it resolves the list is replaced, or the
list is emptied and a user-facing error message is stored. The error can be
dismissed or the request retried.

# Usage

	store := regions.New()
	defer store.Close()

	ctx := context.Background()
	if err := store.SelectRegion(ctx, "Europe"); err != nil {
		log.Fatal(err)
	}
	store.Wait()

	if msg, ok := store.Error(); ok {
		log.Println(msg)
		return
	}
	for _, c := range store.Countries() {
		fmt.Println(c.Name)
	}

By default countries come from the public REST Countries API. Use WithFetcher
to inject any ports.CountryFetcher, e.g. the static memory adapter in tests.
*/
package regions
