package regions_test

import (
	"context"
	"fmt"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/pkg/adapters/memory"
	"github.com/aretw0/regions/pkg/domain"
)

// ExampleNew shows the select, wait, read cycle with a static fetcher.
func ExampleNew() {
	fetcher := memory.NewFetcher(map[string][]domain.Country{
		domain.RegionEurope: {
			{Name: "Germany", Capital: "Berlin"},
			{Name: "France", Capital: "Paris"},
		},
	})
	store := regions.New(regions.WithFetcher(fetcher))
	defer store.Close()

	ctx := context.Background()
	if err := store.SelectRegion(ctx, "Europe"); err != nil {
		fmt.Println(err)
		return
	}
	store.Wait()

	for _, c := range store.Countries() {
		fmt.Printf("%s (%s)\n", c.Name, c.Capital)
	}

	country, _ := store.SelectCountryByName(ctx, "france")
	fmt.Println("selected:", country.Name)
	// Output:
	// Germany (Berlin)
	// France (Paris)
	// selected: France
}

// ExampleStore_Retry shows how a failed fetch surfaces as a message.
func ExampleStore_Retry() {
	fetcher := memory.NewFetcher(nil).
		FailWith(domain.RegionAsia, &domain.FetchError{Status: 404})
	store := regions.New(regions.WithFetcher(fetcher))
	defer store.Close()

	ctx := context.Background()
	_ = store.SelectRegion(ctx, domain.RegionAsia)
	store.Wait()

	msg, _ := store.Error()
	fmt.Println(msg)

	fetcher.FailWith(domain.RegionAsia, nil)
	_ = store.Retry(ctx)
	store.Wait()

	_, failed := store.Error()
	fmt.Println("failed:", failed)
	// Output:
	// The requested resource was not found.
	// failed: false
}
