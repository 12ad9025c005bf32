/*
Package ports defines the driven ports (interfaces) of the regions state container.

These interfaces decouple the core logic from external implementations, allowing
the container to work with various country sources, session storage backends and
locking strategies.

# Key Interfaces

  - CountryFetcher: Loads the countries of a region (e.g., from the restcountries API or memory).
  - StateStore: Persists and loads the RegionState of a session.
  - DistributedLocker: Coordinates concurrent session access across replicas.
*/
package ports
