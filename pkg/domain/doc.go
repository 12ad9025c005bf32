/*
Package domain contains the core domain models for the regions state container.

It defines the immutable records the container works with (Country, RegionState),
the catalog of actions that drive every transition, and the error and event types
shared by the runtime and its adapters. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Country: A country as returned by the countries API (name, capital, population, currencies, flag).
  - RegionState: The single record held by the container. It is only ever replaced, never mutated.
  - Action: A named event describing user intent or an I/O outcome.
  - FetchError: The transport failure reported by a country fetcher, carrying an optional status.
*/
package domain
