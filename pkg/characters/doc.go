// Package characters loads character cards and picks the cast of a game.
//
// Cards follow the Character Card V2 layout, either nested under "data" or
// flat. Murder-mystery details live under extensions.murder_mystery and are
// decoded into a domain.Profile.
package characters
