// Package pricer keeps a ledger of equity positions, lot by lot, and values
// them against market prices.
//
// The core functionalities include:
//   - Lot Management: recording purchases as lots sorted by cost, selling
//     them in full or in part, and annotating them with hold-until
//     reminders, notes and visibility flags.
//   - Valuation: unrealized gains of open lots against a price, realized
//     gains of closed lots.
//   - Reports: open positions aggregated per symbol at their weighted
//     average cost, and realized gains filtered by day.
//   - Quotes: reading market prices, including pre and post market
//     sessions, from a JSON document written by an external fetcher.
//   - Data Persistence: a single human-readable JSON file, rewritten
//     atomically under an advisory lock.
//
// This package serves as the foundational logic for the `pricer`
// command-line tool.
package pricer
