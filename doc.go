// Package stash is the accounting core of a share-portfolio tracker for the
// Australian market.
//
// Trades are recorded per account against listed securities. Purchases open
// lots; disposals consume lots first-in first-out within the account, split
// brokerage and GST proportionally across the consumed slices, and record the
// capital gain with the 50% CGT discount applied when the holding qualifies.
// Two append-only event logs (buys and sells) allow the valuation layer to
// reconstruct holdings at any past date after the open lots have been
// mutated by later disposals.
//
// Persistence is a flat key/value store of JSON documents; market data comes
// from a pluggable quote/history gateway.
package stash
