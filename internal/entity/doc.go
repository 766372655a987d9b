// Package entity defines the projected records and the storage contracts
// the projector writes through.
//
// Account, Domain and Registration are mutable and keyed by derived ids.
// NameRegistered, NameRenewed and NameTransferred are append-only audit
// records keyed by event id. Store implementations must make each call to
// Store.Apply atomic: either every write made through the Repository lands
// together with the journal entry, or none do.
package entity
