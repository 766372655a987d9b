// Package projector turns registrar events into entity writes.
//
// A Projector owns the handlers for every event kind. Each handler runs
// as one unit of work against an entity.Store: the event id is claimed in
// the journal, the current entities are loaded, new state is computed and
// saved, and the audit record is appended. Either all of it commits or
// none of it does.
//
// # Handlers
//
//   - NameRegistered: ensure the owner account, (re)write the
//     registration, append a NameRegistered record.
//   - ControllerNameRegistered / ControllerNameRenewed: set the domain's
//     label and display name when they changed, and attach the label and
//     cost to an existing registration.
//   - NameRenewed: extend expiry on an existing registration; a missing
//     registration is a MISSING_REQUIRED_RECORD error.
//   - Transfer: ensure the new owner account and move the registration.
//
// Controller and transfer events for an untracked registration are
// tolerated: the outcome is OutcomeTolerated and no error is returned.
//
// # Idempotence
//
// Redelivering an event id that is already journaled returns
// OutcomeDuplicate and writes nothing.
package projector
