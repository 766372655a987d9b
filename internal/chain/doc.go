// Package chain defines the decoded registrar events the projector
// consumes and the envelope they travel in.
//
// Events arrive already decoded. An Envelope is the transport form used by
// fixture files, Kafka records and the store journal; Decode turns it into
// a typed Event and Encode produces the canonical envelope for an Event.
package chain
