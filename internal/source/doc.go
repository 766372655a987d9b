// Package source provides the event sources the runner consumes: fixture
// files, a Kafka topic, and the store's own journal for replay.
package source
