package events

// Delivered exposes the writer completion callback.
var Delivered = (*KafkaPublisher).delivered
