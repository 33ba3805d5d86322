/*
Package stream holds the transport contracts the relay publishes through: the durable
Stream, the FailureSink for exhausted deliveries and header propagation.
Concrete transports live under adapters/.
*/
package stream
