/*
Package relay turns identity-provider events into canonical user lifecycle messages and
publishes them to a durable stream.

The pipeline is Classify, then Map, then Publisher.Publish, driven by the Dispatcher entry
points. It runs on the caller's goroutine and owns no background work: the only blocking
points are the broker round-trip and the backoff wait between delivery attempts, and both
honor context cancellation.
*/
package relay
