package errors

// Error codes for the relay contracts. Keep stable; used across adapters, sinks and the relay.
const (
	ErrCodePublishFailed       = "relay.publish_failed"
	ErrCodeSerializationFailed = "relay.serialization_failed"
	ErrCodeConfigInvalid       = "relay.config_invalid"
	ErrCodeConnectFailed       = "relay.connect_failed"
	ErrCodeNotConnected        = "relay.not_connected"
	ErrCodeSinkFailed          = "relay.sink_failed"
	ErrCodeUnsupportedBroker   = "relay.unsupported_broker"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrConfigInvalid       = Code(ErrCodeConfigInvalid)
	ErrConnectFailed       = Code(ErrCodeConnectFailed)
	ErrNotConnected        = Code(ErrCodeNotConnected)
	ErrSinkFailed          = Code(ErrCodeSinkFailed)
	ErrUnsupportedBroker   = Code(ErrCodeUnsupportedBroker)
)
