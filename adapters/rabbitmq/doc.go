/*
Package rabbitmq provides a RabbitMQ stream for the relay.
Records are published persistently to a durable topic exchange with the subject as the
routing key, so consumers can bind "USER_EVENT.#". The connection-backed publisher runs in
confirm mode and reconnects automatically after the initial dial succeeds.
*/
package rabbitmq
