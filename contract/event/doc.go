/*
Package event declares the raw identity-provider events the relay consumes and the
canonical Message it publishes.
*/
package event
