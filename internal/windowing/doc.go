// Package windowing trims a conversation to a token budget before it is sent to a
// provider, without ever separating an assistant's tool requests from their results.
package windowing
