// Package relayclient implements the consumer side of the account-update relay.
//
// A Manager keeps one logical connection to the relay:
//   - Connect is a no-op while a connection is being opened or is open
//   - received frames are decoded and published on Messages and OnMessage
//   - an unclean close schedules exactly one reconnect after ReconnectDelay;
//     a newer schedule replaces the pending one
//   - Disconnect closes with 1000 and cancels any pending reconnect
//
// The joined room is remembered and joined again after every reconnect.
package relayclient
