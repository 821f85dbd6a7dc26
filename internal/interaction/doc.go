// Package interaction brings a freshly navigated page into a settled state
// before evidence is collected.
//
// Many trackers only fire after the document finished loading, after the
// visitor scrolled, or after a consent banner was accepted. The Driver
// reproduces that sequence as a linear state machine:
//
//	Idle -> LoadWait -> ScrollSettle -> ConsentDismiss -> Settled
//
// Every phase runs under its own timeout. A phase that times out or fails is
// logged and the driver moves on with whatever state the page reached.
package interaction
