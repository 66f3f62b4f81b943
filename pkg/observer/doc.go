/*
Package observer implements the subscription table that delivers instance
events to callbacks.

Subscribers register an event mask and an optional type filter. Dispatch is
synchronous and runs callbacks in subscription order. A failing callback
(returned error or panic) never stops delivery to the others; all failures
are collected into a *DispatchError once every matching callback has run.

The subscriber list is copy-on-write: Dispatch iterates an immutable
snapshot, so Subscribe and Unsubscribe may be called concurrently, including
from inside a callback. A handle removed by Unsubscribe receives no further
events, even from a dispatch that is already in progress.
*/
package observer
