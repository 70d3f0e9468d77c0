// Package canvas allocates screen rows for danmaku comments and drives each
// comment's motion from creation to release. It is toolkit independent: the
// visual side is reached through the Renderer and Scheduler interfaces, and all
// methods must be called from a single event-processing goroutine.
package canvas
