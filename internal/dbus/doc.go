// Package dbus implements the io.github.jmylchreest.Danmaq session bus
// interface: the daemon-side server and the client used by the CLI.
package dbus
