// Package display renders danmaku with GTK4 and libadwaita.
//
// A single transparent layer-shell window covers the selected monitor and
// holds every comment as a label inside a gtk.Fixed. Labels are moved by
// adw.TimedAnimation, and canvas timers run on the GLib main loop, so all
// calls into this package must happen on the GTK thread.
package display
