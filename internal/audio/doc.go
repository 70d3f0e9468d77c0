// Package audio plays the optional cue sound for accepted danmaku.
package audio
