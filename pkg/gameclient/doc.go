// Package gameclient provides a reusable game controller websocket client.
//
// It supports protocol v1/v2/v3 binary framing, hello negotiation, game
// event reporting, microphone audio upload, command decoding, and spectator
// room updates.
package gameclient
