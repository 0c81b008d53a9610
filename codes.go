package main

import "crypto/rand"

const (
	roomCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength  = 4
)

// newRoomCode generates a crypto-random room code. Uniqueness against
// live rooms is the caller's job; see Registry.CreateRoom.
func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, roomCodeLength)
	for i := range out {
		out[i] = roomCodeLetters[int(buf[i])%len(roomCodeLetters)]
	}
	return string(out)
}
