package protocol

import "time"

// Time is a timestamp split into integer seconds and nanoseconds. Integer
// fields survive encode/decode cycles exactly, so a stamped message compares
// equal to itself after a wire round trip.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int32 `json:"nsecs"`
}

// Now returns the current wall clock as a protocol timestamp.
func Now() Time {
	return At(time.Now())
}

// At converts a time.Time into a protocol timestamp.
func At(t time.Time) Time {
	return Time{Secs: t.Unix(), Nsecs: int32(t.Nanosecond())}
}

// AsTime converts the timestamp back into a time.Time.
func (t Time) AsTime() time.Time {
	return time.Unix(t.Secs, int64(t.Nsecs))
}

// IsZero reports whether the timestamp is unset.
func (t Time) IsZero() bool {
	return t.Secs == 0 && t.Nsecs == 0
}

// Header carries delivery metadata for game messages. The sending session
// owns it: producers build messages with a zero header and the transport
// stamps sequence, time and origin on the way out.
type Header struct {
	Seq    uint32 `json:"seq"`
	Stamp  Time   `json:"stamp"`
	Origin string `json:"origin,omitempty"`
}
