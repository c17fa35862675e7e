package h2

import (
	"golang.org/x/net/http2"

	"github.com/brightwire/impersonate/profile"
)

// writePriorities emits the profile's declared PRIORITY frames in
// order (§4.5 step 4: "Send the Profile.http2_priorities frames if
// any, in order"), building the tree browsers advertise for their
// well-known pseudo-stream dependencies before any request stream
// exists.
func writePriorities(fr *http2.Framer, frames []profile.PriorityFrame) error {
	for _, p := range frames {
		if err := fr.WritePriority(p.StreamID, http2.PriorityParam{
			StreamDep: p.StreamDep,
			Exclusive: p.Exclusive,
			Weight:    p.Weight,
		}); err != nil {
			return err
		}
	}
	return nil
}
